// Package discord lets Discord users drive chat interfaces from their DMs.
// Rendered messages arrive as DMs with one button per clickable segment,
// pressing a button submits its command and plain DM text is chat input.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rvald/chatgui/internal/chat"
)

// Slash command names.
const (
	CommandMenu  = "menu"
	CommandLeave = "leave"
)

// BotConfig holds the configuration for the Discord bot.
type BotConfig struct {
	Token   string
	GuildID string
	Logger  *slog.Logger
}

// Bot bridges Discord users to a Host and implements chat.Transport for
// players it owns.
type Bot struct {
	config  BotConfig
	host    Host
	logger  *slog.Logger
	session *discordgo.Session
	api     API

	mu       sync.Mutex
	channels map[string]string // user ID -> DM channel ID
}

// NewBot validates config and creates a new Bot.
func NewBot(config BotConfig, host Host) (*Bot, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("discord bot token is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		config:   config,
		host:     host,
		logger:   logger.With("component", "discord"),
		channels: make(map[string]string),
	}, nil
}

// Commands returns the slash command definitions for Discord registration.
func Commands() []SlashCommand {
	return []SlashCommand{
		{Name: CommandMenu, Description: "Open the menu in your DMs"},
		{Name: CommandLeave, Description: "Close any open menu"},
	}
}

// Start connects to Discord, registers slash commands, and installs the
// interaction and DM handlers. The session is closed when ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	session, err := discordgo.New("Bot " + b.config.Token)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	b.session = session
	b.api = session

	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsDirectMessages

	session.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handleInteraction(i.Interaction)
	})
	session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		b.handleMessage(m.Message)
	})

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	b.logger.Info("connected", "user", session.State.User.Username)

	for _, cmd := range toApplicationCommands(Commands()) {
		if _, err := session.ApplicationCommandCreate(session.State.User.ID, b.config.GuildID, cmd); err != nil {
			b.logger.Warn("failed to register command", "command", cmd.Name, "error", err)
		}
	}

	go func() {
		<-ctx.Done()
		b.Stop()
	}()
	return nil
}

// Stop closes the Discord session.
func (b *Bot) Stop() error {
	if b.session != nil {
		return b.session.Close()
	}
	return nil
}

// Send delivers msg to a Discord player as a DM. Players that are not
// Discord users are ignored.
func (b *Bot) Send(to chat.PlayerID, msg chat.Message) {
	userID, ok := UserID(to)
	if !ok || b.api == nil {
		return
	}
	channelID, err := b.dmChannel(userID)
	if err != nil {
		b.logger.Warn("cannot open DM", "user", userID, "error", err)
		return
	}

	out, dropped := Render(msg)
	if dropped > 0 {
		b.logger.Warn("message has more buttons than discord allows", "user", userID, "dropped", dropped)
	}
	if _, err := b.api.ChannelMessageSendComplex(channelID, out); err != nil {
		b.logger.Warn("failed to send DM", "user", userID, "error", err)
	}
}

func (b *Bot) dmChannel(userID string) (string, error) {
	b.mu.Lock()
	id, ok := b.channels[userID]
	b.mu.Unlock()
	if ok {
		return id, nil
	}

	ch, err := b.api.UserChannelCreate(userID)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	b.channels[userID] = ch.ID
	b.mu.Unlock()
	return ch.ID, nil
}

func (b *Bot) handleInteraction(i *discordgo.Interaction) {
	user := interactionUser(i)
	if user == nil {
		return
	}
	player := PlayerID(user.ID)

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch name := i.ApplicationCommandData().Name; name {
		case CommandMenu:
			b.reply(i, "Check your DMs.")
			b.host.OnJoin(player, user.Username)
		case CommandLeave:
			b.reply(i, "Menu closed.")
			b.host.OnQuit(player)
		default:
			b.reply(i, fmt.Sprintf("Unknown command: %s", name))
		}

	case discordgo.InteractionMessageComponent:
		// Acknowledge first; Discord fails interactions not answered within 3s.
		if err := b.api.InteractionRespond(i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		}); err != nil {
			b.logger.Debug("failed to ack button", "error", err)
		}
		line := i.MessageComponentData().CustomID
		if !b.host.OnCommand(player, line) {
			b.logger.Debug("button not handled", "player", player, "line", line)
		}
	}
}

func (b *Bot) reply(i *discordgo.Interaction, content string) {
	err := b.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Debug("failed to reply", "error", err)
	}
}

// handleMessage treats DM text as chat input. Guild messages and bots are
// ignored.
func (b *Bot) handleMessage(m *discordgo.Message) {
	if m.Author == nil || m.Author.Bot || m.GuildID != "" || m.Content == "" {
		return
	}
	b.mu.Lock()
	b.channels[m.Author.ID] = m.ChannelID
	b.mu.Unlock()

	b.host.OnChat(PlayerID(m.Author.ID), m.Content)
}

func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// SlashCommand defines a Discord slash command with options.
type SlashCommand struct {
	Name        string
	Description string
	Options     []*discordgo.ApplicationCommandOption
}

// toApplicationCommands converts SlashCommands to discordgo format.
func toApplicationCommands(cmds []SlashCommand) []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, len(cmds))
	for i, cmd := range cmds {
		out[i] = &discordgo.ApplicationCommand{
			Name:        cmd.Name,
			Description: cmd.Description,
			Options:     cmd.Options,
		}
	}
	return out
}

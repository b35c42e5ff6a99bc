package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rvald/chatgui/internal/chat"
)

// PlayerPrefix marks player IDs that belong to Discord users.
const PlayerPrefix = "discord:"

// PlayerID maps a Discord user to a chat player.
func PlayerID(userID string) chat.PlayerID {
	return chat.PlayerID(PlayerPrefix + userID)
}

// UserID returns the Discord user behind player, if any.
func UserID(player chat.PlayerID) (string, bool) {
	return strings.CutPrefix(string(player), PlayerPrefix)
}

// Host receives Discord user events. It matches gateway.Host so a single
// runtime can serve both.
type Host interface {
	OnJoin(player chat.PlayerID, name string)
	OnChat(player chat.PlayerID, text string) bool
	OnCommand(player chat.PlayerID, line string) bool
	OnQuit(player chat.PlayerID)
}

// API is the part of *discordgo.Session the bot calls after connecting.
type API interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

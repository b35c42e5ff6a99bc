package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rvald/chatgui/internal/app"
	"github.com/rvald/chatgui/internal/chat"
	"github.com/rvald/chatgui/internal/config"
	"github.com/rvald/chatgui/internal/discord"
	"github.com/rvald/chatgui/internal/discovery"
	"github.com/rvald/chatgui/internal/gateway"
	"github.com/rvald/chatgui/internal/invoke"
	"github.com/rvald/chatgui/internal/logfilter"
	"github.com/rvald/chatgui/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgPort         int
	cfgBind         string
	cfgAuthToken    string
	cfgDiscordToken string
	cfgGuildID      string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the chat server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("port") {
			cfg.Server.Port = cfgPort
		}
		if flags.Changed("bind") {
			cfg.Server.Bind = cfgBind
		}
		if flags.Changed("token") {
			cfg.Server.AuthToken = cfgAuthToken
		}
		if flags.Changed("discord-token") {
			cfg.Discord.Token = cfgDiscordToken
		}
		if flags.Changed("guild-id") {
			cfg.Discord.GuildID = cfgGuildID
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		filters := logfilter.NewManager()
		logger.Setup(cfg.StateDir, logger.ParseLevel(cfg.Log.Level), filters)

		return runServer(cfg, filters)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().IntVar(&cfgPort, "port", 0, "WebSocket server port")
	serverCmd.Flags().StringVar(&cfgBind, "bind", "", "Bind mode: loopback or lan")
	serverCmd.Flags().StringVar(&cfgAuthToken, "token", "", "Auth token players must present")
	serverCmd.Flags().StringVar(&cfgDiscordToken, "discord-token", "", "Discord bot token")
	serverCmd.Flags().StringVar(&cfgGuildID, "guild-id", "", "Discord guild ID")
}

func runServer(cfg config.Config, filters *logfilter.Manager) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Runtime. Transports are attached to the router as they come up.
	router := &chat.Router{}
	rt, err := app.New(app.Config{
		Invoker: invoke.Config{
			FallbackPrefix: cfg.Invoker.FallbackPrefix,
			Namespace:      cfg.Invoker.Namespace,
			Root:           cfg.Invoker.Root,
		},
		InputTimeout: cfg.Input.Timeout,
		Workers:      cfg.Scheduler.Workers,
		Filters:      filters,
	}, router)
	if err != nil {
		return fmt.Errorf("runtime init: %w", err)
	}

	// 2. WebSocket gateway
	gw := gateway.New(gateway.GatewayConfig{
		Port:         cfg.Server.Port,
		Bind:         cfg.Server.Bind,
		AuthToken:    cfg.Server.AuthToken,
		TickInterval: cfg.Server.TickInterval,
		ClickRate:    cfg.Server.ClickRate,
		ClickBurst:   cfg.Server.ClickBurst,
		Version:      version,
		Command:      rt.RootCommand(),
	}, rt)
	router.Fallback(gw)

	// 3. Discord Bot
	var bot *discord.Bot
	if cfg.Discord.Token != "" {
		bot, err = discord.NewBot(discord.BotConfig{
			Token:   cfg.Discord.Token,
			GuildID: cfg.Discord.GuildID,
		}, rt)
		if err != nil {
			return fmt.Errorf("discord init: %w", err)
		}
		if err := bot.Start(ctx); err != nil {
			slog.Warn("discord failed to connect", "error", err)
			bot = nil
		} else {
			router.Route(func(p chat.PlayerID) bool {
				_, ok := discord.UserID(p)
				return ok
			}, bot)
		}
	}

	// 4. Discovery (mDNS)
	var advertiser *discovery.Advertiser
	if cfg.Discovery.Enabled {
		advertiser, err = discovery.NewAdvertiser(discovery.Config{
			InstanceName: cfg.Discovery.DisplayName,
			Port:         cfg.Server.Port,
			Iface:        cfg.Discovery.Iface,
			Meta: discovery.Metadata{
				DisplayName: cfg.Discovery.DisplayName,
				Version:     version,
				Command:     rt.RootCommand(),
			},
		})
		if err == nil {
			err = advertiser.Start()
		}
		if err != nil {
			slog.Warn("mdns advertisement disabled", "error", err)
			advertiser = nil
		}
	}

	printBanner(cfg, bot != nil, advertiser != nil)

	runtimeDone := make(chan struct{})
	go func() {
		defer close(runtimeDone)
		rt.Run(ctx)
	}()

	go func() {
		<-ctx.Done()
		slog.Info("shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if bot != nil {
			bot.Stop()
		}
		if advertiser != nil {
			advertiser.Stop()
		}
		gw.Shutdown(shutdownCtx)
	}()

	err = gw.Run(ctx)
	cancel()
	<-runtimeDone
	return err
}

func printBanner(cfg config.Config, discordConnected, advertising bool) {
	bindAddr := "127.0.0.1"
	if cfg.Server.Bind == "lan" {
		bindAddr = "0.0.0.0"
	}
	authMode := "none"
	if cfg.Server.AuthToken != "" {
		authMode = "token"
	}
	discordStatus := "disabled"
	if discordConnected {
		discordStatus = "connected"
	}
	mdnsStatus := "disabled"
	if advertising {
		mdnsStatus = "enabled"
	}

	fmt.Printf("\n")
	fmt.Printf("  chatgui v%s\n", version)
	fmt.Printf("  ws://%s:%d/ws  auth=%s  bind=%s\n", bindAddr, cfg.Server.Port, authMode, cfg.Server.Bind)
	fmt.Printf("  discord: %s  mdns: %s\n", discordStatus, mdnsStatus)
	fmt.Printf("  state: %s\n", cfg.StateDir)
	fmt.Printf("  health: http://%s:%d/health\n", bindAddr, cfg.Server.Port)
	fmt.Printf("\n")
}

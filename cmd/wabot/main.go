package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"wabot/internal/bot"
	"wabot/internal/bus"
	"wabot/internal/command"
	"wabot/internal/config"
	"wabot/internal/console"
	"wabot/internal/directory"
	"wabot/internal/wa"
)

var (
	version    = "1.0.0"
	logger     *slog.Logger
	configPath string
)

func main() {
	// .env is optional; a missing file is the normal production case.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:     "wabot",
		Short:   "WhatsApp auto-responder and broadcast console",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "wabot.yaml", "path to the bot config file")

	root.AddCommand(runCmd())
	root.AddCommand(statusCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to WhatsApp and serve the operator console",
		RunE:  run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger = setupLogger(cfg.Bot.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue := bus.New(100, logger)
	defer queue.Close()

	store, err := directory.New(cfg.DB, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	session := wa.NewSession(cfg.Bot, queue, logger)
	interp := command.NewInterpreter(store, session, cfg.Bot.FilesRoot, cfg.Bot.GroupName, logger)

	loop := bot.NewLoop(bot.LoopConfig{
		Queue:       queue,
		Directory:   store,
		Interpreter: interp,
		Console:     os.Stdout,
		Bot:         cfg.Bot,
		Logger:      logger,
	})

	go loop.Run(ctx)
	go func() {
		if err := session.Run(ctx); err != nil {
			logger.Error("session supervisor exited", "error", err)
			stop()
		}
	}()

	// Console EOF does not stop the bot; inbound handling keeps running
	// until a signal arrives.
	reader := console.NewReader(console.Config{Queue: queue, Logger: logger})
	go func() {
		if err := reader.Run(ctx); err != nil {
			logger.Error("console reader exited", "error", err)
		}
	}()

	<-ctx.Done()
	return nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show config and probe the directory database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger = setupLogger(cfg.Bot.LogLevel)

			fmt.Printf("session store:  %s\n", cfg.Bot.SessionDBPath)
			fmt.Printf("files root:     %s\n", cfg.Bot.FilesRoot)
			fmt.Printf("broadcast name: %s\n", cfg.Bot.GroupName)
			fmt.Printf("auto reply:     %t\n", cfg.Bot.AutoReply)
			fmt.Printf("database:       %s@%s:%d/%s\n", cfg.DB.User, cfg.DB.Server, cfg.DB.Port, cfg.DB.Database)

			store, err := directory.New(cfg.DB, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				fmt.Printf("directory:      unreachable\n")
				return fmt.Errorf("directory unreachable: %w", err)
			}
			fmt.Println("directory:      ok")
			return nil
		},
	}
}

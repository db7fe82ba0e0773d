package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leobot/leo/telegram"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := buildApp(ctx)
			if err != nil {
				return err
			}
			if app.cfg.TelegramBotToken == "" {
				return fmt.Errorf("serve needs LEO_TELEGRAM_BOT_TOKEN")
			}

			if _, err := app.indexer.Index(ctx); err != nil {
				return fmt.Errorf("initial indexing: %w", err)
			}

			if app.cfg.IngestRefreshMinutes > 0 {
				go func() {
					if err := app.indexer.Refresh(ctx); err != nil && ctx.Err() == nil {
						app.logger.Error("indexer.stopped", "error", err)
					}
				}()
			}

			bot := telegram.NewBot(app.cfg.TelegramBotToken, app.engine, func(o *telegram.Options) {
				o.Logger = app.logger
			})

			app.logger.Info("bot.start")
			if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			app.logger.Info("bot.stop")
			return nil
		},
	}
}

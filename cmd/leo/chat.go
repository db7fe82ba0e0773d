package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

const chatUser = "console"

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with Leo on the console",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := buildApp(ctx)
			if err != nil {
				return err
			}

			if _, err := app.indexer.Index(ctx); err != nil {
				return fmt.Errorf("initial indexing: %w", err)
			}

			fmt.Println(app.engine.HandleCommand(ctx, chatUser, "/start"))
			fmt.Println("Type 'exit' to quit, /reset to clear the conversation.")

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return scanner.Err()
				}

				line := strings.TrimSpace(scanner.Text())
				switch {
				case line == "":
					continue
				case line == "exit" || line == "quit":
					return nil
				case strings.HasPrefix(line, "/"):
					fmt.Println(app.engine.HandleCommand(ctx, chatUser, line))
				default:
					fmt.Println(app.engine.HandleMessage(ctx, chatUser, line))
				}

				if ctx.Err() != nil {
					return nil
				}
			}
		},
	}
}

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leobot/leo/config"
)

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Complete the Google Calendar consent flow",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
				return fmt.Errorf("auth needs LEO_GOOGLE_CLIENT_ID and LEO_GOOGLE_CLIENT_SECRET")
			}

			auth := buildAuthenticator(cfg)

			fmt.Println("Open this URL in your browser and grant calendar access:")
			fmt.Println(auth.GrantURL())
			fmt.Print("Paste the authorization code: ")

			scanner := bufio.NewScanner(os.Stdin)
			if !scanner.Scan() {
				return scanner.Err()
			}
			code := strings.TrimSpace(scanner.Text())
			if code == "" {
				return fmt.Errorf("empty authorization code")
			}

			if err := auth.Exchange(cmd.Context(), code); err != nil {
				return err
			}

			fmt.Printf("Token saved to %s.\n", cfg.GoogleTokenFile)
			return nil
		},
	}
}

package main

import (
	"fmt"

	"github.com/dukerupert/cesta/internal/push"
	"github.com/spf13/cobra"
)

func vapidKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid-keys",
		Short: "Generate a VAPID key pair for push notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pub, priv, err := push.GenerateVAPIDKeys()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "push:")
			fmt.Fprintf(out, "  vapid_public_key: %s\n", pub)
			fmt.Fprintf(out, "  vapid_private_key: %s\n", priv)
			return nil
		},
	}
}

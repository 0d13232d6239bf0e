package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/saransh1220/careerpush/internal/shared/auth"
	"github.com/spf13/cobra"
)

func newTokenCmd(e *env) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed session token for a user of the dev server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id := uuid.New()
			if userID != "" {
				parsed, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("invalid user id %q: %w", userID, err)
				}
				id = parsed
			}

			token, err := auth.GenerateToken(e.cfg.JWT.Secret, e.cfg.JWT.Expiry, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id to embed (random when empty)")
	return cmd
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"filevault/internal/bootstrap"
	"filevault/internal/shared/config"
)

func newTokenCmd(load func() config.Config) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage bearer tokens",
	}

	var (
		subject string
		ttl     time.Duration
	)
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a bearer token for a subject",
		Long: `Sign an HS256 bearer token with JWT_SECRET.

Examples:
  # Token for a user, valid for one day
  vaultctl token issue --subject alice@example.com --ttl 24h

  # Administrator token without expiry
  vaultctl token issue --subject admin_statefree --ttl 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := bootstrap.NewValidator(load())
			if err != nil {
				return err
			}
			token, err := v.Issue(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issueCmd.Flags().StringVar(&subject, "subject", "", "token subject")
	issueCmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime; 0 disables expiry")
	_ = issueCmd.MarkFlagRequired("subject")
	tokenCmd.AddCommand(issueCmd)

	return tokenCmd
}

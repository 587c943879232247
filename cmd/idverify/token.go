package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"idverify/internal/middleware"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an operator token for the verification listing route",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, err := middleware.IssueOperatorToken([]byte(cfg.Server.OperatorSecret), tokenSubject, tokenTTL)
		if err != nil {
			return fmt.Errorf("%w (set server.operator_secret or IDVERIFY_SERVER_OPERATOR_SECRET)", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "operator", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}

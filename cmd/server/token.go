package main

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/warmersun/warmersun-api/internal/output"
	"github.com/warmersun/warmersun-api/internal/utils"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an AUTHORITY bearer token for the verify routes",
	Long: `Sign a token with AUTHORITY_JWT_SECRET that passes the verification gate.

Examples:
  server token --subject parks-office --ttl 720h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := os.Getenv("AUTHORITY_JWT_SECRET")
		if secret == "" {
			output.Error("AUTHORITY_JWT_SECRET is not set")
			return errors.New("missing AUTHORITY_JWT_SECRET")
		}
		tok, err := utils.NewAccessToken(secret, tokenSubject, utils.RoleAuthority, tokenTTL)
		if err != nil {
			return err
		}
		output.Success("token for %q expires %s", tokenSubject, tok.Exp.Format(time.RFC3339))
		output.Muted("%s", tok.Token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "authority", "who the token is issued to")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}

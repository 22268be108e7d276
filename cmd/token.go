package cmd

import (
	"errors"
	"fmt"
	"time"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/utils"

	"github.com/spf13/cobra"
)

var tokenOpts struct {
	tenant   string
	user     string
	role     string
	operator bool
	ttl      time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the admin API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tenant, role := tokenOpts.tenant, tokenOpts.role
		switch {
		case tokenOpts.operator && tenant != "":
			return errors.New("--operator tokens are not scoped to a tenant; drop --tenant")
		case tokenOpts.operator:
			role = model.RoleOperator
		case tenant == "":
			return errors.New("--tenant is required")
		case role == model.RoleOperator:
			return errors.New("tenant tokens cannot carry the operator role; use --operator")
		}
		secret := configuration.C.App.SecretKey
		if secret == "" {
			return errors.New("app secret key is not configured")
		}
		token, err := utils.GenerateTenantToken(tenant, tokenOpts.user, role, tokenOpts.ttl, secret)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenOpts.tenant, "tenant", "", "Tenant the token is scoped to")
	tokenCmd.Flags().StringVar(&tokenOpts.user, "user", "operator", "User id recorded in the token")
	tokenCmd.Flags().StringVar(&tokenOpts.role, "role", model.RoleAdmin, "Role claim for tenant tokens")
	tokenCmd.Flags().BoolVar(&tokenOpts.operator, "operator", false, "Mint a tenantless operator token for queue controls")
	tokenCmd.Flags().DurationVar(&tokenOpts.ttl, "ttl", 24*time.Hour, "Token lifetime")
	rootCmd.AddCommand(tokenCmd)
}

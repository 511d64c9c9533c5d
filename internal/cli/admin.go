package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devaloi/agora/internal/auth"
	"github.com/devaloi/agora/internal/service"
	"github.com/devaloi/agora/internal/store"
)

func createAdminCmd(cfgPath *string) *cobra.Command {
	var in service.RegisterInput

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			s, err := store.NewSQLite(cfg.DBPath)
			if err != nil {
				return err
			}
			defer s.Close()

			users := service.NewUserService(s, auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL))
			u, err := users.CreateAdmin(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin created: id=%s username=%s\n", u.ID, u.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Username, "username", "", "admin username")
	cmd.Flags().StringVar(&in.Email, "email", "", "admin email")
	cmd.Flags().StringVar(&in.Password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

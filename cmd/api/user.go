package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"belajar-todo/internal/config"
	"belajar-todo/internal/repository"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserCreateCmd())
	return cmd
}

// newUserCreateCmd membuat user lewat jalur register yang sama dengan API,
// jadi validasi dan hashing password tetap berlaku.
func newUserCreateCmd() *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, db, cleanup, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := repository.CreateTableIfNotExists(ctx, db); err != nil {
				return err
			}
			deps, err := config.FromConfig(cfg, db, nil)
			if err != nil {
				return err
			}
			res, err := deps.Auth.Register(ctx, username, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User '%s' is created with id %d.\n", res.User.Username, res.User.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (min 6 characters)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

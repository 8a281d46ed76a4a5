package main

import (
	"context"
	"fmt"
	"time"

	"go-firestore-estate/internal/auth"
	"go-firestore-estate/internal/bootstrap"
	"go-firestore-estate/internal/model"

	"github.com/spf13/cobra"
)

var (
	promoteEmail string
	promoteRole  string

	signInEmail    string
	signInPassword string
	signInTimeout  time.Duration
)

var promoteCmd = &cobra.Command{
	Use:   "promote <uid>",
	Short: "Set the role of a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if promoteRole != model.RoleAdmin && promoteRole != model.RoleUser {
			return fmt.Errorf("unknown role %q", promoteRole)
		}
		if err := current.users.SetRole(cmd.Context(), args[0], promoteEmail, promoteRole); err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", args[0], promoteRole)
		return nil
	},
}

var signInCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in and report the resolved access of the account",
	RunE:  runSignIn,
}

func init() {
	promoteCmd.Flags().StringVar(&promoteEmail, "email", "", "email stored next to the role")
	promoteCmd.Flags().StringVar(&promoteRole, "role", model.RoleAdmin, "role: admin or user")

	signInCmd.Flags().StringVar(&signInEmail, "email", "", "account email")
	signInCmd.Flags().StringVar(&signInPassword, "password", "", "account password")
	signInCmd.Flags().DurationVar(&signInTimeout, "timeout", 10*time.Second, "how long to wait for the role")
	_ = signInCmd.MarkFlagRequired("email")
	_ = signInCmd.MarkFlagRequired("password")
}

func runSignIn(cmd *cobra.Command, args []string) error {
	signer := bootstrap.NewSigner(cmd.Context(), current.cnf)
	if signer == nil {
		return fmt.Errorf("sign-in needs FIREBASE_WEB_API_KEY")
	}

	provider := auth.NewProvider(signer, current.backend.TokenAdmin())
	gate := auth.NewGate(provider, current.users)
	gate.Start(cmd.Context())
	defer gate.Close()

	if _, err := provider.SignIn(cmd.Context(), signInEmail, signInPassword); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), signInTimeout)
	defer cancel()

	state, err := gate.Await(ctx, auth.State.Resolved)
	if err != nil {
		return err
	}

	fmt.Printf("uid:    %s\n", state.Identity.UID)
	fmt.Printf("email:  %s\n", state.Identity.Email)
	fmt.Printf("role:   %s\n", state.Role)
	fmt.Printf("access: %s\n", state.Access())
	if state.RoleError != "" {
		fmt.Printf("role lookup failed: %s\n", state.RoleError)
	}
	fmt.Printf("token:  %s\n", state.Identity.IDToken)
	return nil
}

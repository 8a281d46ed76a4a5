package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-firestore-estate/internal/bootstrap"
	"go-firestore-estate/internal/config"
	"go-firestore-estate/internal/normalize"
	propertyRepository "go-firestore-estate/internal/repository/property"
	userRepository "go-firestore-estate/internal/repository/user"
	visitorStatsRepository "go-firestore-estate/internal/repository/visitorstats"

	"github.com/spf13/cobra"
)

// env is built once per invocation by the root command.
type env struct {
	cnf        config.Config
	backend    bootstrap.Backend
	properties propertyRepository.PropertyRepository
	users      userRepository.UserRepository
	stats      visitorStatsRepository.VisitorStatsRepository
}

var current *env

var rootCmd = &cobra.Command{
	Use:           "estatectl",
	Short:         "Administer the property listing backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cnf := config.LoadConfigOrPanic()
		bootstrap.ConfigureLogging(cnf)

		backend := bootstrap.OpenOrPanic(cmd.Context(), cnf)
		current = &env{
			cnf:        cnf,
			backend:    backend,
			properties: propertyRepository.New(backend.DB, normalize.New(cnf.Listing.PlaceholderUrl)),
			users:      userRepository.New(backend.DB),
			stats:      visitorStatsRepository.New(backend.DB),
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if current != nil {
			current.backend.Close()
		}
	},
}

func init() {
	rootCmd.AddCommand(
		importCmd,
		exportCmd,
		deleteCmd,
		watchCmd,
		migrateCmd,
		seedDemoCmd,
		reconcileCmd,
		cleanupLegacyCmd,
		promoteCmd,
		signInCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

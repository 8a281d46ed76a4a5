package main

import (
	"fmt"
	"math/rand"
	"time"

	"go-firestore-estate/internal/visitors"

	"github.com/spf13/cobra"
)

var demoSeed int64

var migrateCmd = &cobra.Command{
	Use:   "migrate-visitors",
	Short: "Move the legacy visitor counter to the global and daily records",
	Long: `Overwrite visitorStats/global with the legacy counter (page views estimated as
floor(count * 1.5)) and reset today's daily record. Without a legacy counter the global
record starts at zero. Visits recorded since an earlier run are overwritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := visitors.NewMigrator(current.stats, false).Migrate(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("migrated (legacy: %t) uniqueVisitors=%d pageViews=%d\n",
			result.FromLegacy, result.Global.UniqueVisitors, result.Global.PageViews)
		return nil
	},
}

var seedDemoCmd = &cobra.Command{
	Use:   "seed-demo-stats",
	Short: "Write a week of synthetic daily visitor records",
	RunE: func(cmd *cobra.Command, args []string) error {
		if demoSeed == 0 {
			demoSeed = time.Now().UnixNano()
		}

		stats, err := visitors.NewMigrator(current.stats, false).InitDemoData(cmd.Context(), rand.New(rand.NewSource(demoSeed)))
		if err != nil {
			return err
		}
		fmt.Printf("seeded %d days, uniqueVisitors=%d pageViews=%d\n",
			visitors.DemoDays, stats.UniqueVisitors, stats.PageViews)
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile-stats",
	Short: "Recompute the global visitor counters from the daily records",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := visitors.NewMigrator(current.stats, false).Reconcile(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("reconciled over %d days, uniqueVisitors=%d pageViews=%d\n",
			len(stats.DailyStats), stats.UniqueVisitors, stats.PageViews)
		return nil
	},
}

var cleanupLegacyCmd = &cobra.Command{
	Use:   "cleanup-legacy",
	Short: "Delete the legacy visitor counter",
	Long:  `Delete stats/visitorCount without a backup. Refused unless ALLOW_LEGACY_CLEANUP=true.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := visitors.NewMigrator(current.stats, current.cnf.Visitors.AllowLegacyCleanup)
		if err := m.CleanupLegacy(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("legacy visitor counter deleted")
		return nil
	},
}

func init() {
	seedDemoCmd.Flags().Int64Var(&demoSeed, "seed", 0, "random seed (default: current time)")
}

package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/darkcaves/dragonites/pkg/models"
	"github.com/darkcaves/dragonites/pkg/resolver"
)

func parseDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	return d, nil
}

func printSummary(s models.BulkSummary) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tREQUESTED\tLOADED\tSKIPPED\tFAILED\tCOMPLETE")
	fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%t\n", s.RunID, s.Requested, s.Loaded, s.Skipped, s.Failed, s.Complete)
	if err := w.Flush(); err != nil {
		return err
	}
	if len(s.FailedIDs) > 0 {
		fmt.Printf("Failed ids: %v\n", s.FailedIDs)
	}
	return nil
}

// bulkResult prints whatever progress was made before returning err.
func bulkResult(s models.BulkSummary, err error) error {
	if perr := printSummary(s); perr != nil {
		return perr
	}
	if err != nil {
		return fmt.Errorf("bulk load interrupted: %w", err)
	}
	return nil
}

func newInitCmd(configPath *string) *cobra.Command {
	var generation int

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Load every creature through a generation into the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			if generation < 1 || generation > 5 {
				return errors.New("generation must be between 1 and 5")
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Printf("Loading generation %d (ids 1-%d)...\n", generation, resolver.GenerationCeiling(generation))
			return bulkResult(a.resolver.Initialize(cmd.Context(), generation))
		},
	}
	cmd.Flags().IntVar(&generation, "generation", 1, "generation 1-5")
	return cmd
}

func newEnsureCmd(configPath *string) *cobra.Command {
	var maxID int

	cmd := &cobra.Command{
		Use:   "ensure",
		Short: "Make sure the cache holds at least max-id creatures",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			return bulkResult(a.resolver.EnsureInitialized(cmd.Context(), maxID))
		},
	}
	cmd.Flags().IntVar(&maxID, "max-id", resolver.DefaultNationalDex, "highest national dex id to load")
	return cmd
}

func newCacheCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the creature cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.resolver.Stats(cmd.Context())
			if err != nil {
				return err
			}
			last := "never"
			if !stats.LastUpdated.IsZero() {
				last = stats.LastUpdated.Local().Format("2006-01-02T15:04:05")
			}
			fmt.Printf("Entries:      %d\nLast updated: %s\nTTL:          %s\n", stats.Entries, last, a.resolver.TTL())
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a cached entry and its age without fetching",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			entry, ok := a.store.Entry(cmd.Context(), id)
			if !ok {
				fmt.Printf("Creature %d is not cached.\n", id)
				return nil
			}
			fresh := a.store.IsValid(cmd.Context(), id, a.resolver.TTL())
			fmt.Printf("ID:           %d\nName:         %s\nLast updated: %s\nFresh:        %t\n",
				entry.ID, entry.Name, entry.LastUpdated.Local().Format("2006-01-02T15:04:05"), fresh)
			return nil
		},
	}

	var expiredOnly bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if expiredOnly {
				n, err := a.resolver.ClearExpired(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("Removed %d expired cache entries.\n", n)
				return nil
			}
			if err := a.resolver.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("All cache entries cleared.")
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&expiredOnly, "expired", false, "only clear expired entries")

	cmd.AddCommand(statsCmd, showCmd, clearCmd)
	return cmd
}

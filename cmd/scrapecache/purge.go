package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/scrapekit/scrapekit/cache"
)

var olderThan string

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove entries older than a staleness spec",
	Long: `Remove cached entries older than the given staleness spec, for
example "2 hours" or "1 week". The cache itself never deletes
historical entries; retention is this command's job.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		staleness, err := cache.ParseStaleness(olderThan)
		if err != nil {
			return err
		}
		if staleness.Unbounded() {
			return fmt.Errorf("refusing to purge with an unbounded spec %q", olderThan)
		}

		store, err := cache.NewStore(cacheDir, false)
		if err != nil {
			return err
		}

		cutoff := time.Now().Add(-staleness.Duration())
		removed, err := store.PurgeOlderThan(cutoff)
		if err != nil {
			return err
		}

		log.Info("purge complete", "dir", store.Root(), "removed", removed)
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries older than %s\n", removed, staleness)
		return nil
	},
}

func init() {
	purgeCmd.Flags().StringVar(&olderThan, "older-than", "1 week", "staleness spec for the purge cutoff")
}

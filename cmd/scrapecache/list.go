package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/scrapekit/scrapekit/cache"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached entries grouped by call",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := cache.NewStore(cacheDir, false)
		if err != nil {
			return err
		}

		inv, err := store.Inventory()
		if err != nil {
			return err
		}
		if len(inv) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no entries under %s\n", store.Root())
			return nil
		}

		hashes := make([]string, 0, len(inv))
		for h := range inv {
			hashes = append(hashes, h)
		}
		sort.Strings(hashes)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CALL\tENTRIES\tLATEST\tSIZE")
		for _, h := range hashes {
			entries := inv[h]
			latest := entries[len(entries)-1]

			var size int64
			for _, e := range entries {
				size += e.Size
			}

			call := string(latest.Key)
			if call == "" {
				call = h
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
				call,
				len(entries),
				humanize.Time(latest.CreatedAt),
				humanize.IBytes(uint64(size)),
			)
		}
		return w.Flush()
	},
}

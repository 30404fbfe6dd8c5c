package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/panbanda/wcc/internal/cache"
	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the complexity cache",
	}
	cmd.PersistentFlags().StringP("project", "p", ".", "Project root the cache directory is relative to")
	cmd.AddCommand(newCacheStatsCmd())
	cmd.AddCommand(newCacheClearCmd())
	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number and size of cached entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, dir, err := openCache(cmd)
			if err != nil {
				return err
			}
			return runCacheStats(store, dir, cmd.OutOrStdout())
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, dir, err := openCache(cmd)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Cleared %s", dir))
			return nil
		},
	}
}

// openCache opens the cache configured for the selected project. The cache
// is opened even when disabled in the configuration so stale entries can
// still be inspected and removed.
func openCache(cmd *cobra.Command) (*cache.Cache, string, error) {
	path, _ := cmd.Flags().GetString("config")
	project, _ := cmd.Flags().GetString("project")

	loaded, err := loadConfig(path)
	if err != nil {
		return nil, "", err
	}
	dir, err := loaded.Config.Cache.Path(project)
	if err != nil {
		return nil, "", err
	}
	store, err := cache.New(dir, 0, true)
	if err != nil {
		return nil, "", fmt.Errorf("opening cache: %w", err)
	}
	return store, dir, nil
}

func runCacheStats(store *cache.Cache, dir string, w io.Writer) error {
	stats, err := store.GetStats()
	if err != nil {
		return fmt.Errorf("reading cache: %w", err)
	}
	fmt.Fprintf(w, "Directory: %s\n", dir)
	fmt.Fprintf(w, "Entries:   %d\n", stats.Entries)
	fmt.Fprintf(w, "Size:      %d bytes\n", stats.TotalSize)
	return nil
}

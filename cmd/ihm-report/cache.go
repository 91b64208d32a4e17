// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ihm-report/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or empty the metrics cache",
	Long: `Cache manages the SQLite metrics cache in --cache-root. Records are keyed
by entry, metric kind and a digest of the input files, so stale records are
never served; clear removes them to reclaim space.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlags(cmd.InheritedFlags())
	},
}

// --- list subcommand ---

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached metric records",
	RunE:  runCacheList,
}

func runCacheList(cmd *cobra.Command, args []string) error {
	store, err := openCache()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(context.Background())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("Cache is empty.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-20s  %-16s  %-12s  %8s  %s\n", "Entry", "Kind", "Digest", "Bytes", "Stored")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
	for _, e := range entries {
		digest := e.Digest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		fmt.Fprintf(os.Stdout, "%-20s  %-16s  %-12s  %8d  %s\n",
			e.EntryID, e.Kind, digest, e.Size, e.StoredAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// --- clear subcommand ---

var cacheClearCmd = &cobra.Command{
	Use:   "clear [entry-id]",
	Short: "Remove cached records for one entry, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	store, err := openCache()
	if err != nil {
		return err
	}
	defer store.Close()

	entryID := ""
	if len(args) == 1 {
		entryID = args[0]
	}
	n, err := store.Clear(context.Background(), entryID)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d cached record(s)\n", n)
	return nil
}

func openCache() (*cache.Store, error) {
	root := viper.GetString("cache-root")
	if root == "" {
		return nil, fmt.Errorf("no cache directory: use --cache-root")
	}
	return cache.Open(root)
}

func init() {
	cacheListCmd.Flags().Bool("json", false, "output records as JSON")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

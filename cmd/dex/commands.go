package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/dex/internal/app"
	"github.com/five82/dex/internal/catalog"
	"github.com/five82/dex/internal/mcpserver"
	"github.com/five82/dex/internal/pokeapi"
	"github.com/five82/dex/internal/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type rootFlags struct {
	config  string
	prefs   string
	offline bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "dex",
		Short: "Offline-resilient Pokédex browser",
		Long: `dex browses the PokéAPI catalog page by page, searches base forms by name,
and keeps the last viewed page on disk so it still works without a network.

Examples:
  dex                       # Open the TUI
  dex --offline             # Open the TUI pinned to cached data
  dex page 3                # Print page 3
  dex search char           # Print base forms matching "char"
  dex snapshot show         # Print the cached snapshot
  dex serve --addr :8787    # Serve the HTTP API
  dex mcp                   # Serve MCP tools over stdio`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), app.Options{
				ConfigPath: flags.config,
				PrefsPath:  flags.prefs,
				Offline:    flags.offline,
			})
		},
	}

	root.PersistentFlags().StringVar(&flags.config, "config", "", "config file path (default $DEX_CONFIG or ~/.config/dex/config.toml)")
	root.PersistentFlags().BoolVar(&flags.offline, "offline", false, "start offline and serve cached data only")
	root.Flags().StringVar(&flags.prefs, "prefs", "", "prefs file path (default ~/.config/dex/prefs.toml)")

	root.AddGroup(
		&cobra.Group{ID: "browse", Title: "Browse Commands:"},
		&cobra.Group{ID: "serve", Title: "Server Commands:"},
	)
	root.AddCommand(
		newPageCmd(flags),
		newSearchCmd(flags),
		newSnapshotCmd(flags),
		newServeCmd(flags),
		newMCPCmd(flags),
	)
	return root
}

// openHeadless opens the runtime with logs on the command's stderr.
func openHeadless(cmd *cobra.Command, flags *rootFlags) (*app.Env, error) {
	return app.Open(cmd.Context(), app.Options{
		ConfigPath: flags.config,
		Offline:    flags.offline,
		LogOutput:  cmd.ErrOrStderr(),
	})
}

func newPageCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "page N",
		Short:   "Print one catalog page",
		GroupID: "browse",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid page %q", args[0])
			}
			env, err := openHeadless(cmd, flags)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := cmd.Context()
			env.Browser.LoadOffline(ctx)
			out := env.Browser.FetchPage(ctx, n)
			if errors.Is(out.Err, catalog.ErrPageRange) {
				return out.Err
			}
			if out.Err != nil && !out.Degraded {
				return errors.New(catalog.MessageFailed)
			}
			if out.Degraded {
				fmt.Fprintln(cmd.ErrOrStderr(), catalog.MessageDegraded)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out.Records)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d/%d (%s)\n", n, env.Browser.TotalPages(), out.Source)
			printRecords(cmd.OutOrStdout(), out.Records)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	return cmd
}

func newSearchCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "search QUERY",
		Short:   "Search base forms by name",
		GroupID: "browse",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openHeadless(cmd, flags)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := cmd.Context()
			env.Browser.LoadOffline(ctx)
			out := env.Browser.Search(ctx, strings.Join(args, " "))
			if out.Err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Search ran on cached data.")
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out.Records)
			}
			if len(out.Records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No Pokémon match. Tip: only base forms are shown.")
				return nil
			}
			printRecords(cmd.OutOrStdout(), out.Records)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	return cmd
}

func newSnapshotCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshot",
		Short:   "Inspect or clear the offline snapshot",
		GroupID: "browse",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the cached snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags.offline = true
			env, err := openHeadless(cmd, flags)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := cmd.Context()
			info, err := env.Snapshots.Info(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if info.Records == 0 {
				fmt.Fprintln(w, "Offline: no cached data yet")
				return nil
			}
			fmt.Fprintf(w, "%d records, %d bytes (%s), updated %s\n",
				info.Records, info.Bytes, info.Encoding, info.UpdatedAt.Local().Format(time.DateTime))
			printRecords(w, env.Snapshots.Load(ctx))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the cached snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags.offline = true
			env, err := openHeadless(cmd, flags)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.Snapshots.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Snapshot cleared.")
			return nil
		},
	})
	return cmd
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the HTTP API with a live event stream",
		GroupID: "serve",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openHeadless(cmd, flags)
			if err != nil {
				return err
			}
			defer env.Close()

			env.Browser.Start(1)
			srv := server.New(env.Browser, env.Store, env.Logger)
			return srv.Serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8787", "listen address")
	return cmd
}

func newMCPCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "mcp",
		Short:   "Serve MCP tools over stdio",
		GroupID: "serve",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openHeadless(cmd, flags)
			if err != nil {
				return err
			}
			defer env.Close()

			return mcpserver.New(env.Browser, env.Snapshots, env.Logger).ServeStdio()
		},
	}
}

func printRecords(w io.Writer, records []pokeapi.Record) {
	for _, rec := range records {
		fmt.Fprintf(w, "%-6s %-16s %s\n", rec.DisplayID(), rec.DisplayName(), strings.Join(rec.Categories(), "/"))
	}
}

func writeJSON(w io.Writer, records []pokeapi.Record) error {
	if records == nil {
		records = []pokeapi.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/go-finder/internal/mcpserver"
	"github.com/petar-djukic/go-finder/internal/report"
	"github.com/petar-djukic/go-finder/pkg/finder"
	"github.com/petar-djukic/go-finder/pkg/types"
)

// newQueryCmd creates a find-usages command. references selects between
// reporting references or only definitions.
func newQueryCmd(use, short string, references bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, references)
		},
	}

	cmd.Flags().StringP("file", "f", "", "File containing the cursor (required)")
	cmd.Flags().IntP("line", "l", 0, "1-based line of the cursor")
	cmd.Flags().IntP("col", "c", 1, "1-based byte column of the cursor")
	cmd.Flags().IntP("offset", "o", -1, "0-based byte offset of the cursor (instead of --line)")
	cmd.Flags().String("format", "text", "Output format: text or json")
	cmd.Flags().Bool("color", false, "Colorize text output (default: when stdout is a terminal)")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagsMutuallyExclusive("line", "offset")

	return cmd
}

// runQuery executes one find-usages query and prints the result.
func runQuery(cmd *cobra.Command, references bool) error {
	file, _ := cmd.Flags().GetString("file")
	line, _ := cmd.Flags().GetInt("line")
	col, _ := cmd.Flags().GetInt("col")
	offset, _ := cmd.Flags().GetInt("offset")
	format, _ := cmd.Flags().GetString("format")
	if !cmd.Flags().Changed("format") && viper.IsSet("format") {
		format = viper.GetString("format")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	f, err := finder.New(ctx, configFromViper())
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	if line > 0 {
		if offset, err = f.Offset(ctx, file, line, col); err != nil {
			return err
		}
	} else if offset < 0 {
		return fmt.Errorf("either --line or --offset is required")
	}

	switch format {
	case "json":
		lsp := report.NewLSP(f.ReadText)
		result, err := find(ctx, f, file, offset, lsp, references)
		if err != nil {
			return err
		}
		return printJSON(mcpserver.Response{
			Result:      result,
			Definitions: lsp.Definitions(),
			References:  lsp.References(),
		})
	case "text":
		colored := isatty.IsTerminal(os.Stdout.Fd())
		switch {
		case cmd.Flags().Changed("color"):
			colored, _ = cmd.Flags().GetBool("color")
		case viper.IsSet("color"):
			colored = viper.GetBool("color")
		}
		result, err := find(ctx, f, file, offset, report.NewPrinter(os.Stdout, f.Root(), colored), references)
		if err != nil {
			return err
		}
		if result.Outcome != "completed" {
			fmt.Fprintf(os.Stderr, "%s\n", result.Outcome)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func find(ctx context.Context, f finder.Finder, file string, offset int, r types.Reporter, references bool) (*finder.Result, error) {
	if references {
		return f.FindReferences(ctx, file, offset, r)
	}
	return f.FindImplementations(ctx, file, offset, r)
}

// newServeCmd creates the "serve" command.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve find-usages tools over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			f, err := finder.New(ctx, configFromViper())
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}

			s := mcpserver.New(mcpserver.NewHandler(f, slog.Default()), version)
			slog.Info("go-finder MCP server starting", "root", f.Root())
			return server.ServeStdio(s)
		},
	}
}

func configFromViper() finder.Config {
	return finder.Config{
		WorkDir:      viper.GetString("workdir"),
		Manifest:     viper.GetString("manifest"),
		Discovery:    finder.Discovery(viper.GetString("discovery")),
		IncludeTests: viper.GetBool("include-tests"),
		Concurrency:  viper.GetInt("concurrency"),
		Logger:       slog.Default(),
	}
}

// printJSON outputs v as JSON to stdout.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

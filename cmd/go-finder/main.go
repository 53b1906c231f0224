// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command go-finder finds every usage of a Go symbol across a workspace.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "go-finder",
		Short: "Find usages of Go symbols",
		Long:  "go-finder resolves the symbol under a cursor and reports its definitions and every reference to it across all packages of a workspace.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(viper.GetString("log-level"))
		},
		SilenceUsage: true,
	}

	// Global flags.
	rootCmd.PersistentFlags().String("workdir", ".", "Workspace root directory")
	rootCmd.PersistentFlags().String("manifest", "", "YAML manifest declaring the workspace modules")
	rootCmd.PersistentFlags().String("discovery", "dirs", "Module discovery: dirs or packages")
	rootCmd.PersistentFlags().Bool("include-tests", true, "Register test packages as modules")
	rootCmd.PersistentFlags().Int("concurrency", 0, "Parallelism limit (0 = number of CPUs)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")

	// Bind flags to viper.
	for _, name := range []string{"workdir", "manifest", "discovery", "include-tests", "concurrency", "log-level"} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	// Env vars: GO_FINDER_WORKDIR, GO_FINDER_LOG_LEVEL, etc.
	viper.SetEnvPrefix("GO_FINDER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Config file.
	viper.SetConfigName(".go-finder")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.ReadInConfig() // Ignore error; config file is optional.

	// Add commands.
	rootCmd.AddCommand(newQueryCmd("refs", "Find references to the symbol at a position", true))
	rootCmd.AddCommand(newQueryCmd("impls", "Find the definitions of the symbol at a position", false))
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging installs a text slog handler on stderr at level.
func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log-level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print go-finder version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("go-finder %s\n", version)
		},
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the circuitshare CLI, the artifact
// core behind the circuit-snippet sharing site. The web layer handles
// pages, auth, and uploads; each operation on the artifact itself is a
// subcommand here: inspect, convert, publish, audit, and repair.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/circuitshare/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the circuitshare CLI.
var rootCmd = &cobra.Command{
	Use:   "circuitshare",
	Short: "Parse, normalize, and publish circuit schematic snippets",
	Long: `circuitshare turns hand-pasted excerpts of parenthesized schematic
descriptions into validated, normalized, versioned artifacts. It keeps the
object store and the relational version record consistent under concurrent
writers.

Each operation is a subcommand: inspect parses and summarizes a document,
convert moves it between fragment and complete form, publish allocates a
version and writes variants to storage, and audit/repair verify and rebuild
stored copies.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./circuitshare.yaml or ~/.config/circuitshare/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("circuitshare")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "circuitshare"))
		}
	}

	viper.SetEnvPrefix("CIRCUITSHARE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

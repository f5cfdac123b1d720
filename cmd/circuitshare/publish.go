// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/circuitshare/internal/sexpr"
	"github.com/pdiddy/circuitshare/pkg/types"
)

var publishCmd = &cobra.Command{
	Use:   "publish [id] [file]",
	Short: "Publish a document as the next version of an id",
	Long: `Publish allocates the next version number for a document id through
the optimistic-concurrency protocol, writes the document bytes (and any
extra variants given with --variant) to the object store under that
version, and records the new URLs in the database.

The primary bytes must parse; a malformed document is rejected before any
version is allocated.`,
	Args: cobra.ExactArgs(2),
	RunE: runPublish,
}

func runPublish(cmd *cobra.Command, args []string) error {
	id, path := args[0], args[1]

	primary, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if _, err := sexpr.Parse(primary); err != nil {
		return fmt.Errorf("refusing to publish %s: %w", path, err)
	}

	variants := map[types.Variant][]byte{types.VariantPrimary: primary}

	extra, _ := cmd.Flags().GetStringSlice("variant")
	for _, spec := range extra {
		name, file, ok := strings.Cut(spec, "=")
		if !ok {
			return fmt.Errorf("invalid --variant %q: expected name=path", spec)
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading variant %s: %w", name, err)
		}
		variants[types.Variant(name)] = data
	}

	cfg := pipelineConfig()
	publisher, closeDB, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	version, err := publisher.Publish(context.Background(), id, variants)
	if err != nil {
		return err
	}

	fmt.Printf("%s is now at version %d (%d variant(s))\n", id, version, len(variants))
	return nil
}

func init() {
	publishCmd.Flags().StringSlice("variant", nil, "extra variant as name=path (repeatable)")

	rootCmd.AddCommand(publishCmd)
}

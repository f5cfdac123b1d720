// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/circuitshare/internal/integrity"
	"github.com/pdiddy/circuitshare/internal/objstore"
	"github.com/pdiddy/circuitshare/pkg/types"
)

var auditCmd = &cobra.Command{
	Use:   "audit [id]",
	Short: "Check a stored document's structural integrity",
	Long: `Audit fetches the latest stored primary bytes for a document id, runs
the balance scan over them and over the authoritative source given with
--source, and reports whether the stored copy is corrupted and whether it
can be repaired. Auditing never modifies anything.`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

var repairCmd = &cobra.Command{
	Use:   "repair [id]",
	Short: "Rebuild a corrupted stored document from source bytes",
	Long: `Repair re-derives the document from the --source bytes through the
full transform pipeline and publishes the result as a new version. The
corrupted bytes are never patched in place. A source that is itself
corrupted is reported and left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runRepair,
}

func runAudit(cmd *cobra.Command, args []string) error {
	id := args[0]

	source, err := readSourceFlag(cmd)
	if err != nil {
		return err
	}

	cfg := pipelineConfig()
	objects, err := openObjectStore(cfg.ObjectStore)
	if err != nil {
		return err
	}

	stored, err := latestStoredPrimary(context.Background(), objects, objstore.StrategyFor(cfg.ObjectStore), id)
	if err != nil {
		return err
	}

	report := integrity.Audit(id, stored, source)

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml", "":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(report)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
}

func runRepair(cmd *cobra.Command, args []string) error {
	id := args[0]

	source, err := readSourceFlag(cmd)
	if err != nil {
		return err
	}

	cfg := pipelineConfig()
	publisher, closeDB, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	version, err := integrity.NewRepairer(publisher).Repair(context.Background(), id, source)
	if err != nil {
		return err
	}

	fmt.Printf("repaired %s: republished as version %d\n", id, version)
	return nil
}

func readSourceFlag(cmd *cobra.Command) ([]byte, error) {
	path, _ := cmd.Flags().GetString("source")
	if path == "" {
		return nil, fmt.Errorf("--source is required: the authoritative source bytes")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	return data, nil
}

// latestStoredPrimary fetches the primary variant bytes at the highest
// version present in storage for id. Under a flat key layout there is
// only one primary key per id.
func latestStoredPrimary(ctx context.Context, objects objstore.Store, keys objstore.KeyStrategy, id string) ([]byte, error) {
	listed, err := objects.List(ctx, keys.Prefix(id))
	if err != nil {
		return nil, fmt.Errorf("listing stored objects for %s: %w", id, err)
	}

	highest := 0
	for _, key := range listed {
		if v, ok := keys.Version(key); ok && v > highest {
			highest = v
		}
	}

	return objects.Get(ctx, keys.Key(id, highest, types.VariantPrimary))
}

func init() {
	for _, c := range []*cobra.Command{auditCmd, repairCmd} {
		c.Flags().String("source", "", "file holding the authoritative source bytes")
	}
	auditCmd.Flags().String("format", "yaml", "report format: yaml or json")

	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(repairCmd)
}

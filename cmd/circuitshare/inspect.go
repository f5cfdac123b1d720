// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/circuitshare/internal/schematic"
	"github.com/pdiddy/circuitshare/internal/sexpr"
	"github.com/pdiddy/circuitshare/internal/transform"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Parse a schematic document and summarize its contents",
	Long: `Inspect parses a document (or a pasted fragment) and prints its
classification, component list, wire and net counts, bounding geometry,
footprint-assignment ratio, and the paper size the drawing would need.
Malformed input is reported, never silently recovered.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

// inspectReport is the printable inspection result.
type inspectReport struct {
	File           string              `json:"file" yaml:"file"`
	Class          transform.Class     `json:"class" yaml:"class"`
	Summary        schematic.Summary   `json:"summary" yaml:"summary"`
	SuggestedPaper transform.PaperSize `json:"suggested_paper" yaml:"suggested_paper"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	doc, err := sexpr.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	summary := schematic.Extract(doc)
	report := inspectReport{
		File:           args[0],
		Class:          transform.Classify(doc),
		Summary:        summary,
		SuggestedPaper: transform.SelectPaperSize(summary.Bounds),
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(report)
	case "text", "":
		printInspectText(report)
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use text, json, or yaml", format)
	}
}

func printInspectText(r inspectReport) {
	fmt.Printf("%s: %s document\n", r.File, r.Class)
	fmt.Printf("components: %d  wires: %d  nets: %d\n",
		len(r.Summary.Components), r.Summary.WireCount, r.Summary.NetCount)
	fmt.Printf("footprints assigned: %.0f%%\n", r.Summary.FootprintRatio*100)
	fmt.Printf("extent: %.1f x %.1f  suggested paper: %s\n",
		r.Summary.Bounds.Width(), r.Summary.Bounds.Height(), r.SuggestedPaper)

	for _, c := range r.Summary.Components {
		footprint := c.Footprint
		if footprint == "" {
			footprint = "-"
		}
		fmt.Printf("  %-8s %-12s %s\n", c.Reference, c.Value, footprint)
	}
}

func init() {
	inspectCmd.Flags().String("format", "text", "output format: text, json, or yaml")

	rootCmd.AddCommand(inspectCmd)
}

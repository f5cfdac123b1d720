// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/circuitshare/internal/schematic"
	"github.com/pdiddy/circuitshare/internal/sexpr"
	"github.com/pdiddy/circuitshare/internal/transform"
)

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert a document between fragment and complete form",
	Long: `Convert rewrites a parsed document: --wrap encloses a pasted fragment
in a full-document header (picking a paper size from its geometry unless one
is given), --unwrap strips the header back off, --strip-sheets removes
references to hierarchical sheets this system does not co-publish, and
--attribute appends provenance comments from a fields file.

Transforms compose in that order when several are requested.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

// attributionFields is the yaml shape of the --fields file.
type attributionFields struct {
	Source  string `yaml:"source"`
	License string `yaml:"license"`
}

func runConvert(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	doc, err := sexpr.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	if strip, _ := cmd.Flags().GetBool("strip-sheets"); strip {
		doc = transform.StripSheetReferences(doc)
	}

	wrap, _ := cmd.Flags().GetBool("wrap")
	unwrap, _ := cmd.Flags().GetBool("unwrap")
	if wrap && unwrap {
		return fmt.Errorf("--wrap and --unwrap are mutually exclusive")
	}

	switch {
	case wrap:
		doc, err = wrapDocument(cmd, doc)
		if err != nil {
			return err
		}
	case unwrap:
		doc = transform.Unwrap(doc)
	}

	if fieldsPath, _ := cmd.Flags().GetString("fields"); fieldsPath != "" {
		attr, err := loadAttribution(fieldsPath)
		if err != nil {
			return err
		}
		doc = transform.InjectAttribution(doc, attr)
	}

	out, _ := cmd.Flags().GetString("out")
	serialized := sexpr.Serialize(doc)
	if out == "" || out == "-" {
		_, err = os.Stdout.Write(serialized)
		return err
	}
	if err := os.WriteFile(out, serialized, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return nil
}

func wrapDocument(cmd *cobra.Command, doc *sexpr.Document) (*sexpr.Document, error) {
	if transform.Classify(doc) == transform.Complete {
		return nil, fmt.Errorf("document is already complete; nothing to wrap")
	}

	title, _ := cmd.Flags().GetString("title")
	id, _ := cmd.Flags().GetString("id")
	paperName, _ := cmd.Flags().GetString("paper")

	var paper transform.PaperSize
	if paperName == "" || paperName == "auto" {
		paper = transform.SelectPaperSize(schematic.Extract(doc).Bounds)
	} else {
		var ok bool
		paper, ok = transform.ParsePaperSize(paperName)
		if !ok {
			return nil, fmt.Errorf("unknown paper size %q", paperName)
		}
	}

	return transform.Wrap(doc, transform.WrapOptions{
		Title: title,
		ID:    id,
		Paper: paper,
	}), nil
}

func loadAttribution(path string) (transform.Attribution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return transform.Attribution{}, fmt.Errorf("reading fields file: %w", err)
	}
	var fields attributionFields
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return transform.Attribution{}, fmt.Errorf("parsing fields file: %w", err)
	}
	return transform.Attribution{
		Source:    fields.Source,
		License:   fields.License,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func init() {
	convertCmd.Flags().Bool("wrap", false, "enclose a fragment in a full-document header")
	convertCmd.Flags().Bool("unwrap", false, "strip the full-document header off")
	convertCmd.Flags().Bool("strip-sheets", false, "remove nested-sheet references")
	convertCmd.Flags().String("title", "", "title for the wrapped document's title block")
	convertCmd.Flags().String("id", "", "document id (generated when empty)")
	convertCmd.Flags().String("paper", "auto", "paper size: auto, A4, A3, A2, A1, or A0")
	convertCmd.Flags().String("fields", "", "yaml file with attribution fields (source, license)")
	convertCmd.Flags().String("out", "", "output file (default stdout)")

	rootCmd.AddCommand(convertCmd)
}

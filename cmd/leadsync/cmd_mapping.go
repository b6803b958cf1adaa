package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"leadsync_backend/internal/bootstrap"
	"leadsync_backend/internal/mapping"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// mappingFile is the YAML document exchanged by export and import.
type mappingFile struct {
	Forms []formEntry `yaml:"forms"`
}

type formEntry struct {
	FormID       int64        `yaml:"form_id"`
	IncludeInCRM *bool        `yaml:"include_in_crm,omitempty"`
	Mapping      mapping.Wire `yaml:"mapping"`
}

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Import and export form mappings as YAML",
}

var mappingExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every stored form mapping to a YAML file",
	RunE:  runMappingExport,
}

var mappingImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace form mappings from a YAML file",
	Long: `Replace form mappings from a YAML file produced by "leadsync mapping export".

Each form's mapping is validated and stored wholesale, exactly as the admin
API would. include_in_crm is applied when present.`,
	Args: cobra.ExactArgs(1),
	RunE: runMappingImport,
}

var (
	exportOut    string
	importDryRun bool
)

func init() {
	mappingExportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	mappingImportCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "parse and validate only")
	mappingCmd.AddCommand(mappingExportCmd, mappingImportCmd)
	rootCmd.AddCommand(mappingCmd)
}

func runMappingExport(cmd *cobra.Command, _ []string) error {
	return withComponents(cmd, func(ctx context.Context, c *bootstrap.Components) error {
		stored, err := c.Mapping.Repository().List(ctx)
		if err != nil {
			return fmt.Errorf("list mappings: %w", err)
		}

		doc := mappingFile{Forms: make([]formEntry, 0, len(stored))}
		for _, m := range stored {
			included, err := c.Settings.Service().IsFormIncluded(ctx, m.FormID)
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}
			doc.Forms = append(doc.Forms, formEntry{FormID: m.FormID, IncludeInCRM: &included, Mapping: m.Config.ToWire()})
		}

		out := cmd.OutOrStdout()
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if err := encodeMappingFile(out, doc); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "exported %d form mappings\n", len(doc.Forms))
		return nil
	})
}

func runMappingImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := decodeMappingFile(f)
	if err != nil {
		return err
	}
	if importDryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "%d form mappings parsed\n", len(doc.Forms))
		return nil
	}

	return withComponents(cmd, func(ctx context.Context, c *bootstrap.Components) error {
		for _, entry := range doc.Forms {
			req := mapping.PutRequest{Mapping: entry.Mapping, IncludeInCRM: entry.IncludeInCRM}
			if _, err := c.Mapping.Service().Put(ctx, entry.FormID, req, "cli"); err != nil {
				return fmt.Errorf("form %d: %w", entry.FormID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "form %d imported\n", entry.FormID)
		}
		return nil
	})
}

func encodeMappingFile(w io.Writer, doc mappingFile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode mappings: %w", err)
	}
	return enc.Close()
}

func decodeMappingFile(r io.Reader) (mappingFile, error) {
	var doc mappingFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return mappingFile{}, fmt.Errorf("decode mappings: %w", err)
	}
	seen := map[int64]bool{}
	for _, entry := range doc.Forms {
		if entry.FormID <= 0 {
			return mappingFile{}, fmt.Errorf("form_id must be positive, got %d", entry.FormID)
		}
		if seen[entry.FormID] {
			return mappingFile{}, fmt.Errorf("form %d appears twice", entry.FormID)
		}
		seen[entry.FormID] = true
	}
	return doc, nil
}

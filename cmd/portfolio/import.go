package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/marcolomele/makeup-portfolio/portfolio/application"
	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	importCSV      string
	importDocument string
	importColumns  string
	importDryRun   bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Add form submissions from a CSV export to the portfolio document",
	Long: `Reads a CSV export of the project submission form and prepends a project for every
complete submission whose id is not taken yet. Imported projects get the "New Project" category.`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importCSV, "csv", "", "CSV export of the form responses (required)")
	importCmd.Flags().StringVar(&importDocument, "document", "", "portfolio document to update (default: PORTFOLIO_SOURCE_PATH)")
	importCmd.Flags().StringVar(&importColumns, "columns", "", "YAML column mapping (default: PORTFOLIO_IMPORT_COLUMNS)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "report what would be imported without writing")
	importCmd.MarkFlagRequired("csv")
}

func runImport(cmd *cobra.Command, args []string) error {
	documentPath := importDocument
	if documentPath == "" {
		documentPath = cfg.Source.Path
	}
	columnsPath := importColumns
	if columnsPath == "" {
		columnsPath = cfg.ColumnsFile
	}

	mapping := application.DefaultColumnMapping()
	if columnsPath != "" {
		m, err := application.LoadColumnMapping(columnsPath)
		if err != nil {
			return err
		}
		mapping = m
	}

	doc, err := readDocument(documentPath)
	if err != nil {
		return err
	}

	in, err := os.Open(importCSV)
	if err != nil {
		return fmt.Errorf("failed to open submissions: %w", err)
	}
	defer in.Close()

	report, err := application.NewImporter(mapping).Import(cmd.Context(), in, doc)
	if err != nil {
		return err
	}

	for _, s := range report.Skipped {
		log.Warn().Int("line", s.Line).Str("reason", s.Reason).Msg("Skipped submission")
	}

	if len(report.Added) == 0 {
		log.Info().Msg("No new projects to import")
		return nil
	}
	if importDryRun {
		log.Info().Strs("projects", report.Added).Msg("Dry run, document not written")
		return nil
	}

	if err := writeDocument(documentPath, doc); err != nil {
		return err
	}

	log.Info().Strs("projects", report.Added).Str("document", documentPath).Msg("Portfolio updated")
	return nil
}

func readDocument(path string) (*domain.Document, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().Str("document", path).Msg("Document does not exist yet, starting empty")
		return &domain.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return application.DecodeDocument(raw)
}

// writeDocument replaces the document atomically so a running server never reads half a file.
func writeDocument(path string, doc *domain.Document) error {
	raw, err := application.EncodeDocument(doc)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".portfolio-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp document: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp document: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}

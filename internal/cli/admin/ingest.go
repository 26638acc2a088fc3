package admin

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cloo-solutions/legalrag/internal/domain"
	"github.com/cloo-solutions/legalrag/internal/telemetry"
	"github.com/spf13/cobra"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest documents into the index",
		Long:  "Extract, chunk, embed and index one or more PDF or text documents",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIngest,
	}

	addBackendFlags(cmd)
	addOutputFlag(cmd)

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	s, cleanup, err := commandStack(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	format, _ := cmd.Flags().GetString("output")
	ctx, span := telemetry.StartTransaction(cmd.Context(), "cli ingest", "cli.ingest")
	defer span.End()

	ingested := []*domain.Document{}
	failed := 0
	for _, path := range args {
		doc, err := ingestFile(ctx, s, path)
		if err != nil {
			failed++
			log.Printf("ingest: %s: %v", path, err)
			continue
		}
		ingested = append(ingested, doc)
	}

	if err := writeOutput(cmd.OutOrStdout(), format, ingested); err != nil {
		return err
	}

	if failed > 0 {
		telemetry.CaptureMessage(ctx, fmt.Sprintf("ingest: %d of %d files failed", failed, len(args)))
		return fmt.Errorf("%d of %d files failed to ingest", failed, len(args))
	}
	return nil
}

func ingestFile(ctx context.Context, s *stack, path string) (*domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return s.documents.Upload(ctx, raw, filepath.Base(path))
}

package admin

import (
	"strings"

	"github.com/cloo-solutions/legalrag/internal/telemetry"
	"github.com/spf13/cobra"
)

// QueryCmd returns the query command
func QueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a question about the indexed documents",
		Long:  "Retrieve the most relevant chunks for a question and generate a grounded answer",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runQuery,
	}

	cmd.Flags().IntP("top-k", "k", 0, "Number of chunks to retrieve (0 uses LEGALRAG_TOP_K)")
	addBackendFlags(cmd)
	addOutputFlag(cmd)

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	topK, _ := cmd.Flags().GetInt("top-k")
	format, _ := cmd.Flags().GetString("output")

	s, cleanup, err := commandStack(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, span := telemetry.StartTransaction(cmd.Context(), "cli query", "cli.query")
	defer span.End()

	result, err := s.engine.Query(ctx, strings.Join(args, " "), topK)
	if err != nil {
		span.SetError(err)
		return err
	}

	return writeOutput(cmd.OutOrStdout(), format, result)
}

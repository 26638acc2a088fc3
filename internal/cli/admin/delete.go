package admin

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DeleteCmd returns the delete command
func DeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <doc_id>",
		Short: "Delete a document and its chunks",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete,
	}

	addBackendFlags(cmd)

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	s, cleanup, err := commandStack(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := s.documents.Delete(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s (%d chunks)\n", args[0], n)
	return nil
}

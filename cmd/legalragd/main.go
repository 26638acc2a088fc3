package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/legalrag/internal/cli"
	"github.com/cloo-solutions/legalrag/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "legalragd",
		Short: "Legal document question answering",
		Long:  "legalragd ingests legal documents (EULAs, terms of service, privacy policies) and answers questions grounded in them",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.MigrateCmd())
	rootCmd.AddCommand(admin.IngestCmd())
	rootCmd.AddCommand(admin.QueryCmd())
	rootCmd.AddCommand(admin.DeleteCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

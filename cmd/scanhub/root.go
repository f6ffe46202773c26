package main

import (
	"context"

	"github.com/spf13/cobra"

	"scanhub/cmd/scanhub/scan"
	"scanhub/cmd/scanhub/server"
)

func Execute() error {
	var rootCmd = &cobra.Command{
		Use:   "scanhub",
		Short: "A scan orchestration service for external security tools",
		Long:  `Scanhub runs external security scanning tools as managed subprocesses with admission control, timeout enforcement, and normalized results`,
	}

	rootCmd.AddCommand(scan.NewScanCommand())
	rootCmd.AddCommand(scan.NewListToolsCommand())
	rootCmd.AddCommand(server.NewServerCommand())
	return rootCmd.ExecuteContext(context.Background())
}

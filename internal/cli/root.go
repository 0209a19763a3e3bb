// Package cli implements the dscparser command-line tool: converting
// configuration documents to resource trees and back, verifying the
// round-trip law, and maintaining the persistent schema catalog.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	dscparser "github.com/FabienTschanz/DSCParser"
	"github.com/FabienTschanz/DSCParser/internal/config"
	"github.com/FabienTschanz/DSCParser/internal/logging"
)

var toolCfg *config.Config

// toolConfig returns the configuration loaded by the root command. Commands
// executed outside the root (tests) load it on demand.
func toolConfig() *config.Config {
	if toolCfg == nil {
		toolCfg = config.Load()
	}
	return toolCfg
}

// RootCmd builds the command tree.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dscparser",
		Short:         "Convert DSC configuration documents into resource trees and back",
		Version:       dscparser.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			toolCfg = config.Load()
			logging.Setup(toolCfg.SlogLevel())
		},
	}

	cmd.AddCommand(ConvertCmd())
	cmd.AddCommand(RenderCmd())
	cmd.AddCommand(VerifyCmd())
	cmd.AddCommand(CommitCmd())
	cmd.AddCommand(SchemaCmd())

	return cmd
}

// Execute runs the tool and exits non-zero on failure.
func Execute() {
	if err := RootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("Error:"), err)
		os.Exit(1)
	}
}

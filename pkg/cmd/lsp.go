package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	shdllsp "github.com/shdl-lang/shdlc/pkg/lsp"
)

// lspCmd runs the supplemental editor diagnostics server over stdio.
var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run an editor diagnostics server over stdio",
	Run: func(cmd *cobra.Command, args []string) {
		runLSP(cmd)
	},
}

func init() {
	lspCmd.Flags().StringArrayP("include", "I", nil, "additional directory to search for imported modules")

	rootCmd.AddCommand(lspCmd)
}

type stdioStream struct{}

func (s stdioStream) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (s stdioStream) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (s stdioStream) Close() error                { return nil }

func runLSP(cmd *cobra.Command) {
	includes := GetStringArray(cmd, "include")

	level := zap.WarnLevel
	if GetFlag(cmd, "verbose") {
		level = zap.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		os.Exit(1)
	}

	defer logger.Sync() //nolint:errcheck

	if err := shdllsp.Run(context.Background(), stdioStream{}, logger, includes); err != nil {
		logger.Error("lsp session ended with error", zap.Error(err))
		os.Exit(1)
	}
}

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jzeiders/graphql-intel/internal/clierr"
)

var (
	version = "0.1.0"
	verbose bool
	quiet   bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:           "graphql-intel",
	Short:         "GraphQL language intelligence engine",
	Long:          `A batch driver over the incremental GraphQL analysis engine: walks a directory of schema and document files and reports every diagnostic the IDE layer would surface.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print a fatal error as machine-readable JSON instead of colorized text (diagnostics are always printed as text)")

	rootCmd.AddCommand(analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		clierr.Fatal(err, jsonOut)
	}
}

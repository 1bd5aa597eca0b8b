package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jzeiders/graphql-intel/internal/analysis"
	"github.com/jzeiders/graphql-intel/internal/clierr"
	"github.com/jzeiders/graphql-intel/internal/store"
	"github.com/jzeiders/graphql-intel/pkg/ide"
)

var schemaNamePattern string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <dir>",
	Short: "Report file_diagnostics for every GraphQL-bearing file under a directory",
	Long: `analyze walks a directory, loads every .graphql/.gql/.ts/.tsx/.js/.jsx file
it finds into a fresh AnalysisHost, and prints the resulting file_diagnostics
for each file, colorized by severity. It is a minimal, protocol-free batch
driver over the engine: it does not speak LSP and has no config discovery of
its own beyond the --schema-pattern flag below.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&schemaNamePattern, "schema-pattern", "*schema*", "glob matched against a .graphql/.gql file's base name to classify it as a schema file rather than a document")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	root := args[0]
	info, err := os.Stat(root)
	if err != nil {
		return clierr.NotFoundError(fmt.Sprintf("cannot find %s", root), err.Error(), "check the directory path")
	}
	if !info.IsDir() {
		return clierr.InputError(fmt.Sprintf("%s is not a directory", root), "", "pass a directory to analyze")
	}

	logger := newLogger()
	metrics := store.NewMetrics(nil)
	host := ide.NewAnalysisHost(logger, metrics)

	fileCount := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		kind, lang, ok := classifyAnalyzePath(path)
		if !ok {
			return nil
		}
		text, readErr := os.ReadFile(path)
		if readErr != nil {
			if !quiet {
				fmt.Fprintf(os.Stderr, "skipping %s: %v\n", path, readErr)
			}
			return nil
		}
		host.AddFile(store.FileUri("file://"+path), kind, lang, string(text), 0)
		fileCount++
		return nil
	})
	if err != nil {
		return clierr.InternalError("failed walking "+root, err)
	}
	host.RebuildProjectFiles()

	if !quiet {
		fmt.Printf("Loaded %d files from %s\n", fileCount, root)
	}

	snap := host.Snapshot()
	diagsByFile, err := snap.WorkspaceDiagnostics(context.Background())
	if err != nil {
		return clierr.InternalError("failed computing diagnostics", err)
	}

	return reportDiagnostics(diagsByFile)
}

// classifyAnalyzePath maps a file extension/name to the FileKind and
// Language AddFile needs, or reports ok=false for an extension analyze
// doesn't understand.
func classifyAnalyzePath(path string) (store.FileKind, store.Language, bool) {
	ext := filepath.Ext(path)
	switch ext {
	case ".graphql", ".gql":
		if matched, _ := filepath.Match(schemaNamePattern, filepath.Base(path)); matched {
			return store.FileKindSchema, store.LanguageGraphQL, true
		}
		return store.FileKindExecutableGraphQL, store.LanguageGraphQL, true
	case ".ts", ".tsx":
		return store.FileKindHostEmbedded, store.LanguageTypeScript, true
	case ".js", ".jsx":
		return store.FileKindHostEmbedded, store.LanguageJavaScript, true
	default:
		return store.FileKindUnknown, store.LanguageUnknown, false
	}
}

// reportDiagnostics prints every file's diagnostics sorted by uri for
// stable output, returning a clierr.UserError with ExitDiagnostics if any
// error-severity diagnostic was found.
func reportDiagnostics(byFile map[store.FileUri][]analysis.Diagnostic) error {
	uris := make([]string, 0, len(byFile))
	for uri := range byFile {
		uris = append(uris, string(uri))
	}
	sort.Strings(uris)

	errorCount := 0
	for _, uri := range uris {
		diags := byFile[store.FileUri(uri)]
		if len(diags) == 0 {
			continue
		}
		fmt.Println(uri)
		for _, d := range diags {
			if d.Severity == analysis.SeverityError {
				errorCount++
			}
			printDiagnostic(d)
		}
	}

	if errorCount > 0 {
		return &clierr.UserError{
			Message:  fmt.Sprintf("%d error diagnostic(s) found", errorCount),
			ExitCode: clierr.ExitDiagnostics,
		}
	}
	return nil
}

func printDiagnostic(d analysis.Diagnostic) {
	sev := strings.ToUpper(d.Severity.String())
	c := color.New(color.FgYellow)
	if d.Severity == analysis.SeverityError {
		c = color.New(color.FgRed, color.Bold)
	}
	loc := fmt.Sprintf("%d:%d", d.Range.Start.Line+1, d.Range.Start.Character+1)
	fmt.Printf("  %s %s %s\n", c.Sprint(sev), loc, d.Message)
}

package cli

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	dscparser "github.com/FabienTschanz/DSCParser"
	"github.com/FabienTschanz/DSCParser/internal/config"
	"github.com/FabienTschanz/DSCParser/internal/scanner"
	"github.com/FabienTschanz/DSCParser/internal/util"
)

// ConvertCmd parses configuration documents into resource trees.
func ConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [path ...]",
		Short: "Parse configuration documents into resource trees",
		Long: `Convert parses each document into its resource instances and reports
the interpretation diagnostics. Paths may be files, glob patterns, or
directories (scanned for *.ps1); "-" reads standard input; no paths means
the current directory.

With --json the resource tree is emitted in the interchange form that the
render command accepts back.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := toolConfig()

			strict, _ := cmd.Flags().GetBool("strict")
			comments, _ := cmd.Flags().GetBool("comments")
			cimInfo, _ := cmd.Flags().GetBool("cim-info")
			ranges, _ := cmd.Flags().GetBool("version-ranges")
			asJSON, _ := cmd.Flags().GetBool("json")
			progress, _ := cmd.Flags().GetBool("progress")
			workers, _ := cmd.Flags().GetInt("workers")
			if workers == 0 {
				workers = cfg.Workers
			}

			schemas, closeSchemas, err := resolveSchemas(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeSchemas()

			files, err := collectDocuments(cmd, args, cfg)
			if err != nil {
				return err
			}

			opts := dscparser.Options{
				Schemas:                schemas,
				Strict:                 strict,
				IncludeComments:        comments,
				IncludeCIMInstanceInfo: cimInfo,
				VersionRangePolicy:     ranges,
			}
			showProgress := progress && len(files) == 1
			if showProgress {
				opts.OnProgress = progressLine(cmd.ErrOrStderr())
			}

			stdin := cmd.InOrStdin()
			reports := runBatch(cmd.Context(), files, workers, func(path string) fileReport {
				source := path
				if path == "-" {
					data, err := io.ReadAll(stdin)
					if err != nil {
						return fileReport{File: path, Err: err}
					}
					source = string(data)
				}
				res, err := dscparser.ConvertToResourceTree(cmd.Context(), source, opts)
				if err != nil {
					return fileReport{File: path, Err: err}
				}
				return fileReport{File: path, Instances: res.Instances, Diagnostics: res.Diagnostics}
			})
			if showProgress {
				fmt.Fprintln(cmd.ErrOrStderr())
			}

			if asJSON {
				if err := writeJSONReports(cmd.OutOrStdout(), reports); err != nil {
					return err
				}
			} else {
				printReports(cmd.OutOrStdout(), reports)
			}

			return reportsError(reports)
		},
	}

	addSchemaFlags(cmd)
	addScanFlags(cmd)
	cmd.Flags().Bool("strict", false, "Fail on resource types without a resolvable schema")
	cmd.Flags().Bool("comments", false, "Attach source comments as _metadata_ properties")
	cmd.Flags().Bool("cim-info", false, "Record embedded instance type names as CIMInstance entries")
	cmd.Flags().Bool("version-ranges", false, "Treat pinned import versions as semver constraints")
	cmd.Flags().Bool("json", false, "Emit the resource tree as JSON")
	cmd.Flags().Bool("progress", false, "Report per-instance progress on stderr (single document only)")
	cmd.Flags().Int("workers", 0, "Concurrent documents, 0 means one per CPU")

	return cmd
}

// addScanFlags registers the discovery flags shared by convert and verify.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("include", nil, "Include patterns for directory scans (doublestar)")
	cmd.Flags().StringSlice("exclude", nil, "Exclude patterns for directory scans")
	cmd.Flags().Int("max-depth", 0, "Directory scan depth limit, 0 means unlimited")
	cmd.Flags().Int("max-files", 0, "Stop scanning after this many documents, 0 means unlimited")
}

// collectDocuments resolves positional arguments into concrete document
// paths. Directories are scanned, glob arguments expanded, plain paths
// passed through. No arguments means the current directory.
func collectDocuments(cmd *cobra.Command, args []string, cfg *config.Config) ([]string, error) {
	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	maxDepth, _ := cmd.Flags().GetInt("max-depth")
	maxFiles, _ := cmd.Flags().GetInt("max-files")

	if len(args) == 0 {
		args = []string{"."}
	}

	var files []string
	for _, arg := range util.ExpandGlobs(args) {
		if arg == "-" {
			files = append(files, arg)
			continue
		}
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := scanner.New().List(cmd.Context(), scanner.Scope{
			Path:     arg,
			Include:  include,
			Exclude:  exclude,
			MaxDepth: maxDepth,
			MaxFiles: maxFiles,
			MaxBytes: cfg.MaxFileBytes,
		})
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no documents found to process")
	}
	return files, nil
}

// progressLine returns a progress callback writing a carriage-returned
// counter to w.
func progressLine(w io.Writer) func(done, total int) {
	return func(done, total int) {
		fmt.Fprintf(w, "\r%s interpreting %d/%d instances", cyan("»"), done, total)
	}
}

// printReports writes the human summary of a batch.
func printReports(w io.Writer, reports []fileReport) {
	for _, r := range reports {
		if r.Err != nil {
			fmt.Fprintf(w, "%s %s: %v\n", red("✗"), r.File, r.Err)
			continue
		}
		fmt.Fprintf(w, "%s %s: %s\n", green("✓"), r.File, plural(len(r.Instances), "instance"))
		printDiagnostics(w, r.Diagnostics)
	}
}

// writeJSONReports emits the interchange JSON: one document object for a
// single input, an array for batches.
func writeJSONReports(w io.Writer, reports []fileReport) error {
	docs := make([]treeDocument, 0, len(reports))
	for _, r := range reports {
		doc := treeDocument{
			File:        r.File,
			Instances:   encodeTree(r.Instances),
			Diagnostics: r.Diagnostics,
		}
		if r.Err != nil {
			doc.Error = r.Err.Error()
		}
		docs = append(docs, doc)
	}

	var payload any = docs
	if len(docs) == 1 {
		payload = docs[0]
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode resource tree: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// reportsError folds per-file failures into one command error.
func reportsError(reports []fileReport) error {
	failed := 0
	for _, r := range reports {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%s failed to convert", plural(failed, "document"))
	}
	return nil
}

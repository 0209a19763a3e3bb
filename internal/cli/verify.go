package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	dscparser "github.com/FabienTschanz/DSCParser"
	"github.com/FabienTschanz/DSCParser/internal/util"
)

// VerifyCmd checks that documents survive a parse and re-serialize cycle.
func VerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [path ...]",
		Short: "Check that documents round-trip through the resource tree",
		Long: `Verify parses each document, serializes the resulting resource tree,
parses that output again, and compares the two trees. A document passes
when both parses agree instance for instance and the serialized form is
stable. Differences are shown as a unified diff of the two renderings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := toolConfig()

			strict, _ := cmd.Flags().GetBool("strict")
			ranges, _ := cmd.Flags().GetBool("version-ranges")
			workers, _ := cmd.Flags().GetInt("workers")
			if workers == 0 {
				workers = cfg.Workers
			}
			diffContext := cfg.DiffContext
			if cmd.Flags().Changed("context") {
				diffContext, _ = cmd.Flags().GetInt("context")
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

			// Comments and embedded type records are serializer metadata, not
			// document content, so the round-trip runs without them.
			opts := dscparser.Options{
				Schemas:            schemas,
				Strict:             strict,
				VersionRangePolicy: ranges,
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
				return verifyDocument(cmd.Context(), source, path, opts, diffContext)
			})

			out := cmd.OutOrStdout()
			failed := 0
			for _, r := range reports {
				if r.Err != nil {
					failed++
					fmt.Fprintf(out, "%s %s: %v\n", red("✗"), r.File, r.Err)
					if r.Diff != "" {
						fmt.Fprint(out, colorizeDiff(r.Diff))
					}
					continue
				}
				fmt.Fprintf(out, "%s %s: %s round-trip\n", green("✓"), r.File, plural(len(r.Instances), "instance"))
				printDiagnostics(out, r.Diagnostics)
			}
			if failed > 0 {
				return fmt.Errorf("%s failed verification", plural(failed, "document"))
			}
			return nil
		},
	}

	addSchemaFlags(cmd)
	addScanFlags(cmd)
	cmd.Flags().Bool("strict", false, "Fail on resource types without a resolvable schema")
	cmd.Flags().Bool("version-ranges", false, "Treat pinned import versions as semver constraints")
	cmd.Flags().Int("workers", 0, "Concurrent documents, 0 means one per CPU")
	cmd.Flags().Int("context", 0, "Unified diff context lines on mismatch")

	return cmd
}

// verifyDocument runs one parse/serialize/reparse cycle and reports the
// first divergence it finds. source follows the path-or-text convention of
// the conversion API; label names the document in the report and diff.
func verifyDocument(ctx context.Context, source, label string, opts dscparser.Options, diffContext int) fileReport {
	first, err := dscparser.ConvertToResourceTree(ctx, source, opts)
	if err != nil {
		return fileReport{File: label, Err: err}
	}
	report := fileReport{File: label, Instances: first.Instances, Diagnostics: first.Diagnostics}
	if len(first.Instances) == 0 {
		return report
	}

	once, err := dscparser.ConvertFromResourceTree(first.Instances, 0)
	if err != nil {
		report.Err = fmt.Errorf("serialize: %w", err)
		return report
	}
	second, err := dscparser.ConvertToResourceTree(ctx, wrapDocument(once, importLines(source)), opts)
	if err != nil {
		report.Err = fmt.Errorf("reparse serialized output: %w", err)
		return report
	}

	if len(second.Instances) != len(first.Instances) {
		report.Err = fmt.Errorf("instance count changed: %d became %d",
			len(first.Instances), len(second.Instances))
	} else {
		for i := range first.Instances {
			if !first.Instances[i].Equal(second.Instances[i]) {
				report.Err = fmt.Errorf("instance %s %q does not round-trip",
					first.Instances[i].ResourceName, first.Instances[i].InstanceName)
				break
			}
		}
	}

	twice, err := dscparser.ConvertFromResourceTree(second.Instances, 0)
	if err != nil {
		if report.Err == nil {
			report.Err = fmt.Errorf("serialize reparsed tree: %w", err)
		}
		return report
	}
	if report.Err != nil || once != twice {
		report.Diff = util.UnifiedDiff(once, twice, label, diffContext)
		if report.Err == nil {
			report.Err = fmt.Errorf("serialized form is not stable")
		}
	}
	return report
}

// wrapDocument rebuilds the configuration scaffold around serialized
// resource blocks so the serializer's output can be parsed again. The
// original document's import declarations are replayed so module-filtered
// schema resolution behaves the same on the second pass.
func wrapDocument(body string, imports []string) string {
	var sb strings.Builder
	sb.WriteString("Configuration RoundTrip\n{\n")
	for _, imp := range imports {
		sb.WriteString("    " + imp + "\n")
	}
	sb.WriteString("    Node \"localhost\"\n    {\n")
	for _, line := range strings.Split(body, "\n") {
		if line == "" {
			continue
		}
		sb.WriteString("        " + line + "\n")
	}
	sb.WriteString("    }\n}\n")
	return sb.String()
}

// importLines extracts the Import-DscResource declarations of a document,
// given as a path or as inline text.
func importLines(source string) []string {
	text := source
	if !strings.ContainsAny(source, "\n{}") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil
		}
		text = string(data)
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Import-DscResource") {
			out = append(out, trimmed)
		}
	}
	return out
}

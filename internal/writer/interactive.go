package writer

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/FabienTschanz/DSCParser/internal/util"
)

// InteractiveOutput shows a diff against the current file content and asks
// for confirmation before each write.
type InteractiveOutput struct {
	disk      *DiskOutput
	dryRun    *DryRunOutput
	in        *bufio.Reader
	confirmed []string
	rejected  []string
}

// NewInteractiveOutput creates an output that prompts on standard input.
func NewInteractiveOutput() *InteractiveOutput {
	return &InteractiveOutput{
		disk:   NewDiskOutput(),
		dryRun: NewDryRunOutput(),
		in:     bufio.NewReader(os.Stdin),
	}
}

// WriteFile diffs content against the file on disk and writes only after
// the user confirms. Unchanged files are skipped without a prompt.
func (o *InteractiveOutput) WriteFile(path string, content []byte, perm os.FileMode) error {
	var current []byte
	if stat, err := os.Stat(path); err == nil && stat.Mode().IsRegular() {
		current, _ = os.ReadFile(path)
	}

	diff := util.UnifiedDiff(string(current), string(content), path, 3)
	if diff == "" {
		return o.dryRun.WriteFile(path, content, perm)
	}

	fmt.Print(diff)
	fmt.Printf("\nApply changes to %s? [y/N/q]: ", path)

	response, err := o.in.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading user input: %w", err)
	}

	switch strings.TrimSpace(strings.ToLower(response)) {
	case "y", "yes":
		o.confirmed = append(o.confirmed, path)
		return o.disk.WriteFile(path, content, perm)
	case "q", "quit":
		return fmt.Errorf("user cancelled operation")
	default:
		o.rejected = append(o.rejected, path)
		return o.dryRun.WriteFile(path, content, perm)
	}
}

// Summary reports the user's decisions.
func (o *InteractiveOutput) Summary() string {
	var sb strings.Builder
	if len(o.confirmed) > 0 {
		sb.WriteString(fmt.Sprintf("Applied changes to %d file(s):\n", len(o.confirmed)))
		for _, path := range o.confirmed {
			sb.WriteString("  " + path + "\n")
		}
	}
	if len(o.rejected) > 0 {
		sb.WriteString(fmt.Sprintf("Rejected changes to %d file(s):\n", len(o.rejected)))
		for _, path := range o.rejected {
			sb.WriteString("  " + path + "\n")
		}
	}
	if sb.Len() == 0 {
		return "No changes were proposed."
	}
	return sb.String()
}

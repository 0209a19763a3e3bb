package writer

import (
	"fmt"
	"os"
	"strings"

	"github.com/FabienTschanz/DSCParser/internal/util"
)

// Output abstracts how converted documents reach disk. The command-line
// tool picks an implementation from its flags: dry-run, direct writes, or
// interactive confirmation.
type Output interface {
	WriteFile(path string, content []byte, perm os.FileMode) error
	Summary() string
}

// DryRunOutput records what would be written without touching disk.
type DryRunOutput struct {
	planned []plannedWrite
}

type plannedWrite struct {
	Path     string
	OldSize  int
	NewSize  int
	Creating bool
}

// NewDryRunOutput creates an output that only tracks planned writes.
func NewDryRunOutput() *DryRunOutput {
	return &DryRunOutput{planned: make([]plannedWrite, 0)}
}

// WriteFile records the planned write and leaves the target untouched.
func (o *DryRunOutput) WriteFile(path string, content []byte, _ os.FileMode) error {
	p := plannedWrite{Path: path, NewSize: len(content), Creating: true}
	if stat, err := os.Stat(path); err == nil {
		p.OldSize = int(stat.Size())
		p.Creating = false
	}
	o.planned = append(o.planned, p)
	return nil
}

// Summary lists the writes that a committed run would perform.
func (o *DryRunOutput) Summary() string {
	if len(o.planned) == 0 {
		return "No files would be written."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Would write %d file(s):\n", len(o.planned)))
	for _, p := range o.planned {
		verb := "update"
		if p.Creating {
			verb = "create"
		}
		sb.WriteString(fmt.Sprintf("  %s %s (%d bytes)\n", verb, p.Path, p.NewSize))
	}
	return sb.String()
}

// DiskOutput writes files atomically.
type DiskOutput struct {
	written []string
}

// NewDiskOutput creates an output that commits writes to disk.
func NewDiskOutput() *DiskOutput {
	return &DiskOutput{written: make([]string, 0)}
}

// WriteFile writes content to path via a temporary file and rename.
func (o *DiskOutput) WriteFile(path string, content []byte, perm os.FileMode) error {
	if err := util.WriteFileAtomic(path, content, perm); err != nil {
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	o.written = append(o.written, path)
	return nil
}

// Summary lists the files written so far.
func (o *DiskOutput) Summary() string {
	if len(o.written) == 0 {
		return "No files were written."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Wrote %d file(s):\n", len(o.written)))
	for _, path := range o.written {
		sb.WriteString("  " + path + "\n")
	}
	return sb.String()
}

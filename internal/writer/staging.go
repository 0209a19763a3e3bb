package writer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/FabienTschanz/DSCParser/internal/util"
)

// StagingDir is where staged writes live until a commit applies them.
const StagingDir = ".dscparser"

// StagedWrite is one pending file write recorded in the staging area. The
// hashes detect concurrent edits between staging and commit.
type StagedWrite struct {
	Path            string    `json:"path"`
	OriginalContent string    `json:"original_content"`
	ModifiedContent string    `json:"modified_content"`
	OriginalSHA256  string    `json:"original_sha256"`
	ModifiedSHA256  string    `json:"modified_sha256"`
	SizeDelta       int64     `json:"size_delta"`
	Timestamp       time.Time `json:"timestamp"`
	Operation       string    `json:"operation"` // "modify" | "create"
	Origin          string    `json:"origin"`    // source document that produced this output
}

func sha256Hex(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// StagingOutput records writes under the staging directory instead of
// applying them. Target files are never modified.
type StagingOutput struct {
	dir    string
	origin string

	mu     sync.Mutex
	staged []StagedWrite
}

// NewStagingOutput creates an output staging into StagingDir.
func NewStagingOutput() *StagingOutput {
	return &StagingOutput{dir: StagingDir, staged: make([]StagedWrite, 0, 8)}
}

// SetOrigin labels subsequent staged writes with the document that
// produced them.
func (o *StagingOutput) SetOrigin(path string) { o.origin = path }

// WriteFile records the desired content under the staging directory.
func (o *StagingOutput) WriteFile(path string, content []byte, _ os.FileMode) error {
	original, err := os.ReadFile(path)
	op := "modify"
	if err != nil {
		original = nil
		op = "create"
	}

	w := StagedWrite{
		Path:            path,
		OriginalContent: string(original),
		ModifiedContent: string(content),
		OriginalSHA256:  sha256Hex(original),
		ModifiedSHA256:  sha256Hex(content),
		SizeDelta:       int64(len(content)) - int64(len(original)),
		Timestamp:       time.Now(),
		Operation:       op,
		Origin:          o.origin,
	}

	o.mu.Lock()
	o.staged = append(o.staged, w)
	o.mu.Unlock()

	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}

	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal staged write: %w", err)
	}
	file := filepath.Join(o.dir, stagedFileName(path))
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("write staged change: %w", err)
	}
	return nil
}

// Summary returns a diff preview of everything staged so far.
func (o *StagingOutput) Summary() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.staged) == 0 {
		return "No changes staged."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Staged %d change(s) in %s/:\n", len(o.staged), o.dir))
	for _, w := range o.staged {
		if diff := util.UnifiedDiff(w.OriginalContent, w.ModifiedContent, w.Path, 3); diff != "" {
			sb.WriteString("\n" + diff)
		}
	}
	sb.WriteString("\nRun the commit command to apply these changes.\n")
	return sb.String()
}

func stagedFileName(path string) string {
	rep := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	return fmt.Sprintf("write_%s.json", rep.Replace(path))
}

// CommitOutput applies a previously staged set of writes. Files changed
// since staging are refused so a stale commit cannot clobber edits.
type CommitOutput struct {
	dir     string
	applied []string
	skipped []string
}

// NewCommitOutput creates an output that applies the staging directory.
func NewCommitOutput() *CommitOutput {
	return &CommitOutput{dir: StagingDir}
}

// WriteFile is not supported; staged writes apply through Apply.
func (*CommitOutput) WriteFile(string, []byte, os.FileMode) error {
	return errors.New("CommitOutput does not stage new writes; call Apply")
}

// Apply replays every staged write, verifying targets are unchanged. The
// staging directory is removed only after everything applied.
func (o *CommitOutput) Apply() error {
	entries, err := os.ReadDir(o.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no staged changes (no %s directory)", o.dir)
		}
		return err
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := o.applyOne(filepath.Join(o.dir, e.Name())); err != nil {
			return err
		}
	}
	return os.RemoveAll(o.dir)
}

func (o *CommitOutput) applyOne(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	var w StagedWrite
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	current, _ := os.ReadFile(w.Path)
	if sha256Hex(current) != w.OriginalSHA256 {
		o.skipped = append(o.skipped, w.Path)
		return fmt.Errorf("file %s modified since staging; aborting", w.Path)
	}

	if err := util.WriteFileAtomic(w.Path, []byte(w.ModifiedContent), 0o644); err != nil {
		return err
	}
	o.applied = append(o.applied, w.Path)
	return nil
}

// Summary reports applied and refused writes.
func (o *CommitOutput) Summary() string {
	var sb strings.Builder
	if len(o.applied) > 0 {
		sb.WriteString(fmt.Sprintf("Applied %d file(s):\n", len(o.applied)))
		for _, p := range o.applied {
			sb.WriteString("  " + p + "\n")
		}
	}
	if len(o.skipped) > 0 {
		sb.WriteString(fmt.Sprintf("Skipped %d file(s) due to conflicts:\n", len(o.skipped)))
		for _, p := range o.skipped {
			sb.WriteString("  " + p + "\n")
		}
	}
	if sb.Len() == 0 {
		return "No changes were applied."
	}
	return sb.String()
}

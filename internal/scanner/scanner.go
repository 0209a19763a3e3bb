// Package scanner discovers configuration documents for batch conversion:
// a parallel directory walk with doublestar include/exclude patterns and
// depth, count and size caps.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultInclude matches configuration documents when a scope names no
// include patterns of its own.
var DefaultInclude = []string{"**/*.ps1"}

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".dscparser":   true,
	"node_modules": true,
}

// Scope bounds one discovery run.
type Scope struct {
	Path           string
	Include        []string // doublestar patterns; empty means DefaultInclude
	Exclude        []string
	MaxDepth       int   // 0 = unlimited
	MaxFiles       int   // 0 = unlimited
	MaxBytes       int64 // 0 = unlimited; larger files surface as errors
	FollowSymlinks bool
}

// Document is one discovered configuration file with its content loaded.
// Err is set when the file could not be read or exceeded the size cap.
type Document struct {
	Path    string
	Content string
	Err     error
}

// Scanner walks directories with a worker pool reading file contents.
type Scanner struct {
	workers    int
	bufferSize int
}

// New creates a scanner sized for I/O bound work.
func New() *Scanner {
	return &Scanner{
		workers:    runtime.NumCPU() * 2,
		bufferSize: 256,
	}
}

// Walk streams discovered documents. The channel closes when discovery and
// loading finish or the context is cancelled.
func (s *Scanner) Walk(ctx context.Context, scope Scope) (<-chan Document, error) {
	if err := validateScope(scope); err != nil {
		return nil, err
	}

	docs := make(chan Document, s.bufferSize)
	paths := make(chan string, s.bufferSize)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go s.loadWorker(ctx, paths, docs, scope, &wg)
	}

	go func() {
		defer close(paths)
		found := 0
		var visited map[string]struct{}
		if scope.FollowSymlinks {
			visited = make(map[string]struct{})
			if resolved, err := filepath.EvalSymlinks(scope.Path); err == nil {
				visited[resolved] = struct{}{}
			} else {
				visited[scope.Path] = struct{}{}
			}
		}
		s.scanDirectory(ctx, scope.Path, scope, paths, 0, &found, visited)
	}()

	go func() {
		wg.Wait()
		close(docs)
	}()

	return docs, nil
}

// List returns matching paths without loading contents.
func (s *Scanner) List(ctx context.Context, scope Scope) ([]string, error) {
	docs, err := s.Walk(ctx, scope)
	if err != nil {
		return nil, err
	}

	var files []string
	for doc := range docs {
		if doc.Err != nil {
			continue
		}
		files = append(files, doc.Path)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

// loadWorker reads discovered files in parallel.
func (s *Scanner) loadWorker(
	ctx context.Context,
	paths <-chan string,
	docs chan<- Document,
	scope Scope,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-paths:
			if !ok {
				return
			}
			doc := loadDocument(path, scope.MaxBytes)
			select {
			case <-ctx.Done():
				return
			case docs <- doc:
			}
		}
	}
}

func loadDocument(path string, maxBytes int64) Document {
	info, err := os.Stat(path)
	if err != nil {
		return Document{Path: path, Err: err}
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return Document{Path: path, Err: fmt.Errorf("file exceeds size cap (%d > %d bytes)", info.Size(), maxBytes)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{Path: path, Err: err}
	}
	return Document{Path: path, Content: string(data)}
}

// scanDirectory recursively discovers files matching the scope patterns.
func (s *Scanner) scanDirectory(
	ctx context.Context,
	dir string,
	scope Scope,
	paths chan<- string,
	depth int,
	found *int,
	visited map[string]struct{},
) {
	if scope.MaxFiles > 0 && *found >= scope.MaxFiles {
		return
	}
	select {
	case <-ctx.Done():
		return
	default:
	}
	if scope.MaxDepth > 0 && depth > scope.MaxDepth {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return // unreadable directories are skipped, not fatal
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fullPath := filepath.Join(dir, entry.Name())
		rel := relTo(scope.Path, fullPath)

		if isExcluded(rel, scope.Exclude) {
			continue
		}

		if entry.Type()&os.ModeSymlink != 0 && scope.FollowSymlinks {
			resolved, err := filepath.EvalSymlinks(fullPath)
			if err != nil || resolved == "" {
				continue
			}
			info, err := os.Stat(resolved)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if visited != nil {
					if _, seen := visited[resolved]; seen {
						continue
					}
					visited[resolved] = struct{}{}
				}
				s.scanDirectory(ctx, fullPath, scope, paths, depth+1, found, visited)
				continue
			}
		}

		if entry.IsDir() {
			if skipDir(entry.Name()) {
				continue
			}
			if visited != nil {
				realPath := fullPath
				if resolved, err := filepath.EvalSymlinks(fullPath); err == nil && resolved != "" {
					realPath = resolved
				}
				if _, seen := visited[realPath]; seen {
					continue
				}
				visited[realPath] = struct{}{}
			}
			s.scanDirectory(ctx, fullPath, scope, paths, depth+1, found, visited)
			continue
		}

		if !entry.Type().IsRegular() {
			continue
		}
		if isIncluded(rel, includePatterns(scope)) {
			if scope.MaxFiles > 0 && *found >= scope.MaxFiles {
				return
			}
			select {
			case <-ctx.Done():
				return
			case paths <- fullPath:
				*found++
			}
		}
	}
}

func includePatterns(scope Scope) []string {
	if len(scope.Include) > 0 {
		return scope.Include
	}
	return DefaultInclude
}

func skipDir(name string) bool {
	if skipDirs[name] {
		return true
	}
	return strings.HasPrefix(name, ".") && name != "."
}

// relTo yields the slash-separated path of full relative to root for
// pattern matching.
func relTo(root, full string) string {
	rel, err := filepath.Rel(root, full)
	if err != nil {
		rel = full
	}
	return filepath.ToSlash(rel)
}

func isIncluded(rel string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if matchPattern(rel, pattern) {
			return true
		}
	}
	return false
}

func isExcluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchPattern(rel, pattern) {
			return true
		}
	}
	return false
}

// matchPattern matches rel against a doublestar pattern; bare patterns
// without a separator also match on the basename alone.
func matchPattern(rel, pattern string) bool {
	if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
		return true
	}
	if !strings.Contains(pattern, "/") {
		if matched, err := doublestar.Match(pattern, filepath.Base(rel)); err == nil && matched {
			return true
		}
	}
	return false
}

func validateScope(scope Scope) error {
	if scope.Path == "" {
		return fmt.Errorf("scan path is required")
	}
	info, err := os.Stat(scope.Path)
	if err != nil {
		return fmt.Errorf("cannot access path %s: %w", scope.Path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path %s is not a directory", scope.Path)
	}
	return nil
}

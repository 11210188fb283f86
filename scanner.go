package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gitignore "github.com/monochromegane/go-gitignore"
)

// Directory names pruned from every scan, merged with caller additions.
var defaultExcludedDirs = []string{
	"node_modules", "venv", "env", ".venv", ".git", ".idea", "__pycache__",
	"bin", "obj", "target", ".vscode", "build", "dist", ".vs", ".gradle",
	".svn", ".hg", "bower_components", ".tox", ".pytest_cache", ".mypy_cache",
	".cache", "logs", "log",
}

// File extensions excluded from every scan, merged with caller additions.
var defaultExcludedExts = []string{
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".ico", ".svg",
	".exe", ".dll", ".so", ".dylib", ".bin",
	".pdf", ".doc", ".docx", ".ppt", ".pptx", ".xls", ".xlsx",
	".zip", ".rar", ".7z", ".tar", ".gz",
	".pyc", ".pyo", ".pyd", ".class", ".o", ".a",
	".db", ".sqlite", ".sqlite3",
	".mp3", ".mp4", ".avi", ".mov", ".wav",
}

const (
	minScanWorkers = 4
	maxScanWorkers = 12

	// Minimum interval between progress callbacks, regardless of how many
	// workers are producing updates.
	progressInterval = 100 * time.Millisecond
)

// Scanner walks a project tree with a pool of workers sharing one queue of
// pending directories, applying the exclusion rules to every entry.
type Scanner struct {
	root     string
	excluded ExclusionSet
	ignore   gitignore.IgnoreMatcher // nil when .gitignore handling is off
}

// NewScanner creates a Scanner rooted at root. When respectGitignore is set
// and a .gitignore exists at the root, its rules are applied in addition to
// the exclusion set.
func NewScanner(root string, excluded ExclusionSet, respectGitignore bool) *Scanner {
	s := &Scanner{root: root, excluded: excluded}
	if respectGitignore {
		ignorePath := filepath.Join(root, ".gitignore")
		if _, err := os.Stat(ignorePath); err == nil {
			matcher, err := gitignore.NewGitIgnore(ignorePath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not parse %s: %v\n", ignorePath, err)
			} else {
				s.ignore = matcher
			}
		}
	}
	return s
}

// Scan traverses the tree and returns the surviving files sorted by path.
// The sort makes the result deterministic regardless of worker count or
// discovery order. A cancelled scan always returns an empty slice, never a
// partial one. The progress callback is throttled and receives a final
// Done-marked call once traversal completes.
func (s *Scanner) Scan(cancel func() bool, progress func(Progress)) []FileEntry {
	if info, err := os.Stat(s.root); err != nil || !info.IsDir() {
		return nil
	}

	workers := runtime.NumCPU()
	if workers < minScanWorkers {
		workers = minScanWorkers
	}
	if workers > maxScanWorkers {
		workers = maxScanWorkers
	}

	var (
		mu      sync.Mutex
		files   []FileEntry
		scanned int
	)
	var cancelled atomic.Bool
	throttle := newProgressThrottle(progress, progressInterval)

	queue := newDirQueue()
	queue.push(s.root)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if cancelled.Load() || (cancel != nil && cancel()) {
					cancelled.Store(true)
					queue.shutdown()
					return
				}
				dir, ok := queue.pop()
				if !ok {
					return
				}
				s.scanDir(dir, queue, cancel, &cancelled, func(entry FileEntry, valid bool) {
					mu.Lock()
					scanned++
					if valid {
						files = append(files, entry)
					}
					count := len(files)
					mu.Unlock()
					throttle.report(count, entry.Path)
				})
				queue.done()
			}
		}()
	}
	wg.Wait()

	if cancelled.Load() {
		return nil
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	if progress != nil {
		progress(Progress{Count: len(files), Done: true})
	}
	return files
}

// scanDir lists one directory, enqueues surviving subdirectories and reports
// every regular file through record. Traversal errors are absorbed here so a
// bad directory never aborts the scan.
func (s *Scanner) scanDir(dir string, queue *dirQueue, cancel func() bool, cancelled *atomic.Bool, record func(FileEntry, bool)) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot read directory %s: %v\n", dir, err)
		return
	}
	for _, entry := range entries {
		if cancelled.Load() || (cancel != nil && cancel()) {
			cancelled.Store(true)
			queue.shutdown()
			return
		}
		name := entry.Name()
		// Symbolic links are never followed; this also prevents cycles.
		if entry.Type()&fs.ModeSymlink != 0 {
			continue
		}
		hidden := strings.HasPrefix(name, ".")
		path := filepath.Join(dir, name)
		if entry.IsDir() {
			if hidden || s.excluded.ExcludesDir(name) || s.ignored(path, true) {
				continue
			}
			queue.push(path)
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		fe := FileEntry{Path: path, Ext: ext, Hidden: hidden}
		valid := !hidden && !s.excluded.ExcludesExt(ext) && !s.ignored(path, false)
		record(fe, valid)
	}
}

func (s *Scanner) ignored(path string, isDir bool) bool {
	if s.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return false
	}
	return s.ignore.Match(rel, isDir)
}

// StructureSummary returns the top-level directory names and the set of file
// extensions observed under root, both sorted. Hidden entries are skipped.
// This is the input handed to the advisory exclusion service.
func StructureSummary(root string) ([]string, []string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read project directory %s: %w", root, err)
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			dirs = append(dirs, entry.Name())
		}
	}

	extSet := make(map[string]struct{})
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // keep walking siblings
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if ext := strings.ToLower(filepath.Ext(d.Name())); ext != "" {
			extSet[ext] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	exts := make([]string, 0, len(extSet))
	for ext := range extSet {
		exts = append(exts, ext)
	}
	sort.Strings(dirs)
	sort.Strings(exts)
	return dirs, exts, nil
}

// dirQueue is an unbounded multi-producer multi-consumer queue of pending
// directories. Once every pushed directory has been marked done and nothing
// new can arrive, the queue closes itself and releases all blocked workers.
type dirQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []string
	pending int
	closed  bool
}

func newDirQueue() *dirQueue {
	q := &dirQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push enqueues a directory. The caller must balance it with done().
func (q *dirQueue) push(dir string) {
	q.mu.Lock()
	q.pending++
	q.items = append(q.items, dir)
	q.mu.Unlock()
	q.cond.Signal()
}

// pop blocks until a directory is available or the queue has shut down.
// The second return value is false once no more work will arrive.
func (q *dirQueue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return "", false
	}
	dir := q.items[0]
	q.items = q.items[1:]
	return dir, true
}

// done marks one pushed directory as fully processed. When the count drains
// to zero the queue closes and every waiting worker is released.
func (q *dirQueue) done() {
	q.mu.Lock()
	q.pending--
	if q.pending == 0 {
		q.closed = true
		q.cond.Broadcast()
	}
	q.mu.Unlock()
}

// shutdown discards queued work and releases all workers immediately.
// Used on cancellation.
func (q *dirQueue) shutdown() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()
	q.cond.Broadcast()
}

// progressThrottle rate-limits progress callbacks so parallel workers do not
// flood a single consumer.
type progressThrottle struct {
	mu   sync.Mutex
	last time.Time
	min  time.Duration
	fn   func(Progress)
}

func newProgressThrottle(fn func(Progress), min time.Duration) *progressThrottle {
	return &progressThrottle{min: min, fn: fn}
}

func (t *progressThrottle) report(count int, path string) {
	if t.fn == nil {
		return
	}
	t.mu.Lock()
	now := time.Now()
	if now.Sub(t.last) < t.min {
		t.mu.Unlock()
		return
	}
	t.last = now
	t.mu.Unlock()
	t.fn(Progress{Count: count, Path: path})
}

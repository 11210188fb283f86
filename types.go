package main

import "strings"

// FileEntry describes a single file discovered during the scan.
// Entries are immutable once created.
type FileEntry struct {
	Path   string // absolute path
	Ext    string // lower-cased extension, including the leading dot
	Hidden bool
}

// ExclusionSet holds the merged exclusion rules for one scan: directory
// names matched exactly and file extensions matched case-insensitively.
// It must not be modified while a scan is running.
type ExclusionSet struct {
	dirs map[string]struct{}
	exts map[string]struct{}
}

// NewExclusionSet merges the built-in default rules with caller-supplied
// additions. Extensions are normalized to a lower-cased ".ext" form.
func NewExclusionSet(extraDirs, extraExts []string) ExclusionSet {
	s := ExclusionSet{
		dirs: make(map[string]struct{}, len(defaultExcludedDirs)+len(extraDirs)),
		exts: make(map[string]struct{}, len(defaultExcludedExts)+len(extraExts)),
	}
	for _, d := range defaultExcludedDirs {
		s.dirs[d] = struct{}{}
	}
	for _, d := range extraDirs {
		if d = strings.TrimSpace(d); d != "" {
			s.dirs[d] = struct{}{}
		}
	}
	for _, e := range defaultExcludedExts {
		s.exts[e] = struct{}{}
	}
	for _, e := range extraExts {
		if e = normalizeExt(e); e != "" {
			s.exts[e] = struct{}{}
		}
	}
	return s
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ExcludesDir reports whether a directory with the given name is pruned.
func (s ExclusionSet) ExcludesDir(name string) bool {
	_, ok := s.dirs[name]
	return ok
}

// ExcludesExt reports whether files with the given extension are excluded.
func (s ExclusionSet) ExcludesExt(ext string) bool {
	_, ok := s.exts[strings.ToLower(ext)]
	return ok
}

// DecodedFile is one file after reading, decoding and (optionally)
// comment stripping. Content is always valid UTF-8 text, possibly empty.
type DecodedFile struct {
	Name    string // path relative to the scan root, slash-separated
	Content string
}

// Page is one fully laid-out page of display lines. The paginator
// guarantees len(Lines) never exceeds the configured lines-per-page and
// that every line fits the configured content width.
type Page struct {
	Lines []string
}

// Progress is delivered to the scan progress callback. The final callback
// after traversal completes carries Done=true and the total file count.
type Progress struct {
	Count int    // valid files found so far
	Path  string // most recently visited path, empty on the final callback
	Done  bool
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGitURL(t *testing.T) {
	assert.True(t, isGitURL("https://github.com/user/repo.git"))
	assert.True(t, isGitURL("git@github.com:user/repo.git"))
	assert.True(t, isGitURL("git@example.com:group/project"))
	assert.False(t, isGitURL("/home/user/project"))
	assert.False(t, isGitURL("."))
	assert.False(t, isGitURL("C:\\projects\\app"))
}

func writeEntry(t *testing.T, root, rel, content string) FileEntry {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	ext := filepath.Ext(rel)
	return FileEntry{Path: path, Ext: ext}
}

func TestReadAndStrip(t *testing.T) {
	root := t.TempDir()
	entries := []FileEntry{
		writeEntry(t, root, "a.go", "package a // pkg comment\n\nvar X = 1\n"),
		writeEntry(t, root, "sub/b.py", "# only a comment\n"),
		writeEntry(t, root, "empty.txt", ""),
		writeEntry(t, root, "c.txt", "plain // kept\n"),
	}

	contents, totalLines := readAndStrip(entries, root, true, builtinStrategyTable(), 4, nil)

	// b.py and empty.txt vanish: one is all comment, one is empty.
	require.Len(t, contents, 2)
	assert.Equal(t, "a.go", contents[0].Name)
	assert.Equal(t, "package a \n\nvar X = 1\n", contents[0].Content)
	assert.Equal(t, "c.txt", contents[1].Name)
	assert.Equal(t, "plain // kept\n", contents[1].Content, "unknown extensions are never stripped")
	assert.Equal(t, 6, totalLines)
}

func TestReadAndStripKeepComments(t *testing.T) {
	root := t.TempDir()
	entries := []FileEntry{
		writeEntry(t, root, "a.go", "package a // kept\n"),
	}
	contents, _ := readAndStrip(entries, root, false, builtinStrategyTable(), 1, nil)
	require.Len(t, contents, 1)
	assert.Equal(t, "package a // kept\n", contents[0].Content)
}

func TestReadAndStripPreservesOrder(t *testing.T) {
	root := t.TempDir()
	var entries []FileEntry
	for i := 0; i < 40; i++ {
		entries = append(entries, writeEntry(t, root, fmt.Sprintf("d/f%02d.txt", i), "line\n"))
	}
	contents, _ := readAndStrip(entries, root, true, builtinStrategyTable(), 8, nil)
	require.Len(t, contents, len(entries))
	for i, df := range contents {
		rel, err := filepath.Rel(root, entries[i].Path)
		require.NoError(t, err)
		assert.Equal(t, filepath.ToSlash(rel), df.Name, "output order matches input order")
	}
}

func TestReadAndStripCancelled(t *testing.T) {
	root := t.TempDir()
	entries := []FileEntry{
		writeEntry(t, root, "a.txt", "x\n"),
		writeEntry(t, root, "b.txt", "y\n"),
	}
	contents, lines := readAndStrip(entries, root, true, builtinStrategyTable(), 2, func() bool { return true })
	assert.Nil(t, contents)
	assert.Zero(t, lines)
}

func TestReadAndStripMissingFileDropped(t *testing.T) {
	root := t.TempDir()
	entries := []FileEntry{
		writeEntry(t, root, "real.txt", "content\n"),
		{Path: filepath.Join(root, "gone.txt"), Ext: ".txt"},
	}
	contents, _ := readAndStrip(entries, root, true, builtinStrategyTable(), 2, nil)
	require.Len(t, contents, 1)
	assert.Equal(t, "real.txt", contents[0].Name)
}

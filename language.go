package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Built-in extension to strip-strategy table. Extensions are lower-cased
// with the leading dot.
var defaultStrategyExts = map[stripStrategy][]string{
	strategyPython: {".py", ".pyw"},
	strategyCStyle: {
		".c", ".cpp", ".h", ".hpp", ".cc", ".cxx", ".m", ".mm",
		".java", ".js", ".ts", ".jsx", ".tsx", ".cs", ".go", ".rs",
		".swift", ".kt", ".scala", ".php", ".css", ".scss", ".less",
	},
	strategyMarkup: {".html", ".htm", ".xml", ".svg", ".vue"},
}

// strategyOverrides is the shape of an optional strategies.yml file that maps
// additional extensions onto the built-in strategies.
type strategyOverrides struct {
	Python []string `yaml:"python"`
	CStyle []string `yaml:"c_style"`
	Markup []string `yaml:"markup"`
}

func builtinStrategyTable() map[string]stripStrategy {
	table := make(map[string]stripStrategy)
	for strategy, exts := range defaultStrategyExts {
		for _, ext := range exts {
			table[ext] = strategy
		}
	}
	return table
}

// loadStrategyTable builds the dispatch table, then merges any strategies.yml
// found in the standard config locations over it. A broken override file is
// reported and ignored so stripping still works with the defaults.
func loadStrategyTable() map[string]stripStrategy {
	table := builtinStrategyTable()

	path := findStrategyFile()
	if path == "" {
		return table
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not read %s: %v\n", path, err)
		return table
	}
	var overrides strategyOverrides
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not parse %s: %v\n", path, err)
		return table
	}
	merge := func(exts []string, strategy stripStrategy) {
		for _, ext := range exts {
			if ext = normalizeExt(ext); ext != "" {
				table[ext] = strategy
			}
		}
	}
	merge(overrides.Python, strategyPython)
	merge(overrides.CStyle, strategyCStyle)
	merge(overrides.Markup, strategyMarkup)
	fmt.Fprintf(os.Stderr, "Loaded strip-strategy overrides from %s\n", path)
	return table
}

// findStrategyFile looks for strategies.yml in the user config directory and
// the working directory, in that order.
func findStrategyFile() string {
	var candidates []string
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "srcpdf", "strategies.yml"))
	}
	candidates = append(candidates, "strategies.yml")
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Document identity
	softwareName string
	releaseLabel string
	outputPath   string

	// Filtering
	excludeDirsFlag []string
	excludeExtsFlag []string
	noIgnore        bool

	// Processing
	keepComments bool
	numWorkers   int

	// Truncation policy
	headPages int
	tailPages int

	// Advisory service
	useAdvisor      bool
	advisorProvider string

	writeConfig bool
)

// version is the application version, set via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "srcpdf [path|git-url]",
	Short: "srcpdf turns a source tree into a bounded, paginated PDF document.",
	Long: `srcpdf scans a project directory (or a Git repository URL), filters out
non-source material, optionally strips comments, and lays the remaining code
out as a paginated PDF suitable for formal submission. When the document
exceeds the page cap, only the first and last pages are kept.`,
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	RunE:    run,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show effective settings, or write a starter config file with --init",
	RunE: func(cmd *cobra.Command, args []string) error {
		if writeConfig {
			path, err := writeDefaultConfig()
			if err != nil {
				return fmt.Errorf("could not write config: %w", err)
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		}
		for _, key := range []string{"advisor.provider", "advisor.api_key_env", "advisor.base_url", "advisor.model", "exclude_dirs", "exclude_exts"} {
			fmt.Printf("%s = %v\n", key, viper.Get(key))
		}
		return nil
	},
}

func run(cmd *cobra.Command, args []string) error {
	if softwareName == "" {
		return fmt.Errorf("a software name is required (--name)")
	}
	if outputPath == "" {
		outputPath = strings.ReplaceAll(softwareName, " ", "_") + "_SourceCode.pdf"
	}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cancelled := func() bool {
		select {
		case <-ctx.Done():
			return true
		default:
			return false
		}
	}

	if isGitURL(root) {
		tempDir, err := cloneGitRepo(root)
		if err != nil {
			return err
		}
		defer func() {
			fmt.Printf("Cleaning up temporary directory: %s\n", tempDir)
			_ = os.RemoveAll(tempDir)
		}()
		root = tempDir
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("cannot resolve project directory: %w", err)
	}

	cfgDirs, cfgExts := configuredExclusions()
	extraDirs := append(cfgDirs, excludeDirsFlag...)
	extraExts := append(cfgExts, excludeExtsFlag...)

	if useAdvisor {
		extraDirs, extraExts = consultAdvisor(ctx, root, extraDirs, extraExts)
	}
	exclusions := NewExclusionSet(extraDirs, extraExts)

	// --- Scan phase ---
	start := time.Now()
	fmt.Printf("Scanning %s...\n", root)
	scanner := NewScanner(root, exclusions, !noIgnore)
	files := scanner.Scan(cancelled, func(p Progress) {
		if p.Done {
			fmt.Printf("\rScan complete: %d files found%-30s\n", p.Count, "")
		} else {
			fmt.Printf("\rFound %d files... %-50.50s", p.Count, filepath.Base(p.Path))
		}
	})
	if cancelled() {
		color.Yellow("Cancelled.")
		return nil
	}
	if len(files) == 0 {
		return fmt.Errorf("no source files found under %s", root)
	}
	fmt.Printf("Scan took %.2fs\n", time.Since(start).Seconds())

	// --- Read + decode + strip phase ---
	readStart := time.Now()
	table := loadStrategyTable()
	contents, totalLines := readAndStrip(files, root, !keepComments, table, numWorkers, cancelled)
	if cancelled() {
		color.Yellow("Cancelled.")
		return nil
	}
	if len(contents) == 0 {
		return fmt.Errorf("all %d discovered files were empty after decoding", len(files))
	}
	fmt.Printf("Read %d files (%d non-empty, %d lines of code) in %.2fs\n",
		len(files), len(contents), totalLines, time.Since(readStart).Seconds())

	// --- Paginate + render phases ---
	genStart := time.Now()
	layout := defaultLayout()
	pages := paginate(contents, pageOptions{
		LinesPerPage: layout.linesPerPage(),
		ContentWidth: layout.contentWidth(),
		Measure:      newFontMetrics(layout),
		Cancel:       cancelled,
	})
	total, emitted, err := renderDocument(pages, renderOptions{
		Title:      softwareName,
		Version:    releaseLabel,
		OutputPath: outputPath,
		HeadPages:  headPages,
		TailPages:  tailPages,
		Layout:     layout,
		Cancel:     cancelled,
	})
	if err != nil {
		return err
	}
	if cancelled() {
		color.Yellow("Cancelled.")
		return nil
	}

	fmt.Printf("Rendering took %.2fs\n", time.Since(genStart).Seconds())
	color.Green("Done: %d logical pages, %d emitted to %s", total, emitted, outputPath)
	return nil
}

// consultAdvisor asks the advisory service for additional exclusion rules.
// Failures are reported and ignored; the service is strictly additive.
func consultAdvisor(ctx context.Context, root string, dirs, exts []string) ([]string, []string) {
	advisor, err := advisorFromSettings(advisorProvider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: advisory service unavailable: %v\n", err)
		return dirs, exts
	}
	topDirs, seenExts, err := StructureSummary(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not summarize project structure: %v\n", err)
		return dirs, exts
	}
	fmt.Println("Consulting advisory service for exclusion suggestions...")
	advice, err := advisor.SuggestExclusions(ctx, topDirs, seenExts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: advisory request failed: %v\n", err)
		return dirs, exts
	}
	if advice.Analysis != "" {
		fmt.Printf("Advisory analysis: %s\n", advice.Analysis)
	}
	fmt.Printf("Advisory exclusions: %d directories, %d extensions\n", len(advice.Dirs), len(advice.Exts))
	return append(dirs, advice.Dirs...), append(exts, advice.Exts...)
}

// Upper bound for the read/decode/strip worker pool.
const maxReadWorkers = 16

// readAndStrip reads, decodes and (optionally) comment-strips every scanned
// file using a bounded worker pool. Results are written into a slice indexed
// by scan position so the output keeps the deterministic scan order
// regardless of completion order. Empty files are dropped. Returns the
// surviving contents and the total line count.
func readAndStrip(entries []FileEntry, root string, strip bool, table map[string]stripStrategy, workers int, cancel func() bool) ([]DecodedFile, int) {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	if workers > maxReadWorkers {
		workers = maxReadWorkers
	}

	results := make([]DecodedFile, len(entries))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				entry := entries[i]
				text := readFileText(entry.Path)
				if strip {
					text = stripComments(text, entry.Ext, table)
				}
				name := entry.Path
				if rel, err := filepath.Rel(root, entry.Path); err == nil {
					name = filepath.ToSlash(rel)
				}
				results[i] = DecodedFile{Name: name, Content: text}
			}
		}()
	}
	for i := range entries {
		if cancel != nil && cancel() {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if cancel != nil && cancel() {
		return nil, 0
	}
	var out []DecodedFile
	totalLines := 0
	for _, df := range results {
		if strings.TrimSpace(df.Content) == "" {
			continue
		}
		totalLines += strings.Count(df.Content, "\n") + 1
		out = append(out, df)
	}
	return out, totalLines
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().StringVarP(&softwareName, "name", "n", "", "Full software name printed in every page header")
	rootCmd.Flags().StringVarP(&releaseLabel, "release", "r", "V1.0.0", "Version label printed next to the name")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output PDF path (default <name>_SourceCode.pdf)")

	rootCmd.Flags().StringSliceVarP(&excludeDirsFlag, "exclude-dir", "d", nil, "Additional directory names to exclude")
	rootCmd.Flags().StringSliceVarP(&excludeExtsFlag, "exclude-ext", "e", nil, "Additional file extensions to exclude")
	rootCmd.Flags().BoolVar(&noIgnore, "no-ignore", false, "Don't respect the root .gitignore")
	viper.BindPFlag("no_ignore", rootCmd.Flags().Lookup("no-ignore"))

	rootCmd.Flags().BoolVar(&keepComments, "keep-comments", false, "Keep source comments instead of stripping them")
	rootCmd.Flags().IntVarP(&numWorkers, "workers", "t", 0, "Workers for the read phase (0 for auto)")
	viper.BindPFlag("workers", rootCmd.Flags().Lookup("workers"))

	rootCmd.Flags().IntVar(&headPages, "head-pages", 30, "Pages kept from the start when the document exceeds the cap")
	rootCmd.Flags().IntVar(&tailPages, "tail-pages", 30, "Pages kept from the end when the document exceeds the cap")
	viper.BindPFlag("head_pages", rootCmd.Flags().Lookup("head-pages"))
	viper.BindPFlag("tail_pages", rootCmd.Flags().Lookup("tail-pages"))

	rootCmd.Flags().BoolVar(&useAdvisor, "advise", false, "Ask the configured advisory service for extra exclusions")
	rootCmd.Flags().StringVar(&advisorProvider, "provider", "", "Advisory provider (deepseek, qwen, openai, anthropic, gemini)")

	configCmd.Flags().BoolVar(&writeConfig, "init", false, "Write a starter config file")
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/BenderFendor/feedingest/internal/config"
	"github.com/BenderFendor/feedingest/internal/extract"
	"github.com/BenderFendor/feedingest/internal/feed"
	"github.com/BenderFendor/feedingest/internal/ingest"
	"github.com/BenderFendor/feedingest/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "feedingest",
	Short:   "Concurrent RSS/Atom ingestion",
	Long:    "feedingest fetches many feed sources in parallel, normalizes their entries into articles, and reports per-source health.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for commands that do not need one
		switch cmd.Name() {
		case "init", "version", "extract":
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("feedingest", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/feedingest/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure sources and concurrency.")
		return nil
	},
}

// --- run command ---

var (
	maxConcurrent int
	prettyOutput  bool
	statsOnly     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest all configured sources and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := maxConcurrent
		if limit < 1 {
			limit = cfg.Fetch.MaxConcurrent
		}

		engine := ingest.New(ingest.Options{MaxConcurrent: limit})
		result, err := engine.Run(cfg.Sources)
		if err != nil {
			return fmt.Errorf("running ingestion: %w", err)
		}

		if statsOnly {
			printStats(result.SourceStats)
			fmt.Printf("\n%d articles in %dms (fetch %dms, parse %dms)\n",
				result.Metrics.ArticlesParsed,
				result.Metrics.TotalDurationMS,
				result.Metrics.FetchDurationMS,
				result.Metrics.ParseDurationMS)
			return nil
		}

		return writeJSON(os.Stdout, result, prettyOutput)
	},
}

func init() {
	runCmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 0, "Override the configured fetch concurrency limit")
	runCmd.Flags().BoolVar(&prettyOutput, "pretty", false, "Indent JSON output")
	runCmd.Flags().BoolVar(&statsOnly, "stats", false, "Print a per-source summary instead of JSON")
}

func printStats(stats map[string]feed.SourceStat) {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Sources:")
	for _, name := range names {
		stat := stats[name]
		fmt.Printf("  [%s] %s: %d articles\n", stat.Status, name, stat.ArticleCount)
		if stat.ErrorMessage != nil {
			fmt.Printf("      %s\n", *stat.ErrorMessage)
		}
		for _, sub := range stat.SubFeeds {
			fmt.Printf("      %s: %s (%d)\n", sub.URL, sub.Status, sub.ArticleCount)
		}
	}
}

// --- extract command ---

var (
	ogImage     bool
	readability bool
	pageURL     string
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract article fields or social images from an HTML document",
	Long:  "Reads HTML from a file (or stdin when no file is given) and prints the extraction as JSON.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		html, err := readInput(args)
		if err != nil {
			return err
		}

		if ogImage {
			result, err := extract.OGImageFromHTML(html)
			if err != nil {
				return fmt.Errorf("extracting og image: %w", err)
			}
			return writeJSON(os.Stdout, result, prettyOutput)
		}

		result, err := extract.FromHTML(html)
		if err != nil {
			return fmt.Errorf("extracting article: %w", err)
		}
		if readability && result.Text == "" {
			if text, rerr := extract.Readable(html, pageURL); rerr == nil {
				result.Text = text
			}
		}
		return writeJSON(os.Stdout, result, prettyOutput)
	},
}

func init() {
	extractCmd.Flags().BoolVar(&ogImage, "og-image", false, "Extract ranked social image candidates instead of article fields")
	extractCmd.Flags().BoolVar(&readability, "readability", false, "Fall back to readability extraction when no paragraphs match")
	extractCmd.Flags().StringVar(&pageURL, "url", "", "Page URL for resolving relative links in readability mode")
	extractCmd.Flags().BoolVar(&prettyOutput, "pretty", false, "Indent JSON output")
}

func readInput(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", args[0], err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON ingestion API",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(cfg, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

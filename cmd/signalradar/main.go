package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"signalradar/internal/collect"
	"signalradar/internal/config"
	"signalradar/internal/database"
	"signalradar/internal/pipeline"
	"signalradar/internal/server"
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
	Use:     "signalradar",
	Short:   "Weekly SaaS security signal radar",
	Long:    "SignalRadar collects hiring and conversation signals around SaaS security, classifies and ranks them, and exports weekly leaderboards.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
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

		switch strings.ToUpper(cfg.Logging.Level) {
		case "DEBUG":
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		case "ERROR":
			if !verbose {
				log.SetOutput(io.Discard)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("signalradar", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/signalradar/",
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
		fmt.Println("Edit it to configure feeds, subreddits, keywords, and the classifier backend.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		weekID := database.CurrentWeekID()
		fmt.Printf("Current week: %s\n\n", database.FormatWeekDisplay(weekID))
		fmt.Println("Items:")
		fmt.Printf("  Total collected: %d\n", stats.TotalItems)
		fmt.Printf("  Hiring: %d\n", stats.HiringItems)
		fmt.Printf("  Conversation: %d\n", stats.ConversationItems)
		fmt.Println("\nOutput:")
		fmt.Printf("  Weeks with data: %d\n", stats.WeeksWithData)
		fmt.Printf("  Ranked entities: %d\n", stats.RankedEntities)
		fmt.Printf("  Hot targets: %d\n", stats.HotTargets)
		fmt.Printf("  Completed runs: %d\n", stats.CompletedRuns)

		if run, _ := db.GetLatestRun(weekID); run != nil {
			fmt.Println("\nLatest run this week:")
			fmt.Printf("  Started: %s\n", run.StartedAt)
			fmt.Printf("  Status: %s\n", run.Status)
			if run.QuotaTripped {
				fmt.Println("  Classifier quota was exhausted during this run")
			}
		}
		return nil
	},
}

// --- collect command ---

var collectDaysBack int

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect signals from configured sources without classifying",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Collecting signals from sources...")

		// Preview only; nothing is persisted until 'run'.
		collector := collect.New(cfg, collectDaysBack)
		_, result := collector.Collect(context.Background())

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  Valid: %d\n", result.Valid)
		fmt.Printf("  Rejected: %d\n", result.Rejected)

		if len(result.Sources) > 0 {
			fmt.Println("\nItems by source:")
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool {
				if sorted[i].val != sorted[j].val {
					return sorted[i].val > sorted[j].val
				}
				return sorted[i].key < sorted[j].key
			})
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

func init() {
	collectCmd.Flags().IntVar(&collectDaysBack, "days-back", 7, "Lookback window for collection (days)")
}

// --- run command ---

var (
	dryRun   bool
	daysBack int
	runWeek  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> enrich -> classify -> dedupe -> rank -> export",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		weekID, err := resolveWeek(runWeek)
		if err != nil {
			return err
		}

		pipe := pipeline.New(cfg, db)

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(weekID)
		} else {
			result = pipe.Run(context.Background(), weekID, daysBack)
		}

		fmt.Printf("Week: %s\n", database.FormatWeekDisplay(weekID))
		for i, step := range result.Steps {
			fmt.Printf("\nStep %d: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		for _, step := range result.Steps {
			if step.Err != nil {
				return fmt.Errorf("pipeline failed at %s: %w", step.Name, step.Err)
			}
		}

		if !dryRun {
			fmt.Println("\nPipeline complete! Run 'signalradar serve' to view the report.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	runCmd.Flags().IntVar(&daysBack, "days-back", 7, "Lookback window for collection (days)")
	runCmd.Flags().StringVar(&runWeek, "week", "", "Week to run for (YYYY-Www, default: current week)")
}

// --- export command ---

var exportWeek string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Re-rank and export CSV files for a week from stored items",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		weekID, err := resolveWeek(exportWeek)
		if err != nil {
			return err
		}

		pipe := pipeline.New(cfg, db)
		result, err := pipe.Export(weekID)
		if err != nil {
			return fmt.Errorf("exporting %s: %w", weekID, err)
		}

		fmt.Printf("Exported %s:\n", database.FormatWeekDisplay(weekID))
		for _, f := range result.Files {
			fmt.Printf("  %s\n", f)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportWeek, "week", "", "Week to export (YYYY-Www, default: current week)")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if !cmd.Flags().Changed("port") && cfg.Server.Port > 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

func resolveWeek(explicit string) (string, error) {
	if explicit == "" {
		return database.CurrentWeekID(), nil
	}
	if _, err := database.ParseWeekID(explicit); err != nil {
		return "", err
	}
	return explicit, nil
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "signalradar.db")
	return database.Open(dbPath)
}

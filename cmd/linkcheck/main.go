// Package main is the entry point for the linkcheck scanner.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/linkcheck-scanner/linkcheck/internal/config"
	"github.com/linkcheck-scanner/linkcheck/internal/logger"
	"github.com/linkcheck-scanner/linkcheck/internal/report"
	"github.com/linkcheck-scanner/linkcheck/internal/scan"
	"github.com/linkcheck-scanner/linkcheck/internal/storage"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a JSON config file (flags override it)")
		rootDir    = flag.String("root", "", "root directory of the site tree")
		mode       = flag.String("mode", "", "checking mode: namespace or live")
		baseURL    = flag.String("base-url", "", "serving origin for live mode")
		siteRoot   = flag.String("site-root", "", "declared site root prefix (e.g. /auntruth)")
		site       = flag.String("site", "", "top-level site variant to scan")
		timeout    = flag.Duration("timeout", 0, "per-request timeout for live mode")
		workers    = flag.Int("workers", 0, "concurrent live checks")
		outputDir  = flag.String("out", "", "report output directory")
		format     = flag.String("format", "csv", "export format: csv, xlsx, json, or workbook")
		verbose    = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *rootDir != "" {
		cfg.RootDir = *rootDir
	}
	if *mode != "" {
		cfg.Mode = config.CheckMode(*mode)
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *siteRoot != "" {
		cfg.SiteRoot = *siteRoot
	}
	if *site != "" {
		cfg.SiteSelector = *site
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *workers > 0 {
		cfg.Concurrency = *workers
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	logger.Init(*verbose, cfg.LogFile)
	defer logger.Sync()
	log := logger.WithComponent("main")

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Fatalw("failed to create output directory", "error", err)
	}
	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(cfg.OutputDir, "linkcheck.db")
	}

	db, err := storage.NewDatabase(dbPath)
	if err != nil {
		log.Fatalw("failed to open database", "path", dbPath, "error", err)
	}
	defer db.Close()
	if err := db.Initialize(); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("received interrupt, stopping")
		cancel()
	}()

	scanner := scan.NewScanner(cfg, db)

	// Progress ticker; the report stays the real feedback channel.
	progressCtx, stopProgress := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-progressCtx.Done():
				return
			case <-ticker.C:
				stats := scanner.Stats()
				log.Infow("scanning",
					"state", stats.State,
					"documents", fmt.Sprintf("%d/%d", stats.FilesProcessed, stats.FilesTotal),
					"references", stats.ReferencesChecked,
					"elapsed", stats.ElapsedTime.Round(time.Second))
			}
		}
	}()

	runID, err := scanner.Run(ctx)
	stopProgress()
	if err != nil {
		log.Fatalw("scan failed", "error", err)
	}

	generator := report.NewGenerator(db)
	bulk := report.NewBulkExporter(generator, cfg.OutputDir)

	if *format == "workbook" {
		path, err := bulk.ExportWorkbook(runID)
		if err != nil {
			log.Fatalw("export failed", "error", err)
		}
		log.Infow("reports written", "workbook", path)
	} else {
		if err := bulk.ExportAll(runID, report.ExportFormat(*format)); err != nil {
			log.Fatalw("export failed", "error", err)
		}
		log.Infow("reports written", "dir", cfg.OutputDir, "format", *format)
	}

	stats := scanner.Stats()
	fmt.Println("\n========== Scan Complete ==========")
	fmt.Printf("Run ID: %d\n", runID)
	fmt.Printf("Documents Scanned: %d\n", stats.FilesProcessed)
	fmt.Printf("References Checked: %d\n", stats.ReferencesChecked)
	fmt.Printf("Broken Found: %d\n", stats.BrokenFound)
	fmt.Printf("Unreadable Files: %d\n", stats.FileErrors)
	fmt.Printf("Total Time: %v\n", stats.ElapsedTime.Round(time.Millisecond))
}

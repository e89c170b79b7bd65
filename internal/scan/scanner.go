// Package scan orchestrates a full link-integrity run: walk the tree,
// extract references, resolve and classify them, and persist the findings.
package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/linkcheck-scanner/linkcheck/internal/classify"
	"github.com/linkcheck-scanner/linkcheck/internal/config"
	"github.com/linkcheck-scanner/linkcheck/internal/extract"
	"github.com/linkcheck-scanner/linkcheck/internal/logger"
	"github.com/linkcheck-scanner/linkcheck/internal/namespace"
	"github.com/linkcheck-scanner/linkcheck/internal/report"
	"github.com/linkcheck-scanner/linkcheck/internal/resolve"
	"github.com/linkcheck-scanner/linkcheck/internal/storage"
)

// State is the scanner's lifecycle phase.
type State string

const (
	StateIdle        State = "idle"
	StateEnumerating State = "enumerating"
	StateProcessing  State = "processing"
	StateAggregating State = "aggregating"
	StateDone        State = "done"
)

// Stats holds scanner statistics for progress reporting.
type Stats struct {
	State             State
	FilesProcessed    int64
	FilesTotal        int64
	ReferencesChecked int64
	BrokenFound       int64
	FileErrors        int64
	StartTime         time.Time
	ElapsedTime       time.Duration
}

// Scanner runs one scan over a site tree.
type Scanner struct {
	cfg      *config.ScanConfig
	db       *storage.Database
	resolver *resolve.Resolver
	log      *zap.SugaredLogger

	// Built during the run
	snapshot   *namespace.Snapshot
	classifier *classify.Classifier
	live       *classify.LiveChecker
	cache      *resultCache

	// State
	state atomic.Value // State

	// Statistics
	filesProcessed atomic.Int64
	filesTotal     atomic.Int64
	refsChecked    atomic.Int64
	brokenFound    atomic.Int64
	fileErrors     atomic.Int64
	startTime      time.Time
}

// NewScanner creates a scanner. The database must already be initialized.
func NewScanner(cfg *config.ScanConfig, db *storage.Database) *Scanner {
	s := &Scanner{
		cfg:      cfg,
		db:       db,
		resolver: resolve.NewResolver(),
		log:      logger.WithComponent("scan"),
	}
	s.state.Store(StateIdle)
	return s
}

// Run executes the scan and returns the run's ID. Only an inaccessible root
// directory is fatal; unreadable documents and broken references are data.
func (s *Scanner) Run(ctx context.Context) (int64, error) {
	s.startTime = time.Now()

	// Enumerate the namespace once. The snapshot is read-only from here on
	// and shared by every worker.
	s.state.Store(StateEnumerating)
	snapshot, err := namespace.Build(s.cfg.RootDir)
	if err != nil {
		return 0, err
	}
	s.snapshot = snapshot
	s.classifier = classify.NewClassifier(snapshot, s.cfg.KnownPrefixes)
	s.cache = newResultCache()

	if s.cfg.Mode == config.ModeLive {
		live, err := classify.NewLiveChecker(s.cfg.BaseURL, s.cfg.Timeout, s.cfg.RequestsPerSecond, s.cfg.UserAgent, s.classifier)
		if err != nil {
			return 0, fmt.Errorf("invalid base URL: %w", err)
		}
		s.live = live
		defer s.live.Close()
	}

	docs := snapshot.Documents(s.cfg.IsMarkupExtension, s.cfg.SiteSelector)
	s.filesTotal.Store(int64(len(docs)))
	s.log.Infow("enumerated site tree",
		"files", snapshot.Len(), "documents", len(docs), "mode", s.cfg.Mode)

	cfgJSON, _ := json.Marshal(s.cfg)
	runID, err := s.db.InsertRun(&storage.Run{
		Mode:         string(s.cfg.Mode),
		RootDir:      s.cfg.RootDir,
		SiteSelector: s.cfg.SiteSelector,
		StartedAt:    s.startTime,
		ConfigJSON:   string(cfgJSON),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}

	s.state.Store(StateProcessing)
	agg := report.NewAggregator()

	if s.cfg.Mode == config.ModeLive {
		err = s.processConcurrent(ctx, runID, docs, agg)
	} else {
		err = s.processSequential(ctx, runID, docs, agg)
	}
	if err != nil {
		s.db.FinishRun(runID, storage.RunStatusFailed,
			int(s.filesProcessed.Load()), int(s.refsChecked.Load()),
			agg.Len(), int(s.fileErrors.Load()))
		return runID, err
	}

	s.state.Store(StateAggregating)
	findings := agg.Findings(runID)
	s.brokenFound.Store(int64(len(findings)))
	if err := s.db.InsertFindings(findings); err != nil {
		return runID, fmt.Errorf("failed to store findings: %w", err)
	}
	if err := s.db.FinishRun(runID, storage.RunStatusCompleted,
		int(s.filesProcessed.Load()), int(s.refsChecked.Load()),
		len(findings), int(s.fileErrors.Load())); err != nil {
		return runID, fmt.Errorf("failed to finish run: %w", err)
	}

	s.state.Store(StateDone)
	s.log.Infow("scan complete",
		"run", runID,
		"documents", s.filesProcessed.Load(),
		"references", s.refsChecked.Load(),
		"broken", len(findings),
		"file_errors", s.fileErrors.Load(),
		"elapsed", time.Since(s.startTime).Round(time.Millisecond))
	return runID, nil
}

// processSequential runs namespace mode: pure local computation, no benefit
// from parallelism. The aggregator is fed directly.
func (s *Scanner) processSequential(ctx context.Context, runID int64, docs []string, agg *report.Aggregator) error {
	for _, doc := range docs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		for _, occ := range s.processDocument(ctx, runID, doc) {
			agg.Add(occ)
		}
		s.noteProgress()
	}
	return nil
}

// processConcurrent runs live mode: a bounded pool of document workers, each
// feeding one collector goroutine that is the aggregator's only writer.
func (s *Scanner) processConcurrent(ctx context.Context, runID int64, docs []string, agg *report.Aggregator) error {
	results := make(chan report.Occurrence, s.cfg.Concurrency*4)

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for occ := range results {
			agg.Add(occ)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			for _, occ := range s.processDocument(gctx, runID, doc) {
				select {
				case results <- occ:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			s.noteProgress()
			return nil
		})
	}

	err := g.Wait()
	close(results)
	<-collectorDone
	return err
}

// processDocument extracts, resolves and classifies every reference in one
// document, returning the non-OK outcomes. A read failure is recorded and
// swallowed so the rest of the crawl keeps its coverage.
func (s *Scanner) processDocument(ctx context.Context, runID int64, doc string) []report.Occurrence {
	data, err := os.ReadFile(filepath.Join(s.cfg.RootDir, filepath.FromSlash(doc[1:])))
	if err != nil {
		s.fileErrors.Add(1)
		s.log.Warnw("unreadable document", "file", doc, "error", err)
		if dbErr := s.db.InsertFileError(&storage.FileError{RunID: runID, Path: doc, Message: err.Error()}); dbErr != nil {
			s.log.Errorw("failed to record file error", "file", doc, "error", dbErr)
		}
		return nil
	}

	var occurrences []report.Occurrence
	for _, ref := range extract.All(data, doc) {
		result, address, checked := s.checkReference(ctx, ref)
		if !checked {
			continue
		}
		s.refsChecked.Add(1)
		if result.Status == classify.StatusOK {
			continue
		}
		occurrences = append(occurrences, report.Occurrence{
			Address:    address,
			SourceFile: ref.SourceFile,
			RawText:    ref.RawText,
			Kind:       string(ref.Kind),
			Status:     string(result.Status),
			Reason:     string(result.Reason),
			Suggestion: result.Suggestion,
			HTTPStatus: result.HTTPStatus,
			CheckedAt:  result.CheckedAt,
		})
	}
	return occurrences
}

// checkReference resolves and classifies a single reference. checked is
// false for references excluded from checking (non-HTTP schemes, and
// external URLs in namespace mode, which has nothing to check them against).
func (s *Scanner) checkReference(ctx context.Context, ref extract.Reference) (classify.Result, string, bool) {
	target, err := s.resolver.Resolve(ref.SourceFile, ref.RawText)
	if err != nil {
		// Malformed references are findings, not faults. The raw text is
		// the only address they have.
		return classify.Malformed(), ref.RawText, true
	}
	if !target.Checkable {
		return classify.Result{}, "", false
	}

	address := target.Address()

	if target.IsExternal {
		if s.live == nil {
			return classify.Result{}, "", false
		}
		return s.cache.getOrCheck(address, func() classify.Result {
			return s.live.CheckURL(ctx, target.URL)
		}), address, true
	}

	if s.live != nil {
		return s.cache.getOrCheck(address, func() classify.Result {
			return s.live.CheckPath(ctx, target.Path)
		}), address, true
	}
	return s.cache.getOrCheck(address, func() classify.Result {
		return s.classifier.ClassifyPath(target.Path)
	}), address, true
}

// noteProgress bumps the processed counter and logs at the configured cadence.
func (s *Scanner) noteProgress() {
	n := s.filesProcessed.Add(1)
	if n%int64(s.cfg.ProgressEvery) == 0 {
		s.log.Infow("progress",
			"documents", n, "of", s.filesTotal.Load(),
			"references", s.refsChecked.Load(),
			"elapsed", time.Since(s.startTime).Round(time.Second))
	}
}

// Stats returns current scanner statistics.
func (s *Scanner) Stats() Stats {
	return Stats{
		State:             s.state.Load().(State),
		FilesProcessed:    s.filesProcessed.Load(),
		FilesTotal:        s.filesTotal.Load(),
		ReferencesChecked: s.refsChecked.Load(),
		BrokenFound:       s.brokenFound.Load(),
		FileErrors:        s.fileErrors.Load(),
		StartTime:         s.startTime,
		ElapsedTime:       time.Since(s.startTime),
	}
}

package classify

import (
	"context"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/linkcheck-scanner/linkcheck/internal/fetcher"
)

// LiveChecker validates targets by probing a serving origin. It shares one
// rate limiter across all workers so the origin never sees more than the
// configured requests per second, whatever the concurrency.
type LiveChecker struct {
	fetcher    *fetcher.Fetcher
	limiter    *rate.Limiter
	base       *url.URL
	classifier *Classifier
}

// NewLiveChecker creates a live checker against baseURL. classifier supplies
// the root-cause heuristics for targets the origin reports missing; it may
// be nil when no namespace snapshot is available, in which case live 404s
// classify as truly missing.
func NewLiveChecker(baseURL string, timeout time.Duration, requestsPerSecond float64, userAgent string, classifier *Classifier) (*LiveChecker, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &LiveChecker{
		fetcher:    fetcher.NewFetcher(timeout, userAgent),
		limiter:    rate.NewLimiter(limit, 1),
		base:       base,
		classifier: classifier,
	}, nil
}

// CheckPath probes an in-namespace path against the origin.
func (lc *LiveChecker) CheckPath(ctx context.Context, p string) Result {
	u := *lc.base
	u.Path = strings.TrimSuffix(u.Path, "/") + p
	return lc.check(ctx, u.String(), p)
}

// CheckURL probes an external URL.
func (lc *LiveChecker) CheckURL(ctx context.Context, rawURL string) Result {
	return lc.check(ctx, rawURL, "")
}

func (lc *LiveChecker) check(ctx context.Context, rawURL, namespacePath string) Result {
	result := Result{CheckedAt: time.Now()}

	if err := lc.limiter.Wait(ctx); err != nil {
		result.Status = StatusTimeout
		result.Reason = ReasonTimeout
		return result
	}

	probe := lc.fetcher.Check(ctx, rawURL)
	result.HTTPStatus = probe.StatusCode

	switch {
	case probe.TimedOut:
		result.Status = StatusTimeout
		result.Reason = ReasonTimeout
	case probe.Err != nil:
		// Connection-level failure. The origin gave us no page, which from
		// the report's point of view is a server-side problem.
		result.Status = StatusServerError
		result.Reason = ReasonServerError
	case probe.StatusCode >= 500:
		result.Status = StatusServerError
		result.Reason = ReasonServerError
	case probe.StatusCode >= 400:
		result.Status = StatusNotFound
		result.Reason = ReasonTrulyMissing
		// The origin only says "missing"; the namespace heuristics say why.
		if namespacePath != "" && lc.classifier != nil {
			fromSnapshot := lc.classifier.ClassifyPath(namespacePath)
			if fromSnapshot.Status != StatusOK {
				result.Reason = fromSnapshot.Reason
				result.Suggestion = fromSnapshot.Suggestion
			}
		}
	default:
		result.Status = StatusOK
	}
	return result
}

// Close releases the underlying HTTP resources.
func (lc *LiveChecker) Close() {
	lc.fetcher.Close()
}

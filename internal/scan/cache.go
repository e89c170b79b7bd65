package scan

import (
	"sync"

	"github.com/linkcheck-scanner/linkcheck/internal/classify"
)

// resultCache memoizes classification results per resolved address within a
// single run. The same broken image referenced from hundreds of pages gets
// classified (and in live mode, probed) once.
type resultCache struct {
	mu      sync.Mutex
	results map[string]classify.Result
	inFly   map[string]chan struct{}
}

func newResultCache() *resultCache {
	return &resultCache{
		results: make(map[string]classify.Result),
		inFly:   make(map[string]chan struct{}),
	}
}

// getOrCheck returns the cached result for address, running check exactly
// once per address. Concurrent callers for the same address wait for the
// first check instead of duplicating it.
func (c *resultCache) getOrCheck(address string, check func() classify.Result) classify.Result {
	for {
		c.mu.Lock()
		if result, ok := c.results[address]; ok {
			c.mu.Unlock()
			return result
		}
		wait, running := c.inFly[address]
		if !running {
			done := make(chan struct{})
			c.inFly[address] = done
			c.mu.Unlock()

			result := check()

			c.mu.Lock()
			c.results[address] = result
			delete(c.inFly, address)
			close(done)
			c.mu.Unlock()
			return result
		}
		c.mu.Unlock()
		<-wait
	}
}

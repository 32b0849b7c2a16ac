package runtime

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// ReadyCheck is a named dependency check for /readyz.
type ReadyCheck struct {
	Name  string
	Check func(context.Context) error
}

func NewBaseMuxWithReady(checks ...ReadyCheck) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		failures := runChecks(r.Context(), checks)
		if len(failures) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(strings.Join(failures, "; ")))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// runChecks probes all dependencies in parallel, each bounded by 2s.
func runChecks(ctx context.Context, checks []ReadyCheck) []string {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		failures []string
	)
	for _, check := range checks {
		if check.Check == nil {
			continue
		}
		wg.Add(1)
		go func(c ReadyCheck) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := c.Check(cctx); err != nil {
				name := c.Name
				if name == "" {
					name = "dependency"
				}
				mu.Lock()
				failures = append(failures, name+": "+err.Error())
				mu.Unlock()
			}
		}(check)
	}
	wg.Wait()
	sort.Strings(failures)
	return failures
}

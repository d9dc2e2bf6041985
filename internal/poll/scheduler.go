// Package poll fans polling ticks out into concurrent per-antenna fetches.
package poll

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"spectui/internal/source"
	"spectui/internal/spectra"
)

// Result is one antenna's outcome for one poll cycle.
type Result struct {
	Antenna  string
	Spectrum *spectra.Spectrum
	Err      error
}

// Scheduler launches one fetch per watched antenna per tick. Fetches run
// concurrently and fail independently; at most one fetch is in flight per
// antenna, so a slow backend never piles up duplicate requests. Completions
// stream out of Results in arrival order.
type Scheduler struct {
	src     source.Source
	timeout time.Duration
	results chan Result

	mu       sync.Mutex
	inflight map[string]struct{}
}

// resultBuffer bounds how many completions can queue before a fetch
// goroutine would block on delivery.
const resultBuffer = 64

// New builds a Scheduler over src. timeout caps each individual fetch;
// zero disables the cap.
func New(src source.Source, timeout time.Duration) *Scheduler {
	return &Scheduler{
		src:      src,
		timeout:  timeout,
		results:  make(chan Result, resultBuffer),
		inflight: make(map[string]struct{}),
	}
}

// Results delivers fetch completions. The channel is never closed; on
// shutdown the consumer simply stops reading and abandoned results are
// dropped by the fetch goroutines.
func (s *Scheduler) Results() <-chan Result {
	return s.results
}

// Tick starts a fetch for every antenna in the watch list that does not
// already have one in flight, and reports how many were launched. It never
// waits for completions.
func (s *Scheduler) Tick(ctx context.Context, antennas []string) int {
	launched := 0
	for _, antenna := range antennas {
		if s.claim(antenna) {
			launched++
			go s.fetch(ctx, antenna)
		}
	}
	return launched
}

// Inflight reports whether a fetch is currently running for the antenna.
func (s *Scheduler) Inflight(antenna string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[antenna]
	return ok
}

func (s *Scheduler) claim(antenna string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inflight[antenna]; ok {
		return false
	}
	s.inflight[antenna] = struct{}{}
	return true
}

func (s *Scheduler) release(antenna string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, antenna)
}

func (s *Scheduler) fetch(ctx context.Context, antenna string) {
	defer s.release(antenna)

	fctx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	spec, err := s.src.Fetch(fctx, antenna)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = source.ErrTimeout
	}
	if err != nil {
		log.WithFields(log.Fields{"antenna": antenna, "err": err}).Warn("fetch failed")
	} else {
		log.WithFields(log.Fields{"antenna": antenna, "captured": spec.Captured}).Debug("fetch complete")
	}

	select {
	case s.results <- Result{Antenna: antenna, Spectrum: spec, Err: err}:
	case <-ctx.Done():
		// Shutdown: nobody is reading anymore, drop the result.
	}
}

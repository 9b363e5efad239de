package picking

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// anomalyKind names a recoverable protocol violation or stale reference.
type anomalyKind string

const (
	anomalyUnknownPointer   anomalyKind = "unknown_pointer"
	anomalyBadButton        anomalyKind = "bad_button"
	anomalyRepeatedEdge     anomalyKind = "repeated_edge"
	anomalyDuplicateHit     anomalyKind = "duplicate_hit"
	anomalyBadDepth         anomalyKind = "bad_depth"
	anomalyNullEntity       anomalyKind = "null_entity"
	anomalyBackendError     anomalyKind = "backend_error"
	anomalyBackendLate      anomalyKind = "backend_late"
	anomalyStaleEntity      anomalyKind = "stale_entity"
	anomalyIgnoredPress     anomalyKind = "ignored_press"
	anomalyBubbleCycle      anomalyKind = "bubble_cycle"
	anomalyBubbleDepth      anomalyKind = "bubble_depth"
	anomalyDuplicatePointer anomalyKind = "duplicate_pointer"
	anomalyBadInput         anomalyKind = "bad_input"
)

// Anomalies are logged at most anomalyBurst times at once and then once per
// anomalyEvery per kind; every occurrence is still counted.
const (
	anomalyEvery = time.Second
	anomalyBurst = 5
)

// anomalies is the rate-limited diagnostic sink shared by every component of
// a Picker. It is safe for concurrent use.
type anomalies struct {
	mu       sync.Mutex
	logger   zerolog.Logger
	limiters map[anomalyKind]*rate.Limiter
	count    atomic.Int64
}

func newAnomalies(logger zerolog.Logger) *anomalies {
	return &anomalies{
		logger:   logger,
		limiters: make(map[anomalyKind]*rate.Limiter),
	}
}

func (a *anomalies) setLogger(logger zerolog.Logger) {
	a.mu.Lock()
	a.logger = logger
	a.mu.Unlock()
}

func (a *anomalies) report(kind anomalyKind, pointer PointerID, entity Entity, detail string) {
	a.count.Add(1)

	a.mu.Lock()
	lim, ok := a.limiters[kind]
	if !ok {
		lim = rate.NewLimiter(rate.Every(anomalyEvery), anomalyBurst)
		a.limiters[kind] = lim
	}
	allow := lim.Allow()
	logger := a.logger
	a.mu.Unlock()

	if !allow {
		return
	}
	ev := logger.Warn().Str("kind", string(kind)).Str("pointer", pointer.String())
	if entity != NoEntity {
		ev = ev.Uint64("entity", uint64(entity))
	}
	ev.Msg(detail)
}

// total returns the number of anomalies reported so far.
func (a *anomalies) total() int64 {
	return a.count.Load()
}

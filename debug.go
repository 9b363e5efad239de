package picking

import (
	"fmt"
	"time"
)

// FrameStats holds per-frame timing and volume metrics of the last Update.
// Timings are always recorded; SetDebugMode only controls logging them.
type FrameStats struct {
	Frame         uint64
	InputTime     time.Duration
	HitTestTime   time.Duration
	AggregateTime time.Duration
	InteractTime  time.Duration
	DispatchTime  time.Duration
	Pointers      int
	Hits          int
	Events        int
	Anomalies     int
}

// Total returns the sum of all phase timings.
func (s FrameStats) Total() time.Duration {
	return s.InputTime + s.HitTestTime + s.AggregateTime + s.InteractTime + s.DispatchTime
}

// LastFrameStats returns the stats of the last completed Update.
func (p *Picker) LastFrameStats() FrameStats {
	return p.stats
}

// debugLog writes timing and volume stats at debug level.
func (p *Picker) debugLog(stats FrameStats) {
	p.logger.Debug().
		Uint64("frame", stats.Frame).
		Dur("input", stats.InputTime).
		Dur("hit_test", stats.HitTestTime).
		Dur("aggregate", stats.AggregateTime).
		Dur("interact", stats.InteractTime).
		Dur("dispatch", stats.DispatchTime).
		Dur("total", stats.Total()).
		Int("pointers", stats.Pointers).
		Int("hits", stats.Hits).
		Int("events", stats.Events).
		Int("anomalies", stats.Anomalies).
		Msg("picking frame")
}

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation. Only called when the scene is in debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("picking debug: %s on disposed node %q", op, n.Name))
	}
}

// debugMaxTreeDepth is the node depth past which debug mode warns.
const debugMaxTreeDepth = defaultMaxBubbleDepth / 2

func (s *Scene) debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		s.logger.Warn().Int("depth", depth).Int("threshold", debugMaxTreeDepth).
			Str("node", n.Name).Msg("scene tree depth exceeds threshold")
	}
}

// debugMaxChildCount is the child count past which debug mode warns.
const debugMaxChildCount = 1000

func (s *Scene) debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		s.logger.Warn().Int("children", len(n.children)).Int("threshold", debugMaxChildCount).
			Str("node", n.Name).Msg("node child count exceeds threshold")
	}
}

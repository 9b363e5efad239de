package picking

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ClickPolicy decides when a press released without dragging emits Click.
type ClickPolicy uint8

const (
	// ClickSameEntity emits Click only when the pressed entity is still under
	// the pointer at release. This is the default.
	ClickSameEntity ClickPolicy = iota
	// ClickReleaseAnywhere emits Click on the pressed entity wherever the
	// pointer is released.
	ClickReleaseAnywhere
)

func (p ClickPolicy) String() string {
	switch p {
	case ClickSameEntity:
		return "same_entity"
	case ClickReleaseAnywhere:
		return "release_anywhere"
	default:
		return fmt.Sprintf("ClickPolicy(%d)", uint8(p))
	}
}

// ParseClickPolicy parses "same_entity" or "release_anywhere".
func ParseClickPolicy(s string) (ClickPolicy, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "same_entity", "same":
		return ClickSameEntity, nil
	case "release_anywhere", "anywhere":
		return ClickReleaseAnywhere, nil
	default:
		return 0, fmt.Errorf("unknown click policy %q", s)
	}
}

const (
	defaultDragThreshold  = 4.0 // location units (screen pixels)
	defaultMaxBubbleDepth = 64
)

// Config holds the tunables of a Picker.
type Config struct {
	// DragThreshold is the distance, in location units, a press must travel
	// from its start before it becomes a drag. The comparison is strict.
	DragThreshold float64
	// ClickPolicy selects the click-on-release rule.
	ClickPolicy ClickPolicy
	// BackendOrder lists backend names from highest to lowest priority. Listed
	// backends outrank every unlisted one; unlisted backends keep their
	// declared Layer.
	BackendOrder []string
	// BackendTimeout bounds the hit-test phase through the context handed to
	// each backend. Zero means no deadline beyond the context passed to
	// Update. The deadline is cooperative: results arriving after it are
	// discarded, but Update still waits for a backend that ignores its
	// context to return.
	BackendTimeout time.Duration
	// MaxBubbleDepth bounds how many ancestors an event visits.
	MaxBubbleDepth int
	// ParallelPointers steps pointer state machines concurrently.
	ParallelPointers bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DragThreshold:  defaultDragThreshold,
		ClickPolicy:    ClickSameEntity,
		MaxBubbleDepth: defaultMaxBubbleDepth,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.DragThreshold < 0 {
		return fmt.Errorf("drag_threshold must be >= 0, got %v", c.DragThreshold)
	}
	if c.ClickPolicy > ClickReleaseAnywhere {
		return fmt.Errorf("invalid click policy %d", c.ClickPolicy)
	}
	if c.BackendTimeout < 0 {
		return fmt.Errorf("backend_timeout must be >= 0, got %v", c.BackendTimeout)
	}
	if c.MaxBubbleDepth < 1 {
		return fmt.Errorf("max_bubble_depth must be >= 1, got %d", c.MaxBubbleDepth)
	}
	return nil
}

type fileConfig struct {
	DragThreshold    float64  `toml:"drag_threshold"`
	ClickPolicy      string   `toml:"click_policy"`
	BackendOrder     []string `toml:"backend_order"`
	BackendTimeout   string   `toml:"backend_timeout"`
	MaxBubbleDepth   int      `toml:"max_bubble_depth"`
	ParallelPointers bool     `toml:"parallel_pointers"`
}

// LoadConfig reads a TOML file and overlays it on DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load picking config (%s): %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("load picking config (%s): %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML and overlays the keys it defines on DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse picking config: %w", err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return Config{}, fmt.Errorf("parse picking config: unknown key %q", undec[0].String())
	}

	if meta.IsDefined("drag_threshold") {
		cfg.DragThreshold = raw.DragThreshold
	}
	if meta.IsDefined("click_policy") {
		p, err := ParseClickPolicy(raw.ClickPolicy)
		if err != nil {
			return Config{}, fmt.Errorf("parse click_policy: %w", err)
		}
		cfg.ClickPolicy = p
	}
	if meta.IsDefined("backend_order") {
		order := make([]string, 0, len(raw.BackendOrder))
		for _, name := range raw.BackendOrder {
			if name = strings.TrimSpace(name); name != "" {
				order = append(order, name)
			}
		}
		cfg.BackendOrder = order
	}
	if meta.IsDefined("backend_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.BackendTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse backend_timeout: %w", err)
		}
		cfg.BackendTimeout = d
	}
	if meta.IsDefined("max_bubble_depth") {
		cfg.MaxBubbleDepth = raw.MaxBubbleDepth
	}
	if meta.IsDefined("parallel_pointers") {
		cfg.ParallelPointers = raw.ParallelPointers
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("parse picking config: %w", err)
	}
	return cfg, nil
}

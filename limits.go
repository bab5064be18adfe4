package courtside

import "time"

// Operational defaults for the orchestration loop. All of them are tuning
// knobs, overridable per Engine via Limits.
const (
	// DefaultMaxRounds caps upstream-stream consumption cycles per request.
	DefaultMaxRounds = 4
	// DefaultMaxConcurrent caps tool executions running at once in a round.
	DefaultMaxConcurrent = 4
	// DefaultCallTimeout is the per-tool-call execution budget.
	DefaultCallTimeout = 10 * time.Second
	// DefaultBudget is the overall wall-clock budget per request.
	DefaultBudget = 300 * time.Second
	// DefaultSafetyBuffer is the minimum remaining budget required to start
	// another round.
	DefaultSafetyBuffer = 5 * time.Second
	// DefaultCacheTTL is how long a tool result stays servable from cache.
	DefaultCacheTTL = 30 * time.Second
	// DefaultCacheSize is the resident entry ceiling of the result cache.
	DefaultCacheSize = 256
)

// Limits bundles the engine's tuning knobs. Zero fields fall back to the
// Default* constants.
type Limits struct {
	MaxRounds     int
	MaxConcurrent int
	CallTimeout   time.Duration
	Budget        time.Duration
	SafetyBuffer  time.Duration
	CacheTTL      time.Duration
	CacheSize     int
}

// DefaultLimits returns Limits with every knob at its default.
func DefaultLimits() Limits {
	return Limits{
		MaxRounds:     DefaultMaxRounds,
		MaxConcurrent: DefaultMaxConcurrent,
		CallTimeout:   DefaultCallTimeout,
		Budget:        DefaultBudget,
		SafetyBuffer:  DefaultSafetyBuffer,
		CacheTTL:      DefaultCacheTTL,
		CacheSize:     DefaultCacheSize,
	}
}

// withDefaults fills zero fields with defaults.
func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxRounds <= 0 {
		l.MaxRounds = d.MaxRounds
	}
	if l.MaxConcurrent <= 0 {
		l.MaxConcurrent = d.MaxConcurrent
	}
	if l.CallTimeout <= 0 {
		l.CallTimeout = d.CallTimeout
	}
	if l.Budget <= 0 {
		l.Budget = d.Budget
	}
	if l.SafetyBuffer <= 0 {
		l.SafetyBuffer = d.SafetyBuffer
	}
	if l.CacheTTL <= 0 {
		l.CacheTTL = d.CacheTTL
	}
	if l.CacheSize <= 0 {
		l.CacheSize = d.CacheSize
	}
	return l
}

package courtside

import (
	"context"
	"log/slog"
	"time"
)

// Engine drives the tool-calling orchestration loop. One Engine serves many
// concurrent requests; the only state shared between them is the result
// cache.
type Engine struct {
	registry *Registry
	cache    *ResultCache
	limits   Limits
	tracer   Tracer
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLimits overrides the default tuning knobs. Zero fields keep defaults.
func WithLimits(l Limits) EngineOption {
	return func(e *Engine) { e.limits = l.withDefaults() }
}

// WithTracer sets the tracer. When set, the engine emits spans per request
// and round. Use observer.NewTracer() for an OTEL-backed one.
func WithTracer(t Tracer) EngineOption {
	return func(e *Engine) { e.tracer = t }
}

// WithLogger sets the structured logger. If not set, logs are discarded.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an Engine over a capability registry and a shared
// result cache. A nil cache gets a private one with default policy.
func NewEngine(registry *Registry, cache *ResultCache, opts ...EngineOption) *Engine {
	e := &Engine{
		registry: registry,
		cache:    cache,
		limits:   DefaultLimits(),
		logger:   nopLogger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = NewResultCache(e.limits.CacheTTL, e.limits.CacheSize)
	}
	return e
}

// Run starts the orchestration loop for one request and returns its event
// stream. The sequence is lazy, finite, and non-restartable: it ends with
// exactly one done event on every exit path — final text, round ceiling,
// deadline skip, loop-fatal error, or cancellation — and the channel closes
// right after. Telemetry is logged once at termination.
//
// The engine takes ownership of the history slice until the channel closes.
func (e *Engine) Run(ctx context.Context, stream StreamFunc, history []Turn, req Request) <-chan Event {
	out := make(chan Event, 64)
	if req.Start.IsZero() {
		req.Start = time.Now()
	}
	ctx = WithRequestContext(ctx, req)

	go func() {
		defer close(out)
		tel := &RoundTelemetry{}
		defer tel.log(e.logger, req.ID)
		defer e.emitDone(ctx, out)
		defer func() {
			if p := recover(); p != nil {
				e.logger.Error("engine panic", "request_id", req.ID, "panic", p)
				e.emit(ctx, out, Event{Type: EventError, Content: msgLoopFailure})
			}
		}()
		e.run(ctx, stream, history, req, tel, out)
	}()
	return out
}

// run executes up to MaxRounds upstream rounds. It returns when the request
// is answered, aborted, or out of budget; terminal signaling is handled by
// Run's deferred emitDone.
func (e *Engine) run(ctx context.Context, stream StreamFunc, history []Turn, req Request, tel *RoundTelemetry, out chan<- Event) {
	runCtx := ctx
	if e.tracer != nil {
		var span Span
		runCtx, span = e.tracer.Start(ctx, "engine.run",
			StringAttr("request_id", req.ID))
		defer span.End()
	}

	for round := 0; round < e.limits.MaxRounds; round++ {
		remaining := e.limits.Budget - time.Since(req.Start)
		if remaining < e.limits.SafetyBuffer {
			tel.DeadlineSkip = true
			e.logger.Warn("deadline skip", "request_id", req.ID, "round", round, "remaining", remaining)
			return
		}

		roundCtx := runCtx
		var roundSpan Span
		if e.tracer != nil {
			roundCtx, roundSpan = e.tracer.Start(runCtx, "engine.round",
				IntAttr("round", round))
		}
		endRound := func() {
			if roundSpan != nil {
				roundSpan.End()
			}
		}

		chunks, err := stream(roundCtx, history)
		if err != nil {
			endRound()
			e.logger.Error("upstream stream failed", "request_id", req.ID, "round", round, "error", err)
			e.emit(ctx, out, Event{Type: EventError, Content: msgLoopFailure})
			return
		}

		// Per-round accumulation: text and thought buffer until the round's
		// verdict is known; function calls collect; grounding passes through
		// immediately (it is attribution, not narrative, and is never gated).
		var buffered []Event
		var pending []ToolCall
	consume:
		for {
			select {
			case <-ctx.Done():
				endRound()
				tel.AbortReason = "cancelled"
				return
			case chunk, ok := <-chunks:
				if !ok {
					break consume
				}
				if chunk.Err != nil {
					endRound()
					e.logger.Error("upstream stream failed mid-round", "request_id", req.ID, "round", round, "error", chunk.Err)
					e.emit(ctx, out, Event{Type: EventError, Content: msgLoopFailure})
					return
				}
				switch chunk.Kind {
				case ChunkText:
					buffered = append(buffered, Event{Type: EventText, Content: chunk.Text})
				case ChunkThought:
					buffered = append(buffered, Event{Type: EventThought, Content: chunk.Text})
				case ChunkFunctionCalls:
					pending = append(pending, chunk.Calls...)
				case ChunkGrounding:
					if !e.emit(ctx, out, Event{Type: EventGrounding, Grounding: chunk.Grounding}) {
						endRound()
						tel.AbortReason = "cancelled"
						return
					}
				default:
					// Unclassifiable chunk: skip, never abort the round.
					e.logger.Debug("skipping unclassified chunk", "request_id", req.ID, "round", round, "kind", chunk.Kind)
				}
			}
		}

		// Text gating: a round that requested tools forfeits its narrative
		// entirely. The buffered text was written before the data arrived
		// and must never reach the caller.
		if len(pending) == 0 {
			for _, ev := range buffered {
				if !e.emit(ctx, out, ev) {
					endRound()
					tel.AbortReason = "cancelled"
					return
				}
			}
			endRound()
			return
		}
		if len(buffered) > 0 {
			tel.mu.Lock()
			tel.TextGatedRounds++
			tel.mu.Unlock()
		}

		names := distinctToolNames(pending)
		if roundSpan != nil {
			roundSpan.SetAttr(IntAttr("tool_calls", len(pending)))
		}
		if !e.emit(ctx, out, Event{Type: EventToolStatus, Status: StatusCalling, Tools: names}) {
			endRound()
			tel.AbortReason = "cancelled"
			return
		}

		results := e.dispatch(roundCtx, pending, req, tel)

		if !e.emit(ctx, out, Event{Type: EventToolStatus, Status: StatusComplete, Tools: names}) {
			endRound()
			tel.AbortReason = "cancelled"
			return
		}

		history = append(history, modelCallTurn(pending), toolResponseTurn(pending, results))

		tel.mu.Lock()
		tel.ToolRounds++
		tel.ToolCallsTotal += len(pending)
		tel.mu.Unlock()
		endRound()
	}

	e.logger.Warn("round ceiling reached", "request_id", req.ID, "rounds", e.limits.MaxRounds)
}

// emit delivers one content event, or reports false once the request is
// cancelled. Content events are never sent after cancellation.
func (e *Engine) emit(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// emitDone sends the terminal event. A free buffer slot takes it
// immediately; with a full buffer the send waits for a live consumer to
// drain, giving up only on cancellation. A departed consumer still observes
// termination through the channel close.
func (e *Engine) emitDone(ctx context.Context, out chan<- Event) {
	select {
	case out <- Event{Type: EventDone}:
		return
	default:
	}
	select {
	case out <- Event{Type: EventDone}:
	case <-ctx.Done():
	}
}

// nopLogger discards all output. Used whenever WithLogger is not set.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

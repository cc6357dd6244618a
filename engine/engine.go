// Package engine is the staged-distribution state machine. It owns every
// transition of a collection: administration of the stage sequence, minting,
// token level progression and the read-only queries over persisted state.
//
// Each entry point re-reads state inside one store transaction, so concurrent
// callers observe either all or none of a transition.
package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/bitfsorg/nftstages-go/store"
)

// Observer is notified of transition outcomes, after the store transaction
// has committed or rolled back.
type Observer interface {
	ObserveMint(stageIndex uint32, units uint64, err error)
	ObserveAdmin(op string, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveMint(uint32, uint64, error) {}
func (nopObserver) ObserveAdmin(string, error)        {}

// Engine executes collection transitions against a Store.
type Engine struct {
	store    store.Store
	clock    func() time.Time
	log      zerolog.Logger
	observer Observer
	minter   TokenMinter
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source. Defaults to time.Now.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithLogger sets the logger. Defaults to a disabled logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l.With().Str("component", "engine").Logger() }
}

// WithObserver sets the outcome observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithMinter sets the token ID assignment strategy. Defaults to SequentialMinter.
func WithMinter(m TokenMinter) Option {
	return func(e *Engine) { e.minter = m }
}

// New creates an Engine over s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		clock:    time.Now,
		log:      zerolog.Nop(),
		observer: nopObserver{},
		minter:   SequentialMinter{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine's current unix time in seconds.
func (e *Engine) Now() int64 {
	return e.clock().Unix()
}

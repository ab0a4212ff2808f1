// Package tracker runs session logs through the flattening and billing
// pipeline, publishing lifecycle events on an infra.Bus.
package tracker

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chrisconley/sessionmeter/internal"
	"github.com/chrisconley/sessionmeter/internal/infra"
	specs "github.com/chrisconley/sessionmeter/specs"
)

const DefaultWorkers = 4

// Tracker is safe for concurrent use.
type Tracker struct {
	logger  *zap.Logger
	bus     *infra.Bus
	workers int

	flatten     specs.FlattenEventStream
	findStreams specs.FindDeviceStreams
	reduce      specs.Reduce

	sessions atomic.Int64
}

type Option func(*Tracker)

func WithLogger(logger *zap.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// WithBus publishes lifecycle events on bus instead of a private one.
func WithBus(bus *infra.Bus) Option {
	return func(t *Tracker) { t.bus = bus }
}

// WithWorkers limits how many sessions TrackBatch processes at once.
// Values below one are ignored.
func WithWorkers(workers int) Option {
	return func(t *Tracker) {
		if workers > 0 {
			t.workers = workers
		}
	}
}

func New(opts ...Option) *Tracker {
	t := &Tracker{
		logger:      zap.NewNop(),
		bus:         infra.NewBus(),
		workers:     DefaultWorkers,
		flatten:     internal.FlattenEventStream,
		findStreams: internal.FindDeviceStreams,
		reduce:      internal.Reduce,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.subscribeLogging()
	return t
}

func (t *Tracker) Bus() *infra.Bus {
	return t.bus
}

// Track flattens the session log and reduces it to billing metrics.
func (t *Tracker) Track(ctx context.Context, input specs.SessionInputSpec) (specs.BillingStateSpec, error) {
	session := t.receive(input)

	if err := ctx.Err(); err != nil {
		return specs.BillingStateSpec{}, t.reject(session, err)
	}

	flattened, err := t.flatten(input.Events, input.FlattenConfig())
	if err != nil {
		return specs.BillingStateSpec{}, t.reject(session, err)
	}
	t.bus.Publish(StreamFlattenedEvent{Session: session, Events: len(flattened)})

	state, err := t.reduce(flattened)
	if err != nil {
		return specs.BillingStateSpec{}, t.reject(session, err)
	}
	t.bus.Publish(BillingStateReducedEvent{Session: session, State: state})

	return state, nil
}

// Flatten returns the normalized event stream of the session log.
func (t *Tracker) Flatten(ctx context.Context, input specs.SessionInputSpec) ([]specs.EventSpec, error) {
	session := t.receive(input)

	if err := ctx.Err(); err != nil {
		return nil, t.reject(session, err)
	}

	flattened, err := t.flatten(input.Events, input.FlattenConfig())
	if err != nil {
		return nil, t.reject(session, err)
	}
	t.bus.Publish(StreamFlattenedEvent{Session: session, Events: len(flattened)})

	return flattened, nil
}

// Streams splits the session log into device streams and global events.
// TTL and current time are not used.
func (t *Tracker) Streams(ctx context.Context, input specs.SessionInputSpec) (specs.DeviceStreamsSpec, error) {
	session := t.receive(input)

	if err := ctx.Err(); err != nil {
		return specs.DeviceStreamsSpec{}, t.reject(session, err)
	}

	streams, err := t.findStreams(input.Events)
	if err != nil {
		return specs.DeviceStreamsSpec{}, t.reject(session, err)
	}

	return streams, nil
}

// BatchResult is the outcome of one session of a batch.
type BatchResult struct {
	Index int
	State specs.BillingStateSpec
	Err   error
}

// TrackBatch tracks every input on a bounded worker group. Results are in
// input order. A session that fails only sets its own Err; the batch is
// aborted only when ctx is done.
func (t *Tracker) TrackBatch(ctx context.Context, inputs []specs.SessionInputSpec) ([]BatchResult, error) {
	results := make([]BatchResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for i, input := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			state, err := t.Track(gctx, input)
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			results[i] = BatchResult{Index: i, State: state, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("track batch: %w", err)
	}
	return results, nil
}

func (t *Tracker) receive(input specs.SessionInputSpec) int64 {
	session := t.sessions.Add(1)
	t.bus.Publish(SessionReceivedEvent{Session: session, Events: len(input.Events)})
	return session
}

func (t *Tracker) reject(session int64, err error) error {
	t.bus.Publish(SessionRejectedEvent{Session: session, Err: err})
	return err
}

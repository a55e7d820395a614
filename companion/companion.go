// Package companion owns the recomputation streams and the published
// astronomical state: the latest daily snapshot, the latest month table,
// and the on-demand Polaris clock reading.
package companion

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/devskill-org/astro-companion/astro"
	"github.com/devskill-org/astro-companion/ephemeris"
	"github.com/devskill-org/astro-companion/observability"
	"github.com/devskill-org/astro-companion/sidereal"
)

// stream serializes one logical recomputation stream to at most one
// in-flight job. begin cancels the previous job under the stream lock;
// finish re-checks cancellation under the same lock before publishing, so
// a superseded job can never overwrite a newer result.
type stream struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

func (st *stream) begin(parent context.Context) (context.Context, context.CancelFunc) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.cancel != nil {
		st.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	st.cancel = cancel
	return ctx, cancel
}

func (st *stream) finish(ctx context.Context, publish func()) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if ctx.Err() != nil {
		return false
	}
	publish()
	return true
}

// Companion coordinates the daily-snapshot and month-calendar streams for
// one observer session. Construct one per active session; there is no
// process-wide instance.
type Companion struct {
	config  *Config
	logger  *log.Logger
	clock   clockwork.Clock
	source  ephemeris.Source
	metrics *observability.Metrics

	rootCtx    context.Context
	rootCancel context.CancelFunc

	daily stream
	month stream

	// Published state. Written only through stream.finish, read freely.
	mu           sync.RWMutex
	location     astro.Location
	date         time.Time
	snapshot     *astro.DailySnapshot
	monthTable   map[int]astro.CalendarDayData
	monthYear    int
	monthMonth   time.Month
	dailyLoading int
	monthLoading int

	history *SnapshotHistory

	// onPublish, when set, is invoked after every successful daily
	// publish (websocket broadcast hook). Guarded by mu; in-flight jobs
	// read it through publishHook.
	onPublish func(*astro.DailySnapshot)

	// wg tracks in-flight jobs so Close can drain them.
	wg sync.WaitGroup
}

// Option configures a Companion.
type Option func(*Companion)

// WithClock injects a time source, used by tests to freeze "now".
func WithClock(clock clockwork.Clock) Option {
	return func(c *Companion) { c.clock = clock }
}

// WithSource injects the ephemeris event source.
func WithSource(src ephemeris.Source) Option {
	return func(c *Companion) { c.source = src }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Companion) { c.metrics = m }
}

// WithHistory attaches a snapshot history sink.
func WithHistory(h *SnapshotHistory) Option {
	return func(c *Companion) { c.history = h }
}

// New creates a companion for the config's default location and the
// current calendar day.
func New(config *Config, logger *log.Logger, opts ...Option) *Companion {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Companion{
		config:     config,
		logger:     logger,
		clock:      clockwork.NewRealClock(),
		source:     ephemeris.NewSunCalc(),
		rootCtx:    ctx,
		rootCancel: cancel,
		location: astro.Location{
			Latitude:  config.Latitude,
			Longitude: config.Longitude,
			Label:     config.LocationLabel,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.date = c.clock.Now()
	return c
}

// Close cancels all in-flight work and waits for it to drain.
func (c *Companion) Close() {
	c.rootCancel()
	c.wg.Wait()
}

// Location returns the current observer location.
func (c *Companion) Location() astro.Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.location
}

// Snapshot returns the most recently published daily snapshot, or nil
// when none has been published yet.
func (c *Companion) Snapshot() *astro.DailySnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// MonthTable returns the most recently published month table and the
// month it describes. The map is replaced wholesale on publish; callers
// must not mutate it.
func (c *Companion) MonthTable() (map[int]astro.CalendarDayData, int, time.Month) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.monthTable, c.monthYear, c.monthMonth
}

// Loading reports the per-stream loading flags (daily, month). A stream
// is loading while any job for it is still in flight; counters rather
// than booleans keep an overlapping supersession from clearing the flag
// early.
func (c *Companion) Loading() (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dailyLoading > 0, c.monthLoading > 0
}

// setPublishHook installs the function invoked after every successful
// daily publish.
func (c *Companion) setPublishHook(fn func(*astro.DailySnapshot)) {
	c.mu.Lock()
	c.onPublish = fn
	c.mu.Unlock()
}

func (c *Companion) publishHook() func(*astro.DailySnapshot) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onPublish
}

// PolarisReading evaluates the sidereal clock for the current location at
// the current instant. Pure computation, never stale.
func (c *Companion) PolarisReading() sidereal.Reading {
	loc := c.Location()
	return sidereal.Compute(loc.Longitude, c.clock.Now())
}

// SetLocation replaces the observer location and recomputes both streams.
// The location is captured here, synchronously, so a later update cannot
// leak into an already-running job.
func (c *Companion) SetLocation(loc astro.Location) {
	c.mu.Lock()
	c.location = loc
	date := c.date
	c.mu.Unlock()

	c.recomputeDaily(date, loc)
	c.recomputeMonth(date.Year(), date.Month(), loc)
}

// SetDate changes the snapshot day and recomputes the daily stream.
func (c *Companion) SetDate(date time.Time) {
	c.mu.Lock()
	c.date = date
	loc := c.location
	c.mu.Unlock()

	c.recomputeDaily(date, loc)
}

// SetMonth navigates the calendar to a month and recomputes the month
// stream.
func (c *Companion) SetMonth(year int, month time.Month) {
	loc := c.Location()
	c.recomputeMonth(year, month, loc)
}

// Refresh recomputes both streams for the current location and date.
func (c *Companion) Refresh() {
	c.mu.RLock()
	loc, date := c.location, c.date
	c.mu.RUnlock()

	c.recomputeDaily(date, loc)
	c.recomputeMonth(date.Year(), date.Month(), loc)
}

func (c *Companion) recomputeDaily(date time.Time, loc astro.Location) {
	ctx, cancel := c.daily.begin(c.rootCtx)
	c.addDailyLoading(1)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		defer c.addDailyLoading(-1)

		started := time.Now()
		snap, err := astro.ComputeDaily(ctx, c.source, date, loc)
		if err != nil {
			c.observeDaily(err)
			return
		}

		published := c.daily.finish(ctx, func() {
			c.mu.Lock()
			c.snapshot = snap
			c.mu.Unlock()
		})
		if !published {
			c.observe("daily", "cancelled")
			return
		}

		c.observe("daily", "published")
		if c.metrics != nil {
			c.metrics.RecomputeDuration.WithLabelValues("daily").Observe(time.Since(started).Seconds())
		}
		if c.history != nil {
			c.history.Record(snap)
		}
		if hook := c.publishHook(); hook != nil {
			hook(snap)
		}
	}()
}

func (c *Companion) recomputeMonth(year int, month time.Month, loc astro.Location) {
	ctx, cancel := c.month.begin(c.rootCtx)
	c.addMonthLoading(1)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		defer c.addMonthLoading(-1)

		started := time.Now()
		table, err := astro.ComputeMonth(ctx, c.source, year, month, loc)
		if err != nil {
			c.observeMonth(err)
			return
		}

		published := c.month.finish(ctx, func() {
			c.mu.Lock()
			c.monthTable = table
			c.monthYear = year
			c.monthMonth = month
			c.mu.Unlock()
		})
		if !published {
			c.observe("month", "cancelled")
			return
		}

		c.observe("month", "published")
		if c.metrics != nil {
			c.metrics.RecomputeDuration.WithLabelValues("month").Observe(time.Since(started).Seconds())
		}
	}()
}

// observeDaily classifies a daily-stream error. Cancellation is a normal
// supersession outcome; anything else is swallowed at the stream boundary
// and the previously published snapshot stays authoritative.
func (c *Companion) observeDaily(err error) {
	if errors.Is(err, context.Canceled) {
		c.observe("daily", "cancelled")
		return
	}
	c.logger.Printf("Daily snapshot computation failed: %v", err)
	c.observe("daily", "failed")
}

func (c *Companion) observeMonth(err error) {
	if errors.Is(err, context.Canceled) {
		c.observe("month", "cancelled")
		return
	}
	c.logger.Printf("Month table computation failed: %v", err)
	c.observe("month", "failed")
}

func (c *Companion) observe(stream, outcome string) {
	if c.metrics != nil {
		c.metrics.Recomputes.WithLabelValues(stream, outcome).Inc()
	}
}

func (c *Companion) addDailyLoading(delta int) {
	c.mu.Lock()
	c.dailyLoading += delta
	c.mu.Unlock()
}

func (c *Companion) addMonthLoading(delta int) {
	c.mu.Lock()
	c.monthLoading += delta
	c.mu.Unlock()
}

package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amidaware/schedctl/console/config"
	"github.com/amidaware/schedctl/console/metrics"
	"github.com/sirupsen/logrus"
)

var ErrInvalidInterval = config.ErrInvalidInterval

// Fetcher is what the poller refreshes, normally a *Dashboard
type Fetcher interface {
	FetchTasks(ctx context.Context) error
	FetchScripts(ctx context.Context) error
}

type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) Chan() <-chan time.Time {
	return t.C
}

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// Poller refetches tasks on a user chosen interval. At most one ticker is
// armed at a time and none while the interval is 0.
type Poller struct {
	mu       sync.Mutex
	fetcher  Fetcher
	ctx      context.Context
	running  bool
	interval time.Duration
	gen      uint64

	ticker Ticker
	done   chan struct{}
	armed  int

	newTicker TickerFunc
	log       *logrus.Entry
}

func NewPoller(f Fetcher, logger *logrus.Logger) *Poller {
	return &Poller{
		fetcher:   f,
		ctx:       context.Background(),
		newTicker: newTimeTicker,
		log:       logger.WithField("component", "poller"),
	}
}

// SetTickerFunc swaps the ticker source, used by tests
func (p *Poller) SetTickerFunc(fn TickerFunc) {
	p.mu.Lock()
	p.newTicker = fn
	p.mu.Unlock()
}

// Start mounts the poller. Requests made by the poller use ctx.
func (p *Poller) Start(ctx context.Context, interval time.Duration) error {
	if !config.ValidInterval(interval) {
		return fmt.Errorf("%s: %w", interval, ErrInvalidInterval)
	}
	p.mu.Lock()
	p.disarm()
	p.ctx = ctx
	p.running = true
	p.mu.Unlock()

	return p.SetInterval(interval)
}

// SetInterval cancels the current ticker, fetches tasks and scripts right
// away and arms a new ticker unless interval is 0. Before Start it only
// records the interval.
func (p *Poller) SetInterval(interval time.Duration) error {
	if !config.ValidInterval(interval) {
		return fmt.Errorf("%s: %w", interval, ErrInvalidInterval)
	}

	p.mu.Lock()
	p.interval = interval
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.disarm()
	p.gen++
	gen := p.gen
	ctx := p.ctx
	p.mu.Unlock()

	metrics.PollInterval.Set(interval.Seconds())
	p.log.WithField("interval", interval).Debugln("refresh interval changed")

	p.fetcher.FetchTasks(ctx)
	p.fetcher.FetchScripts(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	// a newer SetInterval or a Stop happened while we were fetching
	if !p.running || p.gen != gen || interval == 0 {
		return nil
	}
	p.arm(interval)
	return nil
}

func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	p.gen++
	p.disarm()
}

func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// ActiveTimers is the number of armed tickers, 0 or 1
func (p *Poller) ActiveTimers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.armed
}

// arm and disarm must be called with p.mu held
func (p *Poller) arm(interval time.Duration) {
	t := p.newTicker(interval)
	done := make(chan struct{})
	p.ticker = t
	p.done = done
	p.armed++
	go p.loop(p.ctx, t, done)
}

func (p *Poller) disarm() {
	if p.ticker == nil {
		return
	}
	p.ticker.Stop()
	close(p.done)
	p.ticker = nil
	p.done = nil
	p.armed--
}

func (p *Poller) current(done chan struct{}) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done == done
}

func (p *Poller) loop(ctx context.Context, t Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			p.mu.Lock()
			if p.done == done {
				p.disarm()
			}
			p.mu.Unlock()
			return
		case <-t.Chan():
			// the ticker may have been replaced between the tick and now
			if !p.current(done) {
				return
			}
			metrics.PollTicksTotal.Inc()
			p.fetcher.FetchTasks(ctx)
		}
	}
}

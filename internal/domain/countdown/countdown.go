// Package countdown provides a cancellable repeating ticker that identifies
// each run with a generation number.
package countdown

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is the round clock period.
const DefaultInterval = time.Second

// TickFunc receives the generation of the run that fired. It is called from
// the driver goroutine and must not block.
type TickFunc func(gen uint64)

// Driver runs at most one ticker at a time. Starting a new run always cancels
// and waits out the previous one.
type Driver struct {
	interval time.Duration
	onTick   TickFunc

	mu   sync.Mutex
	gen  atomic.Uint64
	stop chan struct{}
	done chan struct{}
}

// New creates an idle Driver. A non-positive interval falls back to one second.
func New(interval time.Duration, onTick TickFunc) *Driver {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Driver{interval: interval, onTick: onTick}
}

// Start cancels any running ticker, waits for it to exit and starts a fresh
// one. It returns the generation of the new run.
func (d *Driver) Start() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()

	gen := d.gen.Add(1)
	stop := make(chan struct{})
	done := make(chan struct{})
	d.stop, d.done = stop, done
	go d.run(gen, stop, done)
	return gen
}

// Stop cancels the running ticker and waits for it to exit. No tick of the
// cancelled run is delivered after Stop returns. Safe to call repeatedly.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Generation returns the generation of the most recent Start.
func (d *Driver) Generation() uint64 {
	return d.gen.Load()
}

// Active reports whether a ticker is running.
func (d *Driver) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop != nil
}

// Interval returns the tick period.
func (d *Driver) Interval() time.Duration {
	return d.interval
}

func (d *Driver) stopLocked() {
	if d.stop == nil {
		return
	}
	close(d.stop)
	<-d.done
	d.stop, d.done = nil, nil
}

func (d *Driver) run(gen uint64, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(d.interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			// stop may have been closed while the tick was pending
			select {
			case <-stop:
				return
			default:
			}
			if d.onTick != nil {
				d.onTick(gen)
			}
		}
	}
}

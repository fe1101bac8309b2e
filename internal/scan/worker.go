package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roman-kulish/radio-scanner/internal/freqman"
)

const (
	// DefaultInterval is the worker polling interval.
	DefaultInterval = 50 * time.Millisecond

	// DefaultSettleDelay is the pause applied when the direction is reversed.
	DefaultSettleDelay = 300 * time.Millisecond
)

// ErrWorkerStart is returned when the scan loop cannot be started.
var ErrWorkerStart = errors.New("cannot start scan worker")

// Direction is the stepping direction of a scan.
type Direction int32

const (
	Forward Direction = 1
	Reverse Direction = -1
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// Tuner retunes the radio.
type Tuner interface {
	SetTargetFrequency(f freqman.Frequency) error
}

// Update is emitted once per worker cycle while scanning. Index is -1 once
// deletions have emptied the scan list.
type Update struct {
	Frequency   freqman.Frequency
	Index       int
	Description string
}

// Listener receives worker updates. It is called from the worker goroutine
// and must not block.
type Listener interface {
	OnFrequencyChanged(u Update)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(u Update)

func (f ListenerFunc) OnFrequencyChanged(u Update) {
	f(u)
}

// WithLogger sets the logger for the worker
func WithLogger(logger *slog.Logger) func(w *Worker) {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) func(w *Worker) {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithSettleDelay sets the delay SetDirection waits before reversing.
func WithSettleDelay(d time.Duration) func(w *Worker) {
	return func(w *Worker) {
		if d >= 0 {
			w.settleDelay = d
		}
	}
}

// WithDirection sets the initial stepping direction without the settle delay.
func WithDirection(d Direction) func(w *Worker) {
	return func(w *Worker) {
		if d == Reverse {
			w.direction.Store(int32(Reverse))
		}
	}
}

// WithStartIndex sets the position the worker tunes to when started.
func WithStartIndex(i int) func(w *Worker) {
	return func(w *Worker) {
		w.index.Store(int64(i))
	}
}

// Worker steps through a Source in a background loop. The control fields are
// written by the controller and read by the loop; the loop only clears the
// one-shot step and the pending delete after consuming them.
type Worker struct {
	src      Source
	tuner    Tuner
	listener Listener

	scanning      atomic.Bool
	direction     atomic.Int32
	index         atomic.Int64
	lockLevel     atomic.Int32
	oneShotStep   atomic.Int32
	pendingDelete atomic.Pointer[freqman.Frequency]

	isRunning atomic.Bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	interval    time.Duration
	settleDelay time.Duration
	logger      *slog.Logger
}

// NewWorker creates a stopped worker. Scanning is enabled and the direction
// is Forward.
func NewWorker(src Source, tuner Tuner, listener Listener, options ...func(w *Worker)) *Worker {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	w := Worker{
		src:         src,
		tuner:       tuner,
		listener:    listener,
		interval:    DefaultInterval,
		settleDelay: DefaultSettleDelay,
		logger:      logger,
	}
	w.scanning.Store(true)
	w.direction.Store(int32(Forward))

	for _, option := range options {
		option(&w)
	}

	return &w
}

// Start launches the scan loop. The loop runs until Stop is called or ctx is
// cancelled.
func (w *Worker) Start(ctx context.Context) error {
	if w.src == nil || w.src.Size() == 0 {
		return fmt.Errorf("%w: %w", ErrWorkerStart, ErrEmptySource)
	}
	if !w.isRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: worker is already running", ErrWorkerStart)
	}

	if i := int(w.index.Load()); i < 0 || i >= w.src.Size() {
		w.index.Store(0)
	}

	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.isRunning.Store(false)

		w.logger.Info("scan worker started", slog.Int("size", w.src.Size()))
		w.run(ctx)
		w.logger.Info("scan worker stopped")
	}()

	return nil
}

// Stop cancels the loop and blocks until it has exited. No retune or update
// happens after Stop returns.
func (w *Worker) Stop() {
	if w.cancel == nil {
		return // never started
	}

	w.cancel()
	w.wg.Wait()
}

// IsRunning returns true while the loop is active
func (w *Worker) IsRunning() bool {
	return w.isRunning.Load()
}

func (w *Worker) run(ctx context.Context) {
	index := int(w.index.Load())
	w.tune(index)
	w.notify(index)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		w.cycle()
	}
}

// cycle runs one iteration of the scan loop.
func (w *Worker) cycle() {
	step, force := int(w.direction.Load()), false
	if s := w.oneShotStep.Swap(0); s != 0 {
		step, force = int(s), true
	}

	if w.scanning.Load() || force {
		index := int(w.index.Load())

		if w.lockLevel.Load() == 0 || force {
			next, err := Advance(w.src, index, step)
			if err != nil {
				w.logger.Debug("not stepping", slog.String("reason", err.Error()))
				return
			}

			index = next
			w.index.Store(int64(index))
			w.tune(index)
		}

		w.notify(index)
		return
	}

	if f := w.pendingDelete.Swap(nil); f != nil {
		w.remove(*f)
	}
}

func (w *Worker) tune(index int) {
	f := w.src.FrequencyAt(index)
	if err := w.tuner.SetTargetFrequency(f); err != nil {
		w.logger.Error(fmt.Sprintf("error tuning: %s", err.Error()), slog.Int64("frequency", int64(f)))
	}
}

func (w *Worker) notify(index int) {
	if w.listener == nil || index < 0 || index >= w.src.Size() {
		return
	}

	w.listener.OnFrequencyChanged(Update{
		Frequency:   w.src.FrequencyAt(index),
		Index:       index,
		Description: w.src.Description(index),
	})
}

func (w *Worker) remove(f freqman.Frequency) {
	list, ok := w.src.(*ListSource)
	if !ok {
		w.logger.Debug("delete ignored for range source", slog.Int64("frequency", int64(f)))
		return
	}

	if !list.Remove(f) {
		w.logger.Warn("frequency to delete not in scan list", slog.Int64("frequency", int64(f)))
		return
	}

	size := list.Size()
	w.logger.Info("removed frequency from scan list", slog.Int64("frequency", int64(f)), slog.Int("size", size))
	if size == 0 {
		// nothing left to tune, report the empty list
		w.scanning.Store(false)
		w.index.Store(-1)
		if w.listener != nil {
			w.listener.OnFrequencyChanged(Update{Index: -1})
		}
		return
	}

	i := int(w.index.Load())
	if i >= size {
		i = size - 1
		w.index.Store(int64(i))
	}
	w.tune(i)
	w.notify(i)
}

// Scanning reports whether the worker steps on its own.
func (w *Worker) Scanning() bool {
	return w.scanning.Load()
}

// SetScanning enables or disables automatic stepping.
func (w *Worker) SetScanning(on bool) {
	w.scanning.Store(on)
}

// Direction returns the current stepping direction.
func (w *Worker) Direction() Direction {
	return Direction(w.direction.Load())
}

// SetDirection changes the stepping direction. A reversal waits for the settle
// delay before it takes effect, so it blocks the caller.
func (w *Worker) SetDirection(d Direction) {
	if d != Reverse {
		d = Forward
	}
	if Direction(w.direction.Load()) == d {
		return
	}

	time.Sleep(w.settleDelay)
	w.direction.Store(int32(d))
}

// Index returns the current scan position.
func (w *Worker) Index() int {
	return int(w.index.Load())
}

// Source returns the scanned source. A list source is mutated by the loop, so
// it must only be inspected after Stop.
func (w *Worker) Source() Source {
	return w.src
}

// LockLevel returns the signal verification level. Stepping is suppressed
// while it is above zero.
func (w *Worker) LockLevel() int {
	return int(w.lockLevel.Load())
}

// SetLockLevel stores the verification level.
func (w *Worker) SetLockLevel(level int) {
	w.lockLevel.Store(int32(level))
}

// StepOnce makes the next cycle move by step even when scanning is off or a
// signal is being verified.
func (w *Worker) StepOnce(step int) {
	w.oneShotStep.Store(int32(step))
}

// RequestDelete asks the worker to drop f from a list source. It is handled on
// the next cycle in which the worker is not scanning.
func (w *Worker) RequestDelete(f freqman.Frequency) {
	w.pendingDelete.Store(&f)
}

// Package scanner runs the scanner: it owns the frequency database, the scan
// worker, the lock automaton and the activity log, and serializes user
// commands, worker updates and signal samples in a single event loop.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roman-kulish/radio-scanner/internal/freqman"
	"github.com/roman-kulish/radio-scanner/internal/radio"
	"github.com/roman-kulish/radio-scanner/internal/scan"
	"github.com/roman-kulish/radio-scanner/internal/settings"
	"github.com/roman-kulish/radio-scanner/internal/spectrum"
	"github.com/roman-kulish/radio-scanner/internal/storage"
)

var (
	// ErrDuplicate is returned when storing a frequency the database already has.
	ErrDuplicate = errors.New("frequency is already in the database")

	// ErrNoList is returned when deleting while a range is scanned.
	ErrNoList = errors.New("current source is not a frequency list")

	// ErrNotScanning is returned by commands that need a running scan.
	ErrNotScanning = errors.New("no scan in progress")

	// ErrFeedClosed is returned by Run when the receiver stops delivering samples.
	ErrFeedClosed = errors.New("sample feed closed")
)

// Status is what observers are told after every change.
type Status struct {
	Source      string
	Frequency   freqman.Frequency
	Index       int
	Description string
	State       scan.State
	LockLevel   int
	Reverse     bool
}

// WithLogger sets the logger for the controller
func WithLogger(logger *slog.Logger) func(c *Controller) {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithStore records a session per scan and a hit per locked signal.
// receiver names the backend in the session.
func WithStore(store storage.Store, receiver string) func(c *Controller) {
	return func(c *Controller) {
		c.store = store
		c.receiverName = receiver
	}
}

// WithSettings sets the initial settings. When path is not empty, changes are
// written back to it.
func WithSettings(s settings.Settings, path string) func(c *Controller) {
	return func(c *Controller) {
		c.settings = s
		c.settingsPath = path
	}
}

// WithObserver registers fn to receive status changes. It is called on the
// controller goroutine and must not block.
func WithObserver(fn func(Status)) func(c *Controller) {
	return func(c *Controller) {
		c.observers = append(c.observers, fn)
	}
}

// WithWorkerOptions passes options to every scan worker the controller starts.
func WithWorkerOptions(options ...func(w *scan.Worker)) func(c *Controller) {
	return func(c *Controller) {
		c.workerOpts = append(c.workerOpts, options...)
	}
}

// WithMaxEntries sets the capacity of opened databases.
func WithMaxEntries(n int) func(c *Controller) {
	return func(c *Controller) {
		c.maxEntries = n
	}
}

// WithSampleRate sets the sample rate of the receiver feed, used to convert
// the wait settings to sample counts.
func WithSampleRate(rate int) func(c *Controller) {
	return func(c *Controller) {
		c.sampleRate = rate
	}
}

// Controller is not safe for concurrent use. Its methods are called before Run
// starts or by Run itself; other goroutines talk to it with Send.
type Controller struct {
	receiver radio.Receiver
	dir      string

	settings     settings.Settings
	settingsPath string

	db         *freqman.Database
	maxEntries int

	worker     *scan.Worker
	automaton  *scan.Automaton
	workerOpts []func(w *scan.Worker)
	sampleRate int

	store        storage.Store
	receiverName string
	session      *spectrum.ScanSession

	commands  chan Command
	updates   chan scan.Update
	status    Status
	observers []func(Status)

	logger *slog.Logger
}

// New creates a controller for receiver. Databases are looked up in dir.
func New(receiver radio.Receiver, dir string, options ...func(c *Controller)) *Controller {
	c := Controller{
		receiver:   receiver,
		dir:        dir,
		settings:   settings.Default(),
		maxEntries: freqman.MaxEntries,
		sampleRate: scan.DefaultSampleRate,
		commands:   make(chan Command),
		updates:    make(chan scan.Update, 1),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&c)
	}

	c.status.Reverse = c.settings.Reverse

	return &c
}

// Settings returns the current settings.
func (c *Controller) Settings() settings.Settings {
	return c.settings
}

// Status returns the last published status.
func (c *Controller) Status() Status {
	return c.status
}

// Database returns the open database, or nil.
func (c *Controller) Database() *freqman.Database {
	return c.db
}

// Session returns the activity log session of the current scan, or nil.
func (c *Controller) Session() *spectrum.ScanSession {
	return c.session
}

// Restore starts scanning what the settings name: the database when it can be
// loaded, otherwise the range.
func (c *Controller) Restore(ctx context.Context) error {
	if c.settings.Database != "" {
		err := c.LoadDatabase(ctx, c.settings.Database)
		if err == nil {
			return nil
		}
		c.logger.Warn(fmt.Sprintf("error loading database, scanning range: %s", err.Error()),
			slog.String("database", c.settings.Database))
	}
	return c.ScanRange(ctx, c.settings.RangeMin, c.settings.RangeMax, c.settings.RangeStep)
}

// LoadDatabase opens the named database and scans its list entries. A
// database without list entries is scanned over its first range entry.
func (c *Controller) LoadDatabase(ctx context.Context, name string) error {
	db, err := freqman.Open(freqman.Resolve(c.dir, name),
		freqman.WithMaxEntries(c.maxEntries),
		freqman.WithLogger(c.logger.With(slog.String("database", name))),
	)
	if err != nil {
		return fmt.Errorf("error opening database %s: %w", name, err)
	}

	src, err := c.sourceFor(db)
	if err != nil {
		return errors.Join(fmt.Errorf("error loading database %s: %w", name, err), db.Close())
	}

	if err = c.StartScan(ctx, src, name); err != nil {
		return errors.Join(err, db.Close())
	}

	if err = c.closeDatabase(); err != nil {
		c.logger.Error(fmt.Sprintf("error closing database: %s", err.Error()))
	}
	c.db = db

	c.settings.Database = name
	c.saveSettings()

	c.logger.Info("database loaded", slog.String("database", name), slog.Int("entries", db.Len()),
		slog.Int("channels", src.Size()))
	return nil
}

func (c *Controller) sourceFor(db *freqman.Database) (scan.Source, error) {
	entries := db.Entries()

	list, err := scan.ListFromEntries(entries)
	if err == nil {
		return list, nil
	}
	if !errors.Is(err, scan.ErrEmptySource) {
		return nil, err
	}

	for _, e := range entries {
		if e.Type != freqman.Range {
			continue
		}
		step := e.StepHz()
		if step == 0 {
			step = c.settings.RangeStep
		}
		return scan.NewRangeSource(e.FrequencyA, e.FrequencyB, step)
	}

	return nil, scan.ErrEmptySource
}

// ScanRange scans low..high. A zero step uses the step from the settings.
func (c *Controller) ScanRange(ctx context.Context, low, high, step freqman.Frequency) error {
	if low <= 0 || high <= 0 || low > high {
		return fmt.Errorf("%w: %d-%d", scan.ErrInvalidRange, low, high)
	}
	if step == 0 {
		step = c.settings.RangeStep
	}

	src, err := scan.NewRangeSource(low, high, step)
	if err != nil {
		return fmt.Errorf("%w: %d-%d step %d", err, low, high, step)
	}

	if err = c.StartScan(ctx, src, fmt.Sprintf("%d-%d", low, high)); err != nil {
		return err
	}

	c.settings.RangeMin, c.settings.RangeMax, c.settings.RangeStep = low, high, step
	c.saveSettings()
	return nil
}

// StartScan stops the running scan, if any, and scans src. name identifies the
// source in the status and the activity log.
func (c *Controller) StartScan(ctx context.Context, src scan.Source, name string) error {
	c.stopScan()

	direction := scan.Forward
	if c.settings.Reverse {
		direction = scan.Reverse
	}

	options := []func(w *scan.Worker){
		scan.WithLogger(c.logger.With(slog.String("source", name))),
		scan.WithDirection(direction),
	}
	options = append(options, c.workerOpts...)

	w := scan.NewWorker(src, c.receiver, scan.ListenerFunc(c.onFrequencyChanged), options...)
	a := scan.NewAutomaton(w, c.receiver, c.lockConfig(), scan.WithLockLogger(c.logger))

	if err := c.receiver.Enable(); err != nil {
		return fmt.Errorf("error enabling radio: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return err
	}

	c.worker, c.automaton = w, a
	c.startSession(ctx, name)

	c.setStatus(Status{
		Source:  name,
		State:   scan.StateScanning,
		Reverse: c.settings.Reverse,
	})
	return nil
}

func (c *Controller) lockConfig() scan.LockConfig {
	cfg := scan.DefaultLockConfig()
	cfg.SampleRate = c.sampleRate
	cfg.BrowseWait = c.settings.BrowseWait
	cfg.LockWait = c.settings.LockWait
	cfg.Squelch = c.settings.Squelch
	return cfg
}

func (c *Controller) stopScan() {
	if c.worker == nil {
		return
	}

	c.worker.Stop()
	c.worker, c.automaton, c.session = nil, nil, nil

	if err := c.receiver.StopAudio(); err != nil {
		c.logger.Error(fmt.Sprintf("error stopping audio: %s", err.Error()))
	}

	// drop an update of the stopped worker
	select {
	case <-c.updates:
	default:
	}
}

func (c *Controller) startSession(ctx context.Context, name string) {
	if c.store == nil {
		return
	}

	sess, err := c.store.CreateSession(ctx, c.receiverName, name, c.settings)
	if err != nil {
		c.logger.Error(fmt.Sprintf("error creating session: %s", err.Error()))
		return
	}
	c.session = sess
	c.logger.Debug("session created", slog.Int64("id", sess.ID), slog.String("uuid", sess.UUID))
}

// onFrequencyChanged runs on the worker goroutine. Only the latest update is
// kept.
func (c *Controller) onFrequencyChanged(u scan.Update) {
	for {
		select {
		case c.updates <- u:
			return
		default:
		}

		select {
		case <-c.updates:
		default:
		}
	}
}

// Send hands cmd to the Run loop and waits for its result.
func (c *Controller) Send(ctx context.Context, cmd Command) error {
	cmd.done = make(chan error, 1)

	select {
	case c.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes samples, worker updates and commands until ctx is done or a
// CmdQuit is received. It returns nil on CmdQuit.
func (c *Controller) Run(ctx context.Context) error {
	samples := c.receiver.Samples()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case s, ok := <-samples:
			if !ok {
				return ErrFeedClosed
			}
			c.onSample(ctx, s)

		case u := <-c.updates:
			c.onUpdate(u)

		case cmd := <-c.commands:
			err := c.Handle(ctx, cmd)
			if err != nil {
				c.logger.Warn(fmt.Sprintf("error handling %s: %s", cmd.Kind, err.Error()))
			}
			if cmd.done != nil {
				cmd.done <- err
			}
			if cmd.Kind == CmdQuit {
				return nil
			}
		}
	}
}

// Handle executes cmd.
func (c *Controller) Handle(ctx context.Context, cmd Command) error {
	defer c.refresh()

	switch cmd.Kind {
	case CmdQuit:
		return nil
	case CmdLoadDatabase:
		return c.LoadDatabase(ctx, cmd.Database)
	case CmdScanRange:
		return c.ScanRange(ctx, cmd.Min, cmd.Max, cmd.Step)
	}

	if c.worker == nil {
		return ErrNotScanning
	}

	switch cmd.Kind {
	case CmdTogglePause:
		if c.automaton.UserPaused() {
			c.automaton.Resume()
		} else {
			c.automaton.UserPause()
		}
	case CmdForward:
		c.setDirection(scan.Forward)
	case CmdReverse:
		c.setDirection(scan.Reverse)
	case CmdStepUp:
		c.automaton.Step(1)
	case CmdStepDown:
		c.automaton.Step(-1)
	case CmdDeleteCurrent:
		return c.deleteCurrent()
	case CmdStoreCurrent:
		return c.storeCurrent()
	default:
		return fmt.Errorf("unknown command %d", cmd.Kind)
	}

	return nil
}

func (c *Controller) setDirection(d scan.Direction) {
	if c.worker.Direction() == d {
		return
	}

	c.worker.SetDirection(d)
	c.automaton.Turn()

	c.settings.Reverse = d == scan.Reverse
	c.status.Reverse = c.settings.Reverse
	c.saveSettings()
}

// deleteCurrent pauses the scan and removes the current frequency from the
// scan list and the database.
func (c *Controller) deleteCurrent() error {
	if _, ok := c.worker.Source().(*scan.ListSource); !ok {
		return ErrNoList
	}

	f := c.status.Frequency
	if !c.automaton.UserPaused() {
		c.automaton.UserPause()
	}
	c.worker.RequestDelete(f)

	if c.db == nil {
		return nil
	}

	i := c.db.Find(func(e freqman.Entry) bool {
		return e.IsList() && e.FrequencyA == f
	})
	if i == freqman.End {
		return nil
	}
	if err := c.db.Delete(i); err != nil {
		return fmt.Errorf("error deleting %d: %w", f, err)
	}
	if err := c.db.Save(); err != nil {
		return fmt.Errorf("error saving database: %w", err)
	}

	c.logger.Info("frequency deleted", slog.Int64("frequency", int64(f)))
	return nil
}

// storeCurrent appends the current frequency to the database, opening the
// database named in the settings when none is loaded.
func (c *Controller) storeCurrent() error {
	f := c.status.Frequency
	if f == 0 {
		return ErrNotScanning
	}

	if c.db == nil {
		db, err := freqman.Open(freqman.Resolve(c.dir, c.settings.Database),
			freqman.WithCreate(),
			freqman.WithMaxEntries(c.maxEntries),
			freqman.WithLogger(c.logger.With(slog.String("database", c.settings.Database))),
		)
		if err != nil {
			return fmt.Errorf("error opening database %s: %w", c.settings.Database, err)
		}
		c.db = db
	}

	if c.db.Find(func(e freqman.Entry) bool {
		return e.Type == freqman.Single && e.FrequencyA == f
	}) != freqman.End {
		return fmt.Errorf("%w: %d", ErrDuplicate, f)
	}

	if err := c.db.Append(freqman.NewEntry(freqman.Single, f, 0, c.status.Description)); err != nil {
		return fmt.Errorf("error storing %d: %w", f, err)
	}
	if err := c.db.Save(); err != nil {
		return fmt.Errorf("error saving database: %w", err)
	}

	c.logger.Info("frequency stored", slog.Int64("frequency", int64(f)))
	return nil
}

func (c *Controller) onSample(ctx context.Context, s radio.Sample) {
	if c.automaton == nil {
		return
	}
	// taken before the last retune was reported
	if s.Frequency != 0 && s.Frequency != c.status.Frequency {
		return
	}

	switch c.automaton.OnSample(s.Power) {
	case scan.EventLocked:
		c.logger.Info("signal locked",
			slog.Int64("frequency", int64(c.status.Frequency)),
			slog.String("description", c.status.Description),
			slog.Float64("power", s.Power))
		c.recordHit(ctx, s)
	case scan.EventResumed:
		c.logger.Debug("scan resumed", slog.Int64("frequency", int64(c.status.Frequency)))
	}

	c.refresh()
}

func (c *Controller) recordHit(ctx context.Context, s radio.Sample) {
	if c.store == nil || c.session == nil {
		return
	}

	ts := s.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	hit := spectrum.Hit{
		Timestamp:   ts,
		Frequency:   int64(c.status.Frequency),
		Description: c.status.Description,
		Power:       s.Power,
	}
	if err := c.store.StoreHit(ctx, c.session.ID, &hit); err != nil {
		c.logger.Error(fmt.Sprintf("error storing hit: %s", err.Error()))
	}
}

func (c *Controller) onUpdate(u scan.Update) {
	if c.worker == nil {
		return
	}
	if u.Index < 0 {
		c.logger.Warn("scan list is empty, scan stopped")
		c.stopScan()
		s := c.status
		s.Frequency, s.Index, s.Description, s.LockLevel = 0, -1, "", 0
		s.State = scan.StatePaused
		c.setStatus(s)
		return
	}

	description := u.Description
	if description == "" && c.db != nil {
		if e, ok := c.db.Lookup(u.Frequency); ok {
			description = e.Description
		}
	}

	s := c.status
	s.Frequency, s.Index, s.Description = u.Frequency, u.Index, description
	c.setStatus(s)
}

// refresh publishes state changes of the automaton.
func (c *Controller) refresh() {
	if c.automaton == nil {
		return
	}

	s := c.status
	s.State = c.automaton.State()
	s.LockLevel = c.worker.LockLevel()
	c.setStatus(s)
}

func (c *Controller) setStatus(s Status) {
	if s == c.status {
		return
	}

	c.status = s
	for _, fn := range c.observers {
		fn(s)
	}
}

func (c *Controller) saveSettings() {
	if c.settingsPath == "" {
		return
	}
	if err := settings.Save(c.settingsPath, c.settings); err != nil {
		c.logger.Error(fmt.Sprintf("error saving settings: %s", err.Error()))
	}
}

func (c *Controller) closeDatabase() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Close stops the scan, disables the radio and closes the database and the
// activity log. The receiver itself is left open.
func (c *Controller) Close() error {
	c.stopScan()

	var errs []error
	if err := c.receiver.Disable(); err != nil {
		errs = append(errs, fmt.Errorf("error disabling radio: %w", err))
	}
	if err := c.closeDatabase(); err != nil {
		errs = append(errs, fmt.Errorf("error closing database: %w", err))
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing activity log: %w", err))
		}
	}
	return errors.Join(errs...)
}

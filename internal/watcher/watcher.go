// Package watcher reports changes to individual files.
//
// Parent directories are watched rather than the files themselves, so a
// file replaced by an editor's rename-on-save keeps being tracked. Rapid
// changes to one file are coalesced into a single Event.
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Errors returned by the watcher.
var (
	ErrWatcherClosed = errors.New("watcher closed")
	ErrPathNotExist  = errors.New("path does not exist")
	ErrNotAFile      = errors.New("path is a directory")
)

// Op describes the kind of change.
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
)

// String returns a readable form such as "WRITE|RENAME".
func (op Op) String() string {
	var s string
	for _, n := range []struct {
		op   Op
		name string
	}{{OpCreate, "CREATE"}, {OpWrite, "WRITE"}, {OpRemove, "REMOVE"}, {OpRename, "RENAME"}} {
		if op&n.op != 0 {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	if s == "" {
		return "NONE"
	}
	return s
}

// Event is a coalesced change to a watched file.
type Event struct {
	Path      string
	Op        Op
	Timestamp time.Time
}

// Config configures a Watcher.
type Config struct {
	// Delay is the quiet period before a change is reported.
	Delay time.Duration
	// BufferSize is the capacity of the event and error channels.
	BufferSize int
}

// DefaultConfig returns the default watcher configuration.
func DefaultConfig() Config {
	return Config{
		Delay:      100 * time.Millisecond,
		BufferSize: 16,
	}
}

// Option configures a Watcher.
type Option func(*Config)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(c *Config) {
		c.Delay = d
	}
}

// WithBufferSize sets the channel capacity.
func WithBufferSize(n int) Option {
	return func(c *Config) {
		c.BufferSize = n
	}
}

// pendingEvent tracks a debounced change.
type pendingEvent struct {
	timer *time.Timer
	ops   Op
}

// Watcher delivers debounced change events for a set of files.
type Watcher struct {
	mu sync.Mutex

	fsw    *fsnotify.Watcher
	config Config

	files   map[string]bool
	dirs    map[string]bool
	pending map[string]*pendingEvent

	events chan Event
	errors chan error

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// New creates a watcher. Call Add for each file, then read Events.
func New(opts ...Option) (*Watcher, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Delay <= 0 {
		config.Delay = DefaultConfig().Delay
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		config:  config,
		files:   make(map[string]bool),
		dirs:    make(map[string]bool),
		pending: make(map[string]*pendingEvent),
		events:  make(chan Event, config.BufferSize),
		errors:  make(chan error, config.BufferSize),
		closeCh: make(chan struct{}),
	}

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Add starts tracking the file at path.
func (w *Watcher) Add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}
	if info.IsDir() {
		return ErrNotAFile
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}

	dir := filepath.Dir(absPath)
	if !w.dirs[dir] {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
	}
	w.files[absPath] = true
	return nil
}

// Events returns the debounced event channel. It is closed by Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the error channel. It is closed by Close.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and closes its channels.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)

	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	w.closedWg.Wait()

	close(w.events)
	close(w.errors)
	return err
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

func (w *Watcher) handleFSEvent(fsEvent fsnotify.Event) {
	op := convertOp(fsEvent.Op)
	if op == 0 {
		return
	}

	path := filepath.Clean(fsEvent.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || !w.files[path] {
		return
	}

	if p, ok := w.pending[path]; ok {
		p.ops |= op
		p.timer.Reset(w.config.Delay)
		return
	}

	w.pending[path] = &pendingEvent{
		ops:   op,
		timer: time.AfterFunc(w.config.Delay, func() { w.fire(path) }),
	}
}

// fire emits the coalesced event for path once its quiet period ends.
func (w *Watcher) fire(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.pending[path]
	if !ok || w.closed {
		return
	}
	delete(w.pending, path)

	select {
	case w.events <- Event{Path: path, Op: p.ops, Timestamp: time.Now()}:
	default:
		// Channel full, drop event
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}

// convertOp maps fsnotify operations, ignoring chmod.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	return op
}

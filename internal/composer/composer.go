// Package composer decodes a validated file sequence into a preview batch.
//
// Every call to Compose starts a new version. All files of a version are
// decoded concurrently and the batch is published only once every decode has
// settled, so readers see either the previous complete batch or the new
// complete batch. A version that is superseded before it settles is never
// published.
//
// Failed or timed-out decodes are left out of the batch and reported in
// Batch.Failures.
package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/storyboard/internal/decode"
	"github.com/lehigh-university-libraries/storyboard/internal/layout"
	"github.com/lehigh-university-libraries/storyboard/internal/models"
)

// DefaultDecodeTimeout bounds a single file decode.
const DefaultDecodeTimeout = 10 * time.Second

// ErrSuperseded is returned by Wait when a newer version was started.
var ErrSuperseded = errors.New("batch superseded by a newer selection")

// State is the composer lifecycle state.
type State int

const (
	Idle State = iota
	Decoding
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Decoding:
		return "decoding"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Batch is a published set of previews for one version.
type Batch struct {
	Version  uint64                 `json:"version" yaml:"version"`
	Previews []models.DecodedPreview `json:"previews" yaml:"previews"`
	Failures []models.DecodeFailure  `json:"failures,omitempty" yaml:"failures,omitempty"`
	Layout   models.Layout          `json:"layout" yaml:"layout"`
}

// Options configures a Composer.
type Options struct {
	// DecodeTimeout bounds each file decode. Zero uses DefaultDecodeTimeout.
	DecodeTimeout time.Duration
	// Concurrency limits simultaneous decodes. Zero means one goroutine per file.
	Concurrency int
	// Now is used to stamp preview ids. Defaults to time.Now.
	Now func() time.Time
}

// Composer owns the preview batch derived from a selection.
type Composer struct {
	decoder     decode.Decoder
	timeout     time.Duration
	concurrency int
	now         func() time.Time

	mu        sync.Mutex
	version   uint64
	state     State
	current   Batch
	cancel    context.CancelFunc
	changed   chan struct{}
	onPublish func(Batch)
}

// New creates a Composer that decodes with d.
func New(d decode.Decoder, opts Options) *Composer {
	if opts.DecodeTimeout <= 0 {
		opts.DecodeTimeout = DefaultDecodeTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Composer{
		decoder:     d,
		timeout:     opts.DecodeTimeout,
		concurrency: opts.Concurrency,
		now:         opts.Now,
		state:       Idle,
		current:     Batch{Layout: layout.ForCount(0)},
		changed:     make(chan struct{}),
	}
}

// OnPublish registers fn to be called after each batch is published.
func (c *Composer) OnPublish(fn func(Batch)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPublish = fn
}

// Compose starts decoding seq as a new version and returns that version.
// It does not block; use Wait to block until the batch is published.
// The in-flight version, if any, is cancelled and will not be published.
func (c *Composer) Compose(ctx context.Context, seq []models.FileHandle) uint64 {
	files := make([]models.FileHandle, len(seq))
	copy(files, seq)

	c.mu.Lock()
	c.version++
	v := c.version
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.notifyLocked()

	if len(files) == 0 {
		c.mu.Unlock()
		c.publish(v, Idle, Batch{Version: v, Layout: layout.ForCount(0)})
		return v
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = Decoding
	c.mu.Unlock()

	slog.Debug("Decoding batch", "version", v, "files", len(files))
	go c.run(runCtx, v, files)
	return v
}

type outcome struct {
	preview models.DecodedPreview
	err     error
}

func (c *Composer) run(ctx context.Context, v uint64, files []models.FileHandle) {
	started := c.now()
	outcomes := make([]outcome, len(files))

	var g errgroup.Group
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}
	for i, f := range files {
		g.Go(func() error {
			fileCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			p, err := c.decoder.Decode(fileCtx, f)
			outcomes[i] = outcome{preview: p, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		slog.Debug("Discarding cancelled batch", "version", v)
		return
	}

	batch := assemble(v, files, outcomes, started)
	c.publish(v, Ready, batch)
}

func assemble(v uint64, files []models.FileHandle, outcomes []outcome, started time.Time) Batch {
	batch := Batch{
		Version:  v,
		Previews: make([]models.DecodedPreview, 0, len(files)),
	}

	counter := 0
	for i, o := range outcomes {
		if o.err != nil {
			slog.Warn("Failed to decode image", "version", v, "file", files[i].Name, "error", o.err)
			batch.Failures = append(batch.Failures, models.DecodeFailure{
				Label:  files[i].Name,
				Reason: failureReason(o.err),
			})
			continue
		}
		p := o.preview
		p.ID = previewID(files[i].Name, started, counter)
		if p.Label == "" {
			p.Label = files[i].Name
		}
		counter++
		batch.Previews = append(batch.Previews, p)
	}

	batch.Layout = layout.ForCount(len(batch.Previews))
	return batch
}

// previewID combines the file name, the batch start time and a batch-scoped
// counter so same-named files still get distinct ids.
func previewID(name string, started time.Time, counter int) string {
	return fmt.Sprintf("%s-%d-%d", name, started.UnixNano(), counter)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, decode.ErrTimeout):
		return "timed out while decoding"
	case errors.Is(err, decode.ErrTooLarge):
		return "file exceeds the size limit"
	case errors.Is(err, decode.ErrEmpty):
		return "file is empty"
	case errors.Is(err, decode.ErrUnsupported):
		return "not a readable image"
	default:
		return err.Error()
	}
}

func (c *Composer) publish(v uint64, state State, batch Batch) bool {
	c.mu.Lock()
	if v != c.version {
		c.mu.Unlock()
		slog.Debug("Discarding stale batch", "version", v)
		return false
	}
	c.current = batch
	c.state = state
	c.cancel = nil
	c.notifyLocked()
	hook := c.onPublish
	c.mu.Unlock()

	slog.Info("Published preview batch", "version", v, "previews", len(batch.Previews), "failures", len(batch.Failures))
	if hook != nil {
		hook(batch)
	}
	return true
}

func (c *Composer) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// Current returns the last published batch and the composer state. While a
// new version is decoding the previous batch is returned.
func (c *Composer) Current() (Batch, State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.state
}

// Wait blocks until version v is published. It returns ErrSuperseded when a
// newer version started first.
func (c *Composer) Wait(ctx context.Context, v uint64) (Batch, error) {
	for {
		c.mu.Lock()
		if c.version != v {
			c.mu.Unlock()
			return Batch{}, ErrSuperseded
		}
		if c.current.Version == v && c.state != Decoding {
			b := c.current
			c.mu.Unlock()
			return b, nil
		}
		ch := c.changed
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return Batch{}, ctx.Err()
		}
	}
}

// Close cancels any in-flight version and releases its waiters.
func (c *Composer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.version++
	c.notifyLocked()
}

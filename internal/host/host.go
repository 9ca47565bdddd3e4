// Package host ties a session's selection intake to its preview composer.
//
// The host is the single owner of the validated file sequence. Every
// emission from the intake replaces the sequence wholesale and starts a new
// composer version.
package host

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/storyboard/internal/composer"
	"github.com/lehigh-university-libraries/storyboard/internal/decode"
	"github.com/lehigh-university-libraries/storyboard/internal/intake"
	"github.com/lehigh-university-libraries/storyboard/internal/models"
)

// Source identifies the gesture a selection came from.
type Source string

const (
	SourcePicker Source = "picker"
	SourceDrop   Source = "drop"
)

// ParseSource maps a form value to a Source. Empty means picker.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case "", SourcePicker:
		return SourcePicker, nil
	case SourceDrop:
		return SourceDrop, nil
	default:
		return "", fmt.Errorf("invalid source %q: must be 'picker' or 'drop'", s)
	}
}

// Options configures a Host.
type Options struct {
	MaxImages int
	Decoder   decode.Decoder
	Composer  composer.Options
}

// Host holds one storyboard session.
type Host struct {
	ID        string
	CreatedAt time.Time

	submitMu sync.Mutex

	mu        sync.RWMutex
	updatedAt time.Time
	selection []models.FileHandle
	version   uint64

	intake   *intake.Intake
	composer *composer.Composer
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a session host.
func New(id string, opts Options) *Host {
	if opts.Decoder == nil {
		opts.Decoder = decode.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	h := &Host{
		ID:        id,
		CreatedAt: now,
		updatedAt: now,
		composer:  composer.New(opts.Decoder, opts.Composer),
		ctx:       ctx,
		cancel:    cancel,
	}
	h.intake = intake.New(opts.MaxImages, h.replaceSelection)
	return h
}

func (h *Host) replaceSelection(seq []models.FileHandle) {
	v := h.composer.Compose(h.ctx, seq)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.selection = seq
	h.version = v
}

// Submit runs files through the intake entry point for source. It reports
// whether a new sequence was accepted and the composer version it started.
func (h *Host) Submit(source Source, files []models.FileHandle) (uint64, bool) {
	h.submitMu.Lock()
	defer h.submitMu.Unlock()

	var emitted bool
	switch source {
	case SourceDrop:
		_, emitted = h.intake.Drop(files)
	default:
		_, emitted = h.intake.Pick(files)
	}

	h.mu.Lock()
	h.updatedAt = time.Now()
	v := h.version
	h.mu.Unlock()

	return v, emitted
}

// Drag applies a drag gesture to the hover flag.
func (h *Host) Drag(event string) error {
	switch event {
	case "enter":
		h.intake.DragEnter()
	case "over":
		h.intake.DragOver()
	case "leave":
		h.intake.DragLeave()
	default:
		return fmt.Errorf("invalid drag event %q: must be 'enter', 'over', or 'leave'", event)
	}
	h.touch()
	return nil
}

// Wait blocks until the latest version is published.
func (h *Host) Wait(ctx context.Context) (composer.Batch, error) {
	h.mu.RLock()
	v := h.version
	h.mu.RUnlock()

	if v == 0 {
		b, _ := h.composer.Current()
		return b, nil
	}
	return h.composer.Wait(ctx, v)
}

// Batch returns the published preview batch and composer state.
func (h *Host) Batch() (composer.Batch, composer.State) {
	return h.composer.Current()
}

// Message returns the intake message of the last submission.
func (h *Host) Message() string {
	return h.intake.Message()
}

// Selection returns a copy of the current validated sequence.
func (h *Host) Selection() []models.FileHandle {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.FileHandle, len(h.selection))
	copy(out, h.selection)
	return out
}

// MaxImages returns the session's cap.
func (h *Host) MaxImages() int {
	return h.intake.MaxImages()
}

// UpdatedAt returns the time of the last user interaction.
func (h *Host) UpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.updatedAt
}

func (h *Host) touch() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updatedAt = time.Now()
}

// Close abandons any in-flight decodes.
func (h *Host) Close() {
	h.composer.Close()
	h.cancel()
}

// Snapshot is the JSON view of a session.
type Snapshot struct {
	ID        string                  `json:"id"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
	MaxImages int                     `json:"max_images"`
	Message   string                  `json:"message,omitempty"`
	Hovering  bool                    `json:"hovering"`
	Files     []models.FileHandle     `json:"files"`
	State     string                  `json:"state"`
	Version   uint64                  `json:"version"`
	Previews  []models.DecodedPreview `json:"previews"`
	Failures  []models.DecodeFailure  `json:"failures,omitempty"`
	Layout    models.Layout           `json:"layout"`
}

// Snapshot captures the session state.
func (h *Host) Snapshot() Snapshot {
	batch, state := h.composer.Current()
	return Snapshot{
		ID:        h.ID,
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt(),
		MaxImages: h.intake.MaxImages(),
		Message:   h.intake.Message(),
		Hovering:  h.intake.Hovering(),
		Files:     h.Selection(),
		State:     state.String(),
		Version:   batch.Version,
		Previews:  batch.Previews,
		Failures:  batch.Failures,
		Layout:    batch.Layout,
	}
}

// Summary returns the list view of the session.
func (h *Host) Summary() models.SessionSummary {
	batch, state := h.composer.Current()
	return models.SessionSummary{
		ID:        h.ID,
		Files:     len(h.Selection()),
		Previews:  len(batch.Previews),
		State:     state.String(),
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt(),
	}
}

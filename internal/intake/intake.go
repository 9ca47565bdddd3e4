// Package intake validates and caps a file selection before it reaches the
// preview composer.
//
// Both entry points, the file picker and a drag-and-drop gesture, run the
// same validation path. The outcome is an ordered sequence of image files
// (possibly truncated to the cap) plus a single optional message that
// replaces whatever message the previous submission left behind.
package intake

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/lehigh-university-libraries/storyboard/internal/models"
)

// DefaultMaxImages is the cap used when none is configured.
const DefaultMaxImages = 4

// ErrNoImagesSelected is reported when a selection contains no image files.
// Nothing is emitted in that case.
var ErrNoImagesSelected = errors.New("No image files selected. Please upload PNG, JPG, GIF, etc.")

// ErrTooManyImages matches any LimitError.
var ErrTooManyImages = errors.New("too many images selected")

// LimitError is reported when a selection exceeds the cap. The first Max
// files are still emitted.
type LimitError struct {
	Max      int
	Selected int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("You can only upload up to %d images.", e.Max)
}

func (e *LimitError) Is(target error) bool {
	return target == ErrTooManyImages
}

// Emitter receives every validated sequence. The slice is owned by the
// receiver.
type Emitter func(seq []models.FileHandle)

// Intake holds the per-session intake state.
type Intake struct {
	mu        sync.Mutex
	maxImages int
	emit      Emitter
	err       error
	hovering  bool
	picker    string
}

// New creates an Intake capped at maxImages. A non-positive cap falls back
// to DefaultMaxImages.
func New(maxImages int, emit Emitter) *Intake {
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}
	return &Intake{
		maxImages: maxImages,
		emit:      emit,
	}
}

// MaxImages returns the configured cap.
func (in *Intake) MaxImages() int {
	return in.maxImages
}

// Submit validates files against maxCount and emits the accepted sequence.
// It reports the emitted sequence and whether an emission happened.
// A non-positive maxCount falls back to the configured cap.
func (in *Intake) Submit(files []models.FileHandle, maxCount int) ([]models.FileHandle, bool) {
	if maxCount <= 0 {
		maxCount = in.maxImages
	}

	in.mu.Lock()
	seq, err := Validate(files, maxCount)
	in.err = err
	emit := in.emit
	in.mu.Unlock()

	if seq == nil {
		slog.Info("Selection rejected", "files", len(files), "reason", err)
		return nil, false
	}
	if err != nil {
		slog.Warn("Selection truncated", "selected", len(files), "accepted", len(seq), "max", maxCount)
	} else {
		slog.Info("Selection accepted", "files", len(seq))
	}

	if emit != nil {
		emit(seq)
	}
	return seq, true
}

// Pick is the file picker entry point. The picker value is reset afterwards
// so picking the very same files again triggers a new submission.
func (in *Intake) Pick(files []models.FileHandle) ([]models.FileHandle, bool) {
	in.mu.Lock()
	in.picker = pickerValue(files)
	in.mu.Unlock()

	seq, ok := in.Submit(files, in.maxImages)

	in.mu.Lock()
	in.picker = ""
	in.mu.Unlock()
	return seq, ok
}

// Drop is the drag-and-drop entry point.
func (in *Intake) Drop(files []models.FileHandle) ([]models.FileHandle, bool) {
	in.mu.Lock()
	in.hovering = false
	in.mu.Unlock()
	return in.Submit(files, in.maxImages)
}

// DragEnter marks the drop zone as hovered.
func (in *Intake) DragEnter() { in.setHovering(true) }

// DragOver keeps the drop zone hovered.
func (in *Intake) DragOver() { in.setHovering(true) }

// DragLeave clears the hover flag.
func (in *Intake) DragLeave() { in.setHovering(false) }

func (in *Intake) setHovering(v bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.hovering = v
}

// Hovering reports whether files are being dragged over the drop zone.
func (in *Intake) Hovering() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.hovering
}

// Err returns the outcome of the last submission, nil when it was clean.
func (in *Intake) Err() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.err
}

// Message returns the user-facing message of the last submission.
func (in *Intake) Message() string {
	if err := in.Err(); err != nil {
		return err.Error()
	}
	return ""
}

// PickerValue returns the current picker value. It is empty outside of a
// picker submission.
func (in *Intake) PickerValue() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.picker
}

// Validate filters files down to images and applies the cap. A nil sequence
// means nothing should be emitted. A LimitError comes with a non-nil,
// truncated sequence.
func Validate(files []models.FileHandle, maxCount int) ([]models.FileHandle, error) {
	if maxCount <= 0 {
		maxCount = DefaultMaxImages
	}

	images := make([]models.FileHandle, 0, len(files))
	for _, f := range files {
		if IsImage(f.MediaType) {
			images = append(images, f)
		}
	}

	if len(images) == 0 {
		return nil, ErrNoImagesSelected
	}

	if len(images) > maxCount {
		return images[:maxCount:maxCount], &LimitError{Max: maxCount, Selected: len(images)}
	}

	return images, nil
}

// IsImage reports whether mediaType is an image/* type.
func IsImage(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}

func pickerValue(files []models.FileHandle) string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return strings.Join(names, ", ")
}

package models

import "time"

// FileHandle is a candidate file as delivered by either the picker or a drop.
type FileHandle struct {
	Name      string `json:"name" yaml:"name"`
	MediaType string `json:"media_type" yaml:"mediatype"`
	Data      []byte `json:"-" yaml:"-"`
}

// Size returns the payload length in bytes.
func (f FileHandle) Size() int {
	return len(f.Data)
}

// DecodedPreview is a decoded image ready to be rendered in the grid
type DecodedPreview struct {
	ID        string `json:"id" yaml:"id"`
	Source    string `json:"source" yaml:"-"`
	Label     string `json:"label" yaml:"label"`
	MediaType string `json:"media_type" yaml:"mediatype"`
	Width     int    `json:"width" yaml:"width"`
	Height    int    `json:"height" yaml:"height"`
}

// DecodeFailure records a file that was dropped from a batch
type DecodeFailure struct {
	Label  string `json:"label" yaml:"label"`
	Reason string `json:"reason" yaml:"reason"`
}

// Layout is the grid shape derived from the number of previews
type Layout struct {
	Columns int `json:"columns" yaml:"columns"`
	Rows    int `json:"rows" yaml:"rows"`
	Fillers int `json:"fillers" yaml:"fillers"`
}

// SessionSummary is the list view of a storyboard session
type SessionSummary struct {
	ID        string    `json:"id"`
	Files     int       `json:"files"`
	Previews  int       `json:"previews"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

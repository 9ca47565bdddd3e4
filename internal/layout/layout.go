// Package layout derives the storyboard grid shape from the number of previews.
package layout

import (
	"fmt"

	"github.com/lehigh-university-libraries/storyboard/internal/models"
)

// ForCount returns the grid for count previews.
//
// Three previews use a 3x2 grid with a single filler cell so the card keeps
// its shape. Counts above four are not reachable with the default cap and
// fall back to 2x2.
func ForCount(count int) models.Layout {
	switch {
	case count <= 1:
		return models.Layout{Columns: 1, Rows: 1}
	case count == 2:
		return models.Layout{Columns: 2, Rows: 1}
	case count == 3:
		return models.Layout{Columns: 3, Rows: 2, Fillers: 1}
	default:
		return models.Layout{Columns: 2, Rows: 2}
	}
}

// Classes returns the CSS grid classes for l.
func Classes(l models.Layout) string {
	return fmt.Sprintf("grid-cols-%d grid-rows-%d", l.Columns, l.Rows)
}

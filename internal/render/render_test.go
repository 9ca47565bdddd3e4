package render

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/storyboard/internal/composer"
	"github.com/lehigh-university-libraries/storyboard/internal/layout"
	"github.com/lehigh-university-libraries/storyboard/internal/models"
)

func batchOf(n int) composer.Batch {
	b := composer.Batch{Version: 1, Layout: layout.ForCount(n)}
	for i := 0; i < n; i++ {
		b.Previews = append(b.Previews, models.DecodedPreview{
			ID:     fmt.Sprintf("p%d.png-1-%d", i, i),
			Source: "data:image/png;base64,AAAA",
			Label:  fmt.Sprintf("p%d.png", i),
		})
	}
	return b
}

func TestStoryboardGrid(t *testing.T) {
	tests := []struct {
		count   int
		classes string
		fillers int
	}{
		{1, "grid-cols-1 grid-rows-1", 0},
		{2, "grid-cols-2 grid-rows-1", 0},
		{3, "grid-cols-3 grid-rows-2", 1},
		{4, "grid-cols-2 grid-rows-2", 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d previews", tt.count), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Storyboard(&buf, batchOf(tt.count)); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			out := buf.String()

			if !strings.Contains(out, tt.classes) {
				t.Errorf("Expected classes %q in output", tt.classes)
			}
			if got := strings.Count(out, `class="storyboard-image"`); got != tt.count {
				t.Errorf("Expected %d images, got %d", tt.count, got)
			}
			if got := strings.Count(out, "storyboard-filler"); got != tt.fillers {
				t.Errorf("Expected %d filler cells, got %d", tt.fillers, got)
			}
			if strings.Contains(out, "ZgotmplZ") {
				t.Error("Expected data URI to survive escaping")
			}
		})
	}
}

func TestStoryboardEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Storyboard(&buf, composer.Batch{Layout: layout.ForCount(0)}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "" {
		t.Errorf("Expected empty output, got %q", buf.String())
	}
}

func TestStoryboardFailuresOnly(t *testing.T) {
	var buf bytes.Buffer
	b := composer.Batch{Failures: []models.DecodeFailure{{Label: "bad.png", Reason: "not a readable image"}}}
	if err := Storyboard(&buf, b); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "storyboard-card") {
		t.Error("Expected no card without previews")
	}
	if !strings.Contains(out, "bad.png: not a readable image") {
		t.Errorf("Expected failure listed, got %q", out)
	}
}

func TestLabelIsEscaped(t *testing.T) {
	b := batchOf(1)
	b.Previews[0].Label = `"><script>x</script>`

	var buf bytes.Buffer
	if err := Storyboard(&buf, b); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if strings.Contains(buf.String(), "<script>") {
		t.Error("Expected label to be escaped")
	}
}

func TestImageSrcRejectsNonDataURIs(t *testing.T) {
	if got := imageSrc("javascript:alert(1)"); got != "" {
		t.Errorf("Expected blank src, got %q", got)
	}
}

func TestPage(t *testing.T) {
	var buf bytes.Buffer
	err := Page(&buf, PageData{
		SessionID: "abc",
		MaxImages: 4,
		Message:   "You can only upload up to 4 images.",
		Batch:     batchOf(2),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`data-session="abc"`, "MAX. 4 images", "You can only upload up to 4 images.", "grid-cols-2 grid-rows-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in page", want)
		}
	}
}

package cmd

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/storyboard/internal/config"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 3))); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func TestComposeLocalFiles(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writePNG(t, dir, "one.png"),
		writePNG(t, dir, "two.png"),
		writePNG(t, dir, "three.png"),
	}
	notes := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notes, []byte("not an image"), 0644); err != nil {
		t.Fatalf("Failed to write notes: %v", err)
	}
	paths = append(paths, notes)

	files, err := readLocalFiles(paths)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	report, batch, err := compose(context.Background(), config.Default(), files)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if strings.Join(report.Accepted, ",") != "one.png,two.png,three.png" {
		t.Errorf("Unexpected accepted files %v", report.Accepted)
	}
	if report.State != "ready" {
		t.Errorf("Expected ready, got %s", report.State)
	}
	if batch.Layout.Columns != 3 || batch.Layout.Rows != 2 || batch.Layout.Fillers != 1 {
		t.Errorf("Unexpected layout %+v", batch.Layout)
	}
	if report.Previews[0].Width != 4 || report.Previews[0].Height != 3 {
		t.Errorf("Expected 4x3 preview, got %dx%d", report.Previews[0].Width, report.Previews[0].Height)
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	report := &ComposeReport{Accepted: []string{"a.png"}, State: "ready", Message: "You can only upload up to 4 images."}
	if err := writeReport(&buf, report); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Invalid YAML: %v", err)
	}
	if decoded["message"] != "You can only upload up to 4 images." {
		t.Errorf("Unexpected message %v", decoded["message"])
	}
}

func TestComposeCommandWritesHTML(t *testing.T) {
	dir := t.TempDir()
	img := writePNG(t, dir, "solo.png")
	out := filepath.Join(dir, "board.html")

	root := NewRootCmd()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{"compose", "--html", out, img})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	html, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Expected HTML file: %v", err)
	}
	if !strings.Contains(string(html), `alt="solo.png"`) {
		t.Errorf("Expected image alt text in HTML")
	}
	if !strings.Contains(stdout.String(), "solo.png") {
		t.Errorf("Expected report on stdout, got %q", stdout.String())
	}
}

package render_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/mpdart/mpdart/src/render"
)

// TestRendererSubstitutesPath makes sure {path} in the command template is
// replaced with the actual image path. The command writes its argument to
// a file so the test can see what it received.
func TestRendererSubstitutesPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("the display command runs through /bin/sh")
	}

	outFile := filepath.Join(t.TempDir(), "received")
	r := render.New("printf %s {path} > " + outFile)

	if !r.Enabled() {
		t.Fatalf("a renderer with a command template reported itself disabled")
	}

	err := r.Render(context.Background(), "/output/current_cover.jpg")
	if err != nil {
		t.Fatalf("rendering failed: %s", err)
	}

	received, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("reading the command output: %s", err)
	}
	if string(received) != "/output/current_cover.jpg" {
		t.Errorf("the command received `%s`", received)
	}
}

// TestRendererDisabled makes sure an empty or whitespace template makes
// the renderer a no-op.
func TestRendererDisabled(t *testing.T) {
	for _, template := range []string{"", "   ", "\t\n"} {
		r := render.New(template)
		if r.Enabled() {
			t.Errorf("renderer with template `%q` reported itself enabled", template)
		}
		if err := r.Render(context.Background(), "/some/path.jpg"); err != nil {
			t.Errorf("a disabled renderer returned an error: %s", err)
		}
	}
}

// TestRendererReportsFailures makes sure a failing command surfaces its
// exit status and output in the error.
func TestRendererReportsFailures(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("the display command runs through /bin/sh")
	}

	r := render.New("echo broken display; exit 3")

	err := r.Render(context.Background(), "/some/path.jpg")
	if err == nil {
		t.Fatalf("a failing command did not produce an error")
	}
	if !strings.Contains(err.Error(), "broken display") {
		t.Errorf("the command output is missing from the error: %s", err)
	}
}

// Package render invokes the external display command after every cache
// commit. The command is an opaque shell template from the configuration,
// e.g.
//
//	fbi -T 1 -d /dev/fb0 -a --noverbose {path}
//
// with {path} replaced by the cache file path. Its exit status is logged
// and otherwise ignored: painting the framebuffer is best effort.
package render

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// pathPlaceholder is the substring of the command template which is
// replaced with the image path.
const pathPlaceholder = "{path}"

// commandTimeout bounds a single renderer invocation so that a stuck
// display command cannot pile up processes.
const commandTimeout = 30 * time.Second

// Renderer runs the configured display command.
type Renderer struct {
	cmdTemplate string
}

// New returns a Renderer for cmdTemplate. An empty template produces a
// renderer which does nothing.
func New(cmdTemplate string) *Renderer {
	return &Renderer{cmdTemplate: strings.TrimSpace(cmdTemplate)}
}

// Enabled returns false when no display command is configured.
func (r *Renderer) Enabled() bool {
	return r.cmdTemplate != ""
}

// Render paints the image at imagePath using the configured command.
func (r *Renderer) Render(ctx context.Context, imagePath string) error {
	if !r.Enabled() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmdLine := strings.ReplaceAll(r.cmdTemplate, pathPlaceholder, imagePath)
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", cmdLine)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("display command `%s`: %w (output: %s)", cmdLine, err, out)
	}

	return nil
}

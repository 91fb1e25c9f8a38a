// Package toolchain shells out to the external geospatial binaries the
// pipeline depends on: GDAL (ogr2ogr, gdalwarp, gdal_translate, gdaladdo,
// gdalbuildvrt), tippecanoe, and the pmtiles converter. The pipeline's own
// job is assembling argument lists and file paths; the heavy lifting stays
// in the tools.
package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/couchcryptid/hazard-tile-service/internal/observability"
)

// Command is one external tool invocation.
type Command struct {
	Tool string
	Args []string
}

func (c Command) String() string {
	return c.Tool + " " + strings.Join(c.Args, " ")
}

// Runner executes external commands. Tests substitute a fake to assert on
// argument lists without GDAL installed.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands via os/exec with the PROJ environment defaults
// the conversions rely on.
type ExecRunner struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Run executes the command, logging duration and surfacing stderr in the
// returned error on failure.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	r.Logger.Info("running command", "tool", cmd.Tool, "args", strings.Join(cmd.Args, " "))

	c := exec.CommandContext(ctx, cmd.Tool, cmd.Args...)
	c.Env = append(os.Environ(),
		"PROJ_NETWORK=YES",
		"OSR_USE_ESTIMATED_COORD_OPS=YES",
	)
	var stderr bytes.Buffer
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	elapsed := time.Since(start)

	if r.Metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		r.Metrics.SubprocessRuns.WithLabelValues(cmd.Tool, outcome).Inc()
		r.Metrics.SubprocessDuration.WithLabelValues(cmd.Tool).Observe(elapsed.Seconds())
	}

	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 2048 {
			msg = msg[len(msg)-2048:] // GDAL repeats warnings; keep the tail
		}
		return fmt.Errorf("%s failed: %w: %s", cmd.Tool, err, msg)
	}
	r.Logger.Info("command finished", "tool", cmd.Tool, "duration", elapsed)
	return nil
}

package video

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// CommandRunner executes ffmpeg and reports output position in seconds while
// the encode runs.
type CommandRunner interface {
	Run(ctx context.Context, binary string, args []string, onPosition func(seconds float64)) error
}

type ffmpegRunner struct{}

// NewFFmpegRunner returns the production runner that shells out to ffmpeg and
// parses its machine-readable progress stream.
func NewFFmpegRunner() CommandRunner {
	return ffmpegRunner{}
}

func (ffmpegRunner) Run(ctx context.Context, binary string, args []string, onPosition func(seconds float64)) error {
	full := append([]string{"-progress", "pipe:1", "-nostats"}, args...)
	cmd := exec.CommandContext(ctx, binary, full...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("open ffmpeg progress pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if seconds, ok := parseProgressLine(scanner.Text()); ok && onPosition != nil {
			onPosition(seconds)
		}
	}

	if err := cmd.Wait(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLines(detail, 5))
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	return nil
}

// parseProgressLine extracts the output position from one line of ffmpeg's
// -progress stream. Lines look like "out_time_us=1234567".
func parseProgressLine(line string) (float64, bool) {
	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return 0, false
	}
	switch key {
	case "out_time_us", "out_time_ms":
		micros, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || micros < 0 {
			return 0, false
		}
		return float64(micros) / 1e6, true
	default:
		return 0, false
	}
}

func lastLines(text string, n int) string {
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

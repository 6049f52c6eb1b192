// Package collaborator adapts external programs to the generator and uploader
// contracts of the orchestrator.
package collaborator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cuongbtq/printq/internal/orchestrator"
)

// ErrNoCommand is returned when an adapter is built without a command
var ErrNoCommand = errors.New("no command configured")

// waitDelay bounds how long a killed command may keep its output pipes open
const waitDelay = 2 * time.Second

// Generator runs an external G-code generator. The command receives
//
//	<source> --copies N --sweep=<bool> --cooldown=<bool> --cooldown-temp T
//
// and must print the generated artifact path as its last stdout line.
type Generator struct {
	command []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewGenerator creates a generator adapter. A zero timeout disables it.
func NewGenerator(command []string, timeout time.Duration, logger *slog.Logger) (*Generator, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("generator: %w", ErrNoCommand)
	}
	return &Generator{
		command: command,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Generate implements orchestrator.GCodeGenerator
func (g *Generator) Generate(ctx context.Context, req orchestrator.GenerateRequest) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	args := append(g.command[1:len(g.command):len(g.command)],
		req.SourceFile,
		"--copies", strconv.Itoa(req.Copies),
		"--sweep="+strconv.FormatBool(req.UseSweep),
		"--cooldown="+strconv.FormatBool(req.UseCooldown),
		"--cooldown-temp", strconv.Itoa(req.CooldownTemp),
	)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, g.command[0], args...)
	cmd.WaitDelay = waitDelay
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if detail := lastLine(stderr.String()); detail != "" {
			return "", fmt.Errorf("%s: %w", detail, err)
		}
		return "", err
	}

	output := lastLine(stdout.String())
	if output == "" {
		return "", errors.New("generator printed no output path")
	}

	g.logger.Debug("G-code generated",
		slog.String("source_file", req.SourceFile),
		slog.String("output_file", output),
		slog.Duration("took", time.Since(start)),
	)

	return output, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

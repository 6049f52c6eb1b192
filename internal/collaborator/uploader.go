package collaborator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cuongbtq/printq/internal/orchestrator"
)

// AccessCodeEnv carries the printer access code to the upload command so it
// never appears in the process list
const AccessCodeEnv = "PRINTQ_ACCESS_CODE"

// maxLineSize is the longest progress line the uploader output may contain
const maxLineSize = 1 << 20

// Uploader runs an external upload-and-start program. The command receives
//
//	--ip IP --serial SERIAL --file PATH --ams=<bool>
//
// with the access code in PRINTQ_ACCESS_CODE. Every stdout line is reported
// as progress; the last one is the result message. Exit status 0 is success.
type Uploader struct {
	command []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewUploader creates an uploader adapter. A zero timeout disables it.
func NewUploader(command []string, timeout time.Duration, logger *slog.Logger) (*Uploader, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("uploader: %w", ErrNoCommand)
	}
	return &Uploader{
		command: command,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// UploadAndStart implements orchestrator.PrintUploader
func (u *Uploader) UploadAndStart(ctx context.Context, req orchestrator.UploadRequest, status orchestrator.StatusFunc) (bool, string) {
	if status == nil {
		status = func(string) {}
	}
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	args := append(u.command[1:len(u.command):len(u.command)],
		"--ip", req.IP,
		"--serial", req.Serial,
		"--file", req.OutputFile,
		"--ams="+strconv.FormatBool(req.UseAMS),
	)

	cmd := exec.CommandContext(ctx, u.command[0], args...)
	cmd.WaitDelay = waitDelay
	cmd.Env = append(os.Environ(), AccessCodeEnv+"="+req.AccessCode)
	cmd.Stderr = io.Discard

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return false, fmt.Sprintf("Upload failed: %v", err)
	}
	if err := cmd.Start(); err != nil {
		return false, fmt.Sprintf("Upload failed: %v", err)
	}

	var last string
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if last != "" {
			status(last)
		}
		last = line
	}
	if err := scanner.Err(); err != nil {
		u.logger.Warn("Stopped reading upload progress",
			slog.String("serial", req.Serial),
			slog.String("error", err.Error()),
		)
	}
	io.Copy(io.Discard, stdout)

	if err := cmd.Wait(); err != nil {
		u.logger.Warn("Upload command failed",
			slog.String("serial", req.Serial),
			slog.String("output_file", req.OutputFile),
			slog.String("error", err.Error()),
		)
		if last == "" {
			last = fmt.Sprintf("Upload failed: %v", err)
		}
		return false, last
	}

	if last == "" {
		last = "Print started"
	}
	return true, last
}

package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Process runs an external extraction command against a temp copy of the
// PDF. The command receives the temp path and the original filename as its
// final arguments and must print a single JSON document to stdout. Any
// failure (spawn, timeout, empty or malformed output) degrades to the
// template result with the failure recorded; the temp file is removed in
// every case.
type Process struct {
	command string
	args    []string
	tempDir string
	timeout time.Duration
	logger  *slog.Logger
}

func NewProcess(cfg *Config, logger *slog.Logger) *Process {
	return &Process{
		command: cfg.Command,
		args:    slices.Clone(cfg.Args),
		tempDir: cfg.TempDir,
		timeout: cfg.TimeoutDuration(),
		logger:  logger.With("system", "extractor"),
	}
}

func (p *Process) Name() string { return "process" }

func (p *Process) Extract(ctx context.Context, content []byte, filename string) Result {
	tempPath := filepath.Join(p.tempDir, fmt.Sprintf("waybill_%s.pdf", uuid.NewString()))

	if err := os.WriteFile(tempPath, content, 0o600); err != nil {
		return templateResult(filename, fmt.Sprintf("write temp file: %v", err))
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			p.logger.Warn("temp file cleanup failed", "path", tempPath, "error", err)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := append(slices.Clone(p.args), tempPath, filename)
	cmd := exec.CommandContext(runCtx, p.command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		return templateResult(filename, fmt.Sprintf("extractor timed out after %s", p.timeout))
	}
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return templateResult(filename, fmt.Sprintf("extractor failed: %s", detail))
	}

	if stderr.Len() > 0 {
		p.logger.Warn("extractor wrote to stderr",
			"filename", filename,
			"stderr", strings.TrimSpace(stderr.String()))
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return templateResult(filename, "extractor produced no output")
	}
	if !json.Valid(out) {
		return templateResult(filename, "extractor produced malformed JSON")
	}

	p.logger.Info("extraction complete",
		"filename", filename,
		"duration", elapsed.Round(time.Millisecond))

	return Result{
		Success: true,
		Payload: out,
		Fields:  headerFields(out),
	}
}

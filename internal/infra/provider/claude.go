package provider

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/voidlock/gaffer/internal/domain"
)

// Ensure ClaudeCLI implements domain.Provider.
var _ domain.Provider = (*ClaudeCLI)(nil)

// maxScanTokenSize bounds a single stream-json line. Tool results can
// carry whole files, so the default bufio limit is far too small.
const maxScanTokenSize = 1024 * 1024

// ClaudeCLI drives the Claude Code CLI in print mode with
// --output-format stream-json and translates its NDJSON events into
// domain messages.
type ClaudeCLI struct {
	command string
	args    []string
	logger  domain.Logger
}

// NewClaudeCLI creates the adapter. cfg overrides the binary and adds
// extra arguments.
func NewClaudeCLI(cfg domain.ProviderConfig, logger domain.Logger) *ClaudeCLI {
	command := cfg.Command
	if command == "" {
		command = "claude"
	}
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &ClaudeCLI{command: command, args: cfg.Args, logger: logger}
}

// Name returns "claude".
func (c *ClaudeCLI) Name() string {
	return domain.ProviderClaude
}

// Execute spawns the CLI and streams its output as messages. The
// channel closes when the process exits or the context is cancelled.
// Backend failures surface as an error-variant message so the caller
// can persist them before unwinding.
func (c *ClaudeCLI) Execute(ctx context.Context, req domain.ExecuteRequest) (<-chan domain.Message, error) {
	if _, err := exec.LookPath(c.command); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, c.command)
	}

	args := []string{
		"-p",
		"--output-format", "stream-json",
		"--verbose",
		"--dangerously-skip-permissions",
	}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}
	args = append(args, c.args...)

	// #nosec G204 - command and args come from trusted configuration
	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Dir = req.WorkDir
	cmd.Stdin = strings.NewReader(req.Prompt)
	cmd.Env = appendThinkingEnv(os.Environ(), req.Thinking)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", c.command, err)
	}

	out := make(chan domain.Message)
	go func() {
		defer close(out)

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), maxScanTokenSize)

		for scanner.Scan() {
			if ctx.Err() != nil {
				break
			}
			for _, msg := range parseStreamLine(scanner.Bytes()) {
				select {
				case out <- msg:
				case <-ctx.Done():
					// Stop yielding once cancellation is observed; the
					// process is killed by CommandContext.
					_ = cmd.Wait()
					return
				}
			}
		}

		err := cmd.Wait()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			detail := strings.TrimSpace(stderr.String())
			if detail == "" {
				detail = err.Error()
			}
			out <- domain.Message{Kind: domain.MessageError, Text: detail}
		}
	}()

	return out, nil
}

// appendThinkingEnv maps the feature's thinking hint onto the CLI's
// extended-thinking budget.
func appendThinkingEnv(env []string, thinking string) []string {
	switch thinking {
	case domain.ThinkingMedium:
		return append(env, "MAX_THINKING_TOKENS=8000")
	case domain.ThinkingHigh:
		return append(env, "MAX_THINKING_TOKENS=31999")
	default:
		return env
	}
}

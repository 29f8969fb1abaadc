package provider

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	acpsdk "github.com/coder/acp-go-sdk"
	"github.com/voidlock/gaffer/internal/domain"
)

// Ensure ACP implements domain.Provider.
var _ domain.Provider = (*ACP)(nil)

// ACP spawns an Agent Client Protocol agent process and drives one
// prompt turn over it: initialize, new session in the working
// directory, prompt, session updates streamed back as messages.
type ACP struct {
	command string
	args    []string
	logger  domain.Logger
}

// NewACP creates the adapter. The default command runs the Gemini CLI
// in ACP mode; cfg overrides it for other ACP-speaking agents.
func NewACP(cfg domain.ProviderConfig, logger domain.Logger) *ACP {
	command := cfg.Command
	args := cfg.Args
	if command == "" {
		command = "gemini"
		if len(args) == 0 {
			args = []string{"--experimental-acp"}
		}
	}
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &ACP{command: command, args: args, logger: logger}
}

// Name returns "acp".
func (a *ACP) Name() string {
	return domain.ProviderACP
}

// Execute runs one prompt turn against the agent. The channel closes
// when the turn ends, the process exits, or the context is cancelled.
// Protocol and process failures surface as error-variant messages.
func (a *ACP) Execute(ctx context.Context, req domain.ExecuteRequest) (<-chan domain.Message, error) {
	if _, err := exec.LookPath(a.command); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, a.command)
	}

	cmdCtx, cancel := context.WithCancel(ctx)

	// #nosec G204 - command and args come from trusted configuration
	cmd := exec.CommandContext(cmdCtx, a.command, a.args...)
	cmd.Dir = req.WorkDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %s: %w", a.command, err)
	}

	out := make(chan domain.Message)
	client := &acpClient{ctx: cmdCtx, out: out, logger: a.logger}
	conn := acpsdk.NewClientSideConnection(client, stdin, stdout)

	go func() {
		defer close(out)
		defer func() {
			cancel()
			_ = cmd.Wait()
		}()

		emitErr := func(stage string, err error) {
			detail := strings.TrimSpace(stderr.String())
			if detail == "" {
				detail = err.Error()
			} else {
				detail = fmt.Sprintf("%v: %s", err, detail)
			}
			client.send(domain.Message{Kind: domain.MessageError, Text: "acp " + stage + ": " + detail})
		}

		if _, err := conn.Initialize(cmdCtx, acpsdk.InitializeRequest{
			ProtocolVersion: acpsdk.ProtocolVersionNumber,
			ClientCapabilities: acpsdk.ClientCapabilities{
				Fs:       acpsdk.FileSystemCapability{ReadTextFile: false, WriteTextFile: false},
				Terminal: false,
			},
		}); err != nil {
			if ctx.Err() == nil {
				emitErr("initialize", err)
			}
			return
		}

		session, err := conn.NewSession(cmdCtx, acpsdk.NewSessionRequest{
			Cwd:        req.WorkDir,
			McpServers: []acpsdk.McpServer{},
		})
		if err != nil {
			if ctx.Err() == nil {
				emitErr("new session", err)
			}
			return
		}

		// Forward cancellation to the agent; cooperative, the process
		// may keep running briefly after this.
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-ctx.Done():
				_ = conn.Cancel(context.Background(), acpsdk.CancelNotification{SessionId: session.SessionId})
			case <-stop:
			}
		}()

		resp, err := conn.Prompt(cmdCtx, acpsdk.PromptRequest{
			SessionId: session.SessionId,
			Prompt:    []acpsdk.ContentBlock{acpsdk.TextBlock(req.Prompt)},
		})
		if err != nil {
			if ctx.Err() == nil {
				emitErr("prompt", err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		client.send(domain.Message{Kind: domain.MessageResult, Text: string(resp.StopReason)})
	}()

	return out, nil
}

// acpClient receives agent-side notifications and forwards them as
// domain messages. Fs and terminal capabilities are not offered.
type acpClient struct {
	ctx      context.Context
	out      chan<- domain.Message
	logger   domain.Logger
	sendOnce sync.Mutex
}

var _ acpsdk.Client = (*acpClient)(nil)

// send forwards a message unless the run was cancelled. Sends are
// serialized so messages keep their arrival order.
func (c *acpClient) send(msg domain.Message) {
	c.sendOnce.Lock()
	defer c.sendOnce.Unlock()
	select {
	case c.out <- msg:
	case <-c.ctx.Done():
	}
}

// SessionUpdate maps agent notifications onto the message stream.
func (c *acpClient) SessionUpdate(_ context.Context, params acpsdk.SessionNotification) error {
	update := params.Update
	switch {
	case update.AgentMessageChunk != nil && update.AgentMessageChunk.Content.Text != nil:
		c.send(domain.Message{Kind: domain.MessageText, Text: update.AgentMessageChunk.Content.Text.Text})
	case update.AgentThoughtChunk != nil && update.AgentThoughtChunk.Content.Text != nil:
		c.send(domain.Message{Kind: domain.MessageThinking, Text: update.AgentThoughtChunk.Content.Text.Text})
	case update.ToolCall != nil:
		c.send(domain.Message{Kind: domain.MessageTool, ToolName: update.ToolCall.Title})
	}
	return nil
}

// RequestPermission auto-approves the first allow option. The engine
// runs unattended; isolation comes from the worktree, not from a
// human approving each edit.
func (c *acpClient) RequestPermission(_ context.Context, params acpsdk.RequestPermissionRequest) (acpsdk.RequestPermissionResponse, error) {
	if len(params.Options) == 0 {
		return acpsdk.RequestPermissionResponse{
			Outcome: acpsdk.RequestPermissionOutcome{
				Cancelled: &acpsdk.RequestPermissionOutcomeCancelled{Outcome: "cancelled"},
			},
		}, nil
	}

	selected := params.Options[0]
	for _, opt := range params.Options {
		if strings.HasPrefix(string(opt.Kind), "allow") {
			selected = opt
			break
		}
	}
	return acpsdk.RequestPermissionResponse{
		Outcome: acpsdk.RequestPermissionOutcome{
			Selected: &acpsdk.RequestPermissionOutcomeSelected{
				OptionId: selected.OptionId,
				Outcome:  "selected",
			},
		},
	}, nil
}

func (c *acpClient) WriteTextFile(_ context.Context, _ acpsdk.WriteTextFileRequest) (acpsdk.WriteTextFileResponse, error) {
	return acpsdk.WriteTextFileResponse{}, acpsdk.NewMethodNotFound(acpsdk.ClientMethodFsWriteTextFile)
}

func (c *acpClient) ReadTextFile(_ context.Context, _ acpsdk.ReadTextFileRequest) (acpsdk.ReadTextFileResponse, error) {
	return acpsdk.ReadTextFileResponse{}, acpsdk.NewMethodNotFound(acpsdk.ClientMethodFsReadTextFile)
}

func (c *acpClient) CreateTerminal(_ context.Context, _ acpsdk.CreateTerminalRequest) (acpsdk.CreateTerminalResponse, error) {
	return acpsdk.CreateTerminalResponse{}, acpsdk.NewMethodNotFound(acpsdk.ClientMethodTerminalCreate)
}

func (c *acpClient) TerminalOutput(_ context.Context, _ acpsdk.TerminalOutputRequest) (acpsdk.TerminalOutputResponse, error) {
	return acpsdk.TerminalOutputResponse{}, acpsdk.NewMethodNotFound(acpsdk.ClientMethodTerminalOutput)
}

func (c *acpClient) ReleaseTerminal(_ context.Context, _ acpsdk.ReleaseTerminalRequest) (acpsdk.ReleaseTerminalResponse, error) {
	return acpsdk.ReleaseTerminalResponse{}, acpsdk.NewMethodNotFound(acpsdk.ClientMethodTerminalRelease)
}

func (c *acpClient) WaitForTerminalExit(_ context.Context, _ acpsdk.WaitForTerminalExitRequest) (acpsdk.WaitForTerminalExitResponse, error) {
	return acpsdk.WaitForTerminalExitResponse{}, acpsdk.NewMethodNotFound(acpsdk.ClientMethodTerminalWaitForExit)
}

func (c *acpClient) KillTerminalCommand(_ context.Context, _ acpsdk.KillTerminalCommandRequest) (acpsdk.KillTerminalCommandResponse, error) {
	return acpsdk.KillTerminalCommandResponse{}, acpsdk.NewMethodNotFound(acpsdk.ClientMethodTerminalKill)
}

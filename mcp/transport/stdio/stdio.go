// Package stdio implements the MCP client transport over a subprocess:
// the server is spawned as a child process and messages are exchanged as
// newline-delimited JSON-RPC on its stdin/stdout.
package stdio

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpbridge/mcp/transport"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mcpbridge/mcp/transport", "stdio")

// max line size for a single JSON-RPC message
const maxLineSize = 1024 * 1024

// Transport spawns a server subprocess and speaks newline-delimited JSON-RPC
// over its standard streams. The child's stderr is forwarded to the logger.
type Transport struct {
	command string
	args    []string
	env     []string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	messageHandler func(ctx context.Context, message *transport.BaseJsonRpcMessage)
	errorHandler   func(error)
	closeHandler   func()
	mu             sync.RWMutex

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a stdio transport that will run the given command.
func New(command string, args ...string) *Transport {
	return &Transport{
		command: command,
		args:    args,
		done:    make(chan struct{}),
	}
}

// WithEnv sets additional environment variables for the child process,
// in "KEY=VALUE" form.
func (t *Transport) WithEnv(env ...string) *Transport {
	t.env = append(t.env, env...)
	return t
}

// Start implements Transport.Start: it spawns the child process and begins
// the read loop. It does not block.
func (t *Transport) Start(ctx context.Context) error {
	if t.cmd != nil {
		return errors.New("transport already started")
	}

	cmd := exec.Command(t.command, t.args...)
	if len(t.env) > 0 {
		cmd.Env = append(cmd.Environ(), t.env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.WithMessage(err, "failed to open stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.WithMessage(err, "failed to open stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.WithMessage(err, "failed to open stderr pipe")
	}

	if err := cmd.Start(); err != nil {
		return errors.WithMessagef(err, "failed to start command: %s", t.command)
	}

	t.cmd = cmd
	t.stdin = stdin
	t.stdout = stdout

	go t.readLoop(stdout)
	go t.drainStderr(stderr)

	return nil
}

// Send implements Transport.Send: one message per line on the child's stdin.
func (t *Transport) Send(ctx context.Context, message *transport.BaseJsonRpcMessage) error {
	if t.stdin == nil {
		return errors.New("transport not started")
	}

	data, err := message.MarshalJSON()
	if err != nil {
		return errors.WithMessage(err, "failed to marshal message")
	}
	data = append(data, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.stdin.Write(data); err != nil {
		return errors.WithMessage(err, "failed to write message")
	}
	return nil
}

// Close implements Transport.Close: it closes the child's stdin and kills the
// process if it does not exit. It is safe to call more than once; the protocol
// layer closes the transport on its own shutdown path as well.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)

		if t.stdin != nil {
			_ = t.stdin.Close()
		}
		if t.cmd != nil && t.cmd.Process != nil {
			_ = t.cmd.Process.Kill()
			_ = t.cmd.Wait()
		}

		t.mu.RLock()
		closeHandler := t.closeHandler
		t.mu.RUnlock()
		if closeHandler != nil {
			closeHandler()
		}
	})
	return nil
}

// SetCloseHandler implements Transport.SetCloseHandler
func (t *Transport) SetCloseHandler(handler func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeHandler = handler
}

// SetErrorHandler implements Transport.SetErrorHandler
func (t *Transport) SetErrorHandler(handler func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errorHandler = handler
}

// SetMessageHandler implements Transport.SetMessageHandler
func (t *Transport) SetMessageHandler(handler func(ctx context.Context, message *transport.BaseJsonRpcMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messageHandler = handler
}

func (t *Transport) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		select {
		case <-t.done:
			return
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		message, err := transport.ParseMessage(line)
		if err != nil {
			t.reportError(errors.WithMessage(err, "failed to parse message"))
			continue
		}

		t.mu.RLock()
		handler := t.messageHandler
		t.mu.RUnlock()
		if handler != nil {
			handler(context.Background(), message)
		}
	}

	if err := scanner.Err(); err != nil {
		t.reportError(errors.WithMessage(err, "read loop failed"))
	}
}

func (t *Transport) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		logger.KV(xlog.DEBUG, "command", t.command, "stderr", scanner.Text())
	}
}

func (t *Transport) reportError(err error) {
	t.mu.RLock()
	handler := t.errorHandler
	t.mu.RUnlock()
	if handler != nil {
		handler(err)
	}
}

package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/vk/gridsweep/internal/ctxlog"
	"github.com/vk/gridsweep/internal/sweep"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// connectTimeout bounds how long Dial waits for the server.
const connectTimeout = 15 * time.Second

// SocketIOOptions configures Dial.
type SocketIOOptions struct {
	URL string
	// RunID tags every event so observers can tell concurrent sweeps apart.
	RunID              string
	Namespace          string
	InsecureSkipVerify bool
}

// SocketIO emits progress events to a socket.io server over websockets.
type SocketIO struct {
	client *socket.Socket
	runID  string
	logger *slog.Logger
}

// Dial connects to the socket.io server and waits for the connection to be
// acknowledged.
func Dial(ctx context.Context, opts SocketIOOptions) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("reporter", "socketio", "url", opts.URL)
	logger.Debug("Connecting progress reporter.")

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("notify URL %q must include a scheme and host", opts.URL)
	}

	clientOpts := socket.DefaultOptions()
	clientOpts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		clientOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	clientOpts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, clientOpts)
	io := manager.Socket(opts.Namespace, clientOpts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Progress reporter connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &SocketIO{client: io, runID: opts.RunID, logger: logger}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", connectTimeout)
	}
}

// TaskStarted emits a task_started event.
func (s *SocketIO) TaskStarted(_ context.Context, id int, a sweep.Assignment) {
	s.logger.Debug("Emitting event", "event", EventTaskStarted, "task", id)
	s.client.Emit(EventTaskStarted, startedPayload(s.runID, id, a))
}

// TaskFinished emits a task_finished event.
func (s *SocketIO) TaskFinished(_ context.Context, id int, exitCode int, err error) {
	s.logger.Debug("Emitting event", "event", EventTaskFinished, "task", id, "exit_code", exitCode)
	s.client.Emit(EventTaskFinished, finishedPayload(s.runID, id, exitCode, err))
}

// Close disconnects from the server.
func (s *SocketIO) Close() error {
	s.logger.Debug("Disconnecting progress reporter", "sid", s.client.Id())
	s.client.Disconnect()
	return nil
}

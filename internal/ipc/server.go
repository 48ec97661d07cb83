package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
)

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// ServeOption configures Serve.
type ServeOption func(*serveConfig)

type serveConfig struct {
	logger *slog.Logger
}

// WithLogger records each served command at debug level.
func WithLogger(logger *slog.Logger) ServeOption {
	return func(cfg *serveConfig) {
		cfg.logger = logger
	}
}

// Serve accepts unix-socket clients until context cancellation or listener close.
// Invalid requests are answered without reaching handler.
func Serve(ctx context.Context, listener net.Listener, handler Handler, opts ...ServeOption) error {
	var cfg serveConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()

			reader := bufio.NewReader(c)
			line, err := reader.ReadBytes('\n')
			if err != nil {
				_ = json.NewEncoder(c).Encode(Response{OK: false, Error: fmt.Sprintf("read request: %v", err)})
				return
			}

			var req Request
			if err := json.Unmarshal(line, &req); err != nil {
				_ = json.NewEncoder(c).Encode(Response{OK: false, Error: fmt.Sprintf("decode request: %v", err)})
				return
			}

			var resp Response
			if err := req.Validate(); err != nil {
				resp = Response{OK: false, Error: err.Error()}
			} else {
				resp = handler.Handle(ctx, req)
			}
			cfg.log(req, resp)
			_ = json.NewEncoder(c).Encode(resp)
		}(conn)
	}
}

func (cfg serveConfig) log(req Request, resp Response) {
	if cfg.logger == nil {
		return
	}
	args := []any{"command", req.Command, "ok", resp.OK}
	if req.Enable != nil {
		args = append(args, "enable", *req.Enable)
	}
	if resp.Error != "" {
		args = append(args, "error", resp.Error)
	}
	cfg.logger.Debug("ipc command", args...)
}

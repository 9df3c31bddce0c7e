package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/phuslu/log"

	"github.com/0xRadioAc7iv/minkdb/internal/protocol"
)

var ErrServerBusy = errors.New("server busy, try again later")

// ConnHandler decodes commands from TCP connections and runs them through
// an Executor.
type ConnHandler struct {
	executor *Executor
	logger   *log.Logger
}

func NewConnHandler(executor *Executor, logger *log.Logger) *ConnHandler {
	return &ConnHandler{executor: executor, logger: logger}
}

// ServeConn answers commands on conn until the client disconnects or ctx is
// cancelled.
func (h *ConnHandler) ServeConn(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	h.logger.Debug().Str("remote", remote).Msg("client connected")

	for {
		command, err := protocol.DecodeCommand(conn)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				h.logger.Debug().Str("remote", remote).Msg("client disconnected")
			} else {
				h.logger.Warn().Err(err).Str("remote", remote).Msg("bad command frame, dropping client")
			}
			return
		}

		resp, err := h.executor.Submit(ctx, command)
		if err != nil {
			resp = protocol.Error(err)
		}

		if err := h.reply(conn, resp); err != nil {
			h.logger.Debug().Err(err).Str("remote", remote).Msg("client disconnected")
			return
		}
	}
}

// Reject tells a client that no worker was free to serve it.
func (h *ConnHandler) Reject(conn net.Conn) {
	if err := h.reply(conn, protocol.Error(ErrServerBusy)); err != nil {
		h.logger.Debug().Err(err).Msg("could not send busy reply")
	}
}

func (h *ConnHandler) reply(conn net.Conn, resp protocol.Response) error {
	encoded, err := protocol.EncodeResponse(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	_, err = conn.Write(encoded)
	return err
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/phuslu/log"
)

// Backoff bounds after a failed Accept, doubling while the failures persist.
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Handler serves one client connection until it is done with it. It must
// not close conn; the server does that once the handler returns.
type Handler func(ctx context.Context, conn net.Conn)

type Options struct {
	// MaxConnections bounds the number of connections served at once.
	MaxConnections int
	// OnOverload, when set, gets a chance to answer a connection that was
	// refused because every worker is busy.
	OnOverload func(conn net.Conn)
	Logger     *log.Logger
}

// Start listens on addr and serves connections until ctx is cancelled.
func Start(ctx context.Context, addr string, opts Options, handler Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, opts, handler)
}

// Serve runs the accept loop on ln. Each connection is handled on a worker
// from a bounded pool. When ctx is cancelled the listener and every open
// connection are closed and Serve returns nil once the workers have drained.
func Serve(ctx context.Context, ln net.Listener, opts Options, handler Handler) error {
	if opts.MaxConnections <= 0 {
		ln.Close()
		return fmt.Errorf("max connections must be positive, got %d", opts.MaxConnections)
	}
	logger := opts.Logger
	if logger == nil {
		logger = &log.DefaultLogger
	}

	pool, err := ants.NewPool(opts.MaxConnections, ants.WithNonblocking(true))
	if err != nil {
		ln.Close()
		return err
	}
	defer pool.Release()

	var (
		mu    sync.Mutex
		conns = make(map[net.Conn]struct{})
		wg    sync.WaitGroup
	)

	// When ctx is cancelled, close the listener and every live connection
	go func() {
		<-ctx.Done()
		ln.Close()

		mu.Lock()
		for c := range conns {
			c.Close()
		}
		mu.Unlock()
	}()

	logger.Info().Str("addr", ln.Addr().String()).Int("max_connections", opts.MaxConnections).Msg("server listening")

	var acceptDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			// When ln.Close() is called, Accept() returns an error.
			// This is how we break out of the loop cleanly.
			select {
			case <-ctx.Done():
				wg.Wait()
				logger.Info().Str("addr", ln.Addr().String()).Msg("server stopped")
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				wg.Wait()
				return err
			}
			if acceptDelay == 0 {
				acceptDelay = minAcceptDelay
			} else {
				acceptDelay = min(2*acceptDelay, maxAcceptDelay)
			}
			logger.Warn().Err(err).Dur("retry_in", acceptDelay).Msg("error accepting connection")

			select {
			case <-time.After(acceptDelay):
			case <-ctx.Done():
			}
			continue
		}
		acceptDelay = 0

		mu.Lock()
		if ctx.Err() != nil {
			mu.Unlock()
			conn.Close()
			continue
		}
		conns[conn] = struct{}{}
		mu.Unlock()

		release := func() {
			mu.Lock()
			delete(conns, conn)
			mu.Unlock()
			conn.Close()
		}

		wg.Add(1)
		err = pool.Submit(func() {
			defer wg.Done()
			defer release()
			handler(ctx, conn)
		})
		if err != nil {
			wg.Done()
			logger.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("connection refused")
			if opts.OnOverload != nil {
				opts.OnOverload(conn)
			}
			release()
		}
	}
}

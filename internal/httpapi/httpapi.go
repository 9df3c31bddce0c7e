// Package httpapi exposes the store over HTTP/JSON.
//
//	GET  /ping        liveness
//	GET  /stats       key count and log size
//	GET  /keys        every key, sorted
//	GET  /keys/:key   value for key, 404 when missing
//	PUT  /keys/:key   request body is the value
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"github.com/0xRadioAc7iv/minkdb/core"
)

// MaxValueBytes bounds the request body accepted by PUT.
const MaxValueBytes = 1 << 20

type api struct {
	executor *core.Executor
	logger   *log.Logger
}

func NewRouter(executor *core.Executor, logger *log.Logger) *gin.Engine {
	a := &api{executor: executor, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), a.accessLog)

	r.GET("/ping", a.ping)
	r.GET("/stats", a.stats)
	r.GET("/keys", a.list)
	r.GET("/keys/:key", a.get)
	r.PUT("/keys/:key", a.put)

	return r
}

func (a *api) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	a.logger.Debug().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Dur("took", time.Since(start)).
		Msg("http request")
}

func (a *api) ping(c *gin.Context) {
	c.String(http.StatusOK, core.ReplyPong)
}

func (a *api) stats(c *gin.Context) {
	var stats core.Stats
	err := a.executor.Do(c.Request.Context(), func(s *core.Store) {
		stats = s.Stats()
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (a *api) list(c *gin.Context) {
	var keys []string
	err := a.executor.Do(c.Request.Context(), func(s *core.Store) {
		keys = s.Keys()
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

func (a *api) get(c *gin.Context) {
	key := c.Param("key")

	var (
		value string
		found bool
		gerr  error
	)
	err := a.executor.Do(c.Request.Context(), func(s *core.Store) {
		value, found, gerr = s.Get(key)
	})
	if err == nil {
		err = gerr
	}
	if err != nil {
		a.fail(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "key not found", "key": key})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

func (a *api) put(c *gin.Context) {
	key := c.Param("key")

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxValueBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(body) > MaxValueBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "value too large"})
		return
	}
	value := strings.TrimSuffix(string(body), "\n")

	var perr error
	err = a.executor.Do(c.Request.Context(), func(s *core.Store) {
		perr = s.Put(key, value)
	})
	if err == nil {
		err = perr
	}
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": core.ReplyOK})
}

func (a *api) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrExecutorClosed), errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		a.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Serve runs an HTTP server for handler on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("http api listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info().Str("addr", addr).Msg("http api stopped")
	return nil
}

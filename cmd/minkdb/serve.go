package main

import (
	"errors"
	"net"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/0xRadioAc7iv/minkdb/core"
	"github.com/0xRadioAc7iv/minkdb/internal/httpapi"
	"github.com/0xRadioAc7iv/minkdb/internal/server"
	"github.com/0xRadioAc7iv/minkdb/internal/utils"
)

type serveFlags struct {
	host           string
	port           int
	httpAddr       string
	maxConnections int
}

func newServeCmd(root *rootFlags) *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the store over TCP (and optionally HTTP)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = flags.host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = flags.port
			}
			if cmd.Flags().Changed("http-addr") {
				cfg.HTTPAddr = flags.httpAddr
			}
			if cmd.Flags().Changed("max-connections") {
				cfg.MaxConnections = flags.maxConnections
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			store, logger, err := openStore(cfg)
			if err != nil {
				return err
			}

			executor := core.NewExecutor(store)
			handler := core.NewConnHandler(executor, logger)

			ctx, stop := utils.InterruptContext(cmd.Context())
			defer stop()

			g, gctx := errgroup.WithContext(ctx)

			addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
			g.Go(func() error {
				return server.Start(gctx, addr, server.Options{
					MaxConnections: cfg.MaxConnections,
					OnOverload:     handler.Reject,
					Logger:         logger,
				}, handler.ServeConn)
			})

			if cfg.HTTPAddr != "" {
				gin.SetMode(gin.ReleaseMode)
				router := httpapi.NewRouter(executor, logger)
				g.Go(func() error {
					return httpapi.Serve(gctx, cfg.HTTPAddr, router, logger)
				})
			}

			runErr := g.Wait()
			if runErr != nil {
				logger.Error().Err(runErr).Msg("server stopped abruptly")
			}

			executor.Close()
			return errors.Join(runErr, store.Close())
		},
	}

	cmd.Flags().StringVar(&flags.host, "host", "", "address to listen on (default from config: 127.0.0.1)")
	cmd.Flags().IntVarP(&flags.port, "port", "p", 0, "TCP port (default from config: 6969)")
	cmd.Flags().StringVar(&flags.httpAddr, "http-addr", "", "enable the HTTP API on this address, e.g. :8080")
	cmd.Flags().IntVar(&flags.maxConnections, "max-connections", 0, "connections served at once (default from config: 64)")

	return cmd
}

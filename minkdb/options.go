package minkdb

import (
	"time"

	"github.com/0xRadioAc7iv/minkdb/internal/config"
)

type options struct {
	host        string
	port        int
	dialTimeout time.Duration
}

func defaultOptions() *options {
	return &options{
		host:        config.DefaultHost,
		port:        config.DefaultPort,
		dialTimeout: 5 * time.Second,
	}
}

type Option func(*options)

func WithHost(host string) Option {
	return func(o *options) {
		o.host = host
	}
}

func WithPort(port int) Option {
	return func(o *options) {
		o.port = port
	}
}

func WithDialTimeout(d time.Duration) Option {
	return func(o *options) {
		o.dialTimeout = d
	}
}

package minkdb

import (
	"net"
	"strconv"
	"strings"

	"github.com/0xRadioAc7iv/minkdb/internal/protocol"
)

// ServerError carries an error reported by the server, such as a rejected
// key or value. The connection stays usable after one.
type ServerError struct {
	Msg string
}

func (e *ServerError) Error() string {
	return "server: " + e.Msg
}

// Client is a connection to a MinkDB server. It is not safe for concurrent
// use; open one Client per goroutine.
type Client struct {
	conn net.Conn
}

func Connect(opts ...Option) (*Client, error) {
	o := defaultOptions()

	for _, opt := range opts {
		opt(o)
	}

	addr := net.JoinHostPort(o.host, strconv.Itoa(o.port))

	conn, err := net.DialTimeout("tcp", addr, o.dialTimeout)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn}, nil
}

func (c *Client) Ping() error {
	_, err := c.call(protocol.CmdPing, "", "")
	return err
}

func (c *Client) Put(key, value string) error {
	_, err := c.call(protocol.CmdPut, key, value)
	return err
}

// Get returns the value stored for key. found is false when the key has
// never been written.
func (c *Client) Get(key string) (value string, found bool, err error) {
	res, err := c.call(protocol.CmdGet, key, "")
	if err != nil {
		return "", false, err
	}
	if res.Status == protocol.StatusNotFound {
		return "", false, nil
	}
	return res.Body, true, nil
}

func (c *Client) Exists(key string) (bool, error) {
	res, err := c.call(protocol.CmdExists, key, "")
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(res.Body)
}

func (c *Client) Count() (int, error) {
	res, err := c.call(protocol.CmdCount, "", "")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(res.Body)
}

// List returns every key on the server in sorted order.
func (c *Client) List() ([]string, error) {
	res, err := c.call(protocol.CmdList, "", "")
	if err != nil {
		return nil, err
	}
	if res.Status == protocol.StatusNotFound {
		return nil, nil
	}
	return strings.Split(res.Body, "\n"), nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Execute sends a raw command and returns the server's response as is,
// error statuses included.
func (c *Client) Execute(cmd, key, value string) (protocol.Response, error) {
	return c.sendCommand(cmd, key, value)
}

func (c *Client) call(cmd, key, value string) (protocol.Response, error) {
	res, err := c.sendCommand(cmd, key, value)
	if err != nil {
		return protocol.Response{}, err
	}
	if res.Status == protocol.StatusError {
		return protocol.Response{}, &ServerError{Msg: res.Body}
	}
	return res, nil
}

func (c *Client) sendCommand(cmd, key, value string) (protocol.Response, error) {
	payload, err := protocol.EncodeCommand(cmd, key, value)
	if err != nil {
		return protocol.Response{}, err
	}

	_, err = c.conn.Write(payload)
	if err != nil {
		return protocol.Response{}, err
	}

	return protocol.DecodeResponse(c.conn)
}

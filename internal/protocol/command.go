package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Command represents a decoded client command.
//
// A Command consists of a command name (Cmd), an optional key, and an optional
// value. The meaning of Key and Val depends on the command type (e.g. GET,
// PUT).
type Command struct {
	Cmd string // Command name (e.g. "get", "put")
	Key string // Key argument (may be empty)
	Val string // Value argument (may be empty)
}

const (
	CmdPut    = "put"
	CmdGet    = "get"
	CmdExists = "exists"
	CmdCount  = "count"
	CmdList   = "list"
	CmdPing   = "ping"
	CmdHelp   = "help"
)

// number of arguments each command takes
var arity = map[string]int{
	CmdPut:    2,
	CmdGet:    1,
	CmdExists: 1,
	CmdCount:  0,
	CmdList:   0,
	CmdPing:   0,
	CmdHelp:   0,
}

var aliases = map[string]string{
	"set": CmdPut,
}

var (
	ErrEmptyCommand   = errors.New("empty input")
	ErrUnknownCommand = errors.New("invalid operation")
	ErrArity          = errors.New("wrong number of arguments")
)

func normalize(name string) string {
	name = strings.ToLower(name)
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}

// ParseLine tokenizes one line of user input into a Command. Tokens follow
// shell quoting rules, so a quoted argument containing spaces stays a single
// argument and is left for the store to accept or reject.
func ParseLine(line string) (*Command, error) {
	parts, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", line, err)
	}

	if len(parts) == 0 {
		return nil, ErrEmptyCommand
	}

	name := normalize(parts[0])
	args := parts[1:]

	want, ok := arity[name]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnknownCommand, parts[0])
	}
	if len(args) != want {
		return nil, fmt.Errorf("%w: %s expects %d, got %d", ErrArity, name, want, len(args))
	}

	cmd := &Command{Cmd: name}
	if want > 0 {
		cmd.Key = args[0]
	}
	if want > 1 {
		cmd.Val = args[1]
	}

	return cmd, nil
}

// Validate checks a command that arrived over the wire, where missing
// arguments show up as empty strings.
func (c *Command) Validate() error {
	name := normalize(c.Cmd)

	want, ok := arity[name]
	if !ok {
		return fmt.Errorf("%w %s", ErrUnknownCommand, c.Cmd)
	}

	got := 0
	if c.Key != "" {
		got++
	}
	if c.Val != "" {
		got++
	}
	if got != want || (want == 1 && c.Key == "") {
		return fmt.Errorf("%w: %s expects %d, got %d", ErrArity, name, want, got)
	}

	c.Cmd = name
	return nil
}

// EncodeCommand serializes a client command into its wire format.
//
// The command is encoded as:
//
//	<cmd_len:uint8><key_len:uint32><val_len:uint32><cmd><key><val>
//
// All integer fields are encoded using big-endian byte order.
// The command name length is limited to 255 bytes.
//
// The returned byte slice is suitable for writing directly to a TCP
// connection.
func EncodeCommand(cmd, key, val string) ([]byte, error) {
	cmdB := []byte(cmd)
	keyB := []byte(key)
	valB := []byte(val)

	if len(cmdB) > math.MaxUint8 {
		return nil, fmt.Errorf("command name is %d bytes, limit is %d", len(cmdB), math.MaxUint8)
	}

	buf := &bytes.Buffer{}

	buf.WriteByte(uint8(len(cmdB)))
	if err := binary.Write(buf, binary.BigEndian, uint32(len(keyB))); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.BigEndian, uint32(len(valB))); err != nil {
		return nil, err
	}

	buf.Write(cmdB)
	buf.Write(keyB)
	buf.Write(valB)

	return buf.Bytes(), nil
}

// DecodeCommand reads and decodes a command from r.
//
// It first reads the length-prefixed header fields, then reads the
// command name, key, and value payloads in sequence.
//
// DecodeCommand blocks until the full command has been read or an
// error occurs.
func DecodeCommand(r io.Reader) (*Command, error) {
	var cmdLen uint8
	var keyLen uint32
	var valLen uint32

	if err := binary.Read(r, binary.BigEndian, &cmdLen); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &keyLen); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &valLen); err != nil {
		return nil, err
	}

	if keyLen > MaxArgumentSize || valLen > MaxArgumentSize {
		return nil, fmt.Errorf("argument of %d bytes exceeds limit of %d", max(keyLen, valLen), MaxArgumentSize)
	}

	cmdB := make([]byte, cmdLen)
	keyB := make([]byte, keyLen)
	valB := make([]byte, valLen)

	if _, err := io.ReadFull(r, cmdB); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, keyB); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, valB); err != nil {
		return nil, err
	}

	return &Command{
		Cmd: string(cmdB),
		Key: string(keyB),
		Val: string(valB),
	}, nil
}

// MaxArgumentSize bounds the allocation made for a single key or value.
const MaxArgumentSize = 1 << 20

const HelpText = `
Available Commands:

PING
  Check if the server is alive.
  Response: PONG!

PUT <key> <value>   (alias: SET)
  Store a value for the given key.
  Overwrites the value if the key already exists.
  Neither key nor value may contain whitespace.
  Response: ok

GET <key>
  Retrieve the value associated with the key.
  Response: value | nil

EXISTS <key>
  Check if a key exists.
  Response: true | false

COUNT
  Return the total number of keys stored.
  Response: integer

LIST
  List all stored keys.
  Response: list of keys | nil

HELP
  Show this help message.

EXIT (cli only)
  Close the session.
`

// Package repl runs the interactive command loop: read a line, parse it,
// execute it, print the outcome.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/0xRadioAc7iv/minkdb/internal/protocol"
)

// ExecFunc runs one parsed command. A non-nil error means the command could
// not be run at all (for example the connection dropped) and ends the loop.
type ExecFunc func(ctx context.Context, cmd *protocol.Command) (protocol.Response, error)

type REPL struct {
	exec   ExecFunc
	target string
	prompt string
}

type Option func(*REPL)

// WithPrompt prints prompt before every line is read.
func WithPrompt(prompt string) Option {
	return func(r *REPL) {
		r.prompt = prompt
	}
}

// New returns a loop that sends commands to exec. target names the place
// writes go to, as shown after a successful put.
func New(exec ExecFunc, target string, opts ...Option) *REPL {
	r := &REPL{exec: exec, target: target}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads commands from in until EOF, "exit" or ctx is cancelled. Bad
// input is reported on out and the loop carries on.
func (r *REPL) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	for {
		if ctx.Err() != nil {
			return nil
		}

		if r.prompt != "" {
			fmt.Fprint(out, r.prompt)
		}

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read input: %w", err)
		}
		atEOF := err != nil

		line = strings.TrimSpace(line)
		switch {
		case line == "" && atEOF:
			return nil
		case line == "":
			continue
		case strings.EqualFold(line, "exit"):
			return nil
		}

		cmd, perr := protocol.ParseLine(line)
		if perr != nil {
			fmt.Fprintf(out, "Error: %v\n", perr)
		} else {
			resp, xerr := r.exec(ctx, cmd)
			if xerr != nil {
				return xerr
			}
			fmt.Fprintln(out, r.format(cmd, resp))
		}

		if atEOF {
			return nil
		}
	}
}

func (r *REPL) format(cmd *protocol.Command, resp protocol.Response) string {
	if resp.Status == protocol.StatusError {
		return "Error: " + resp.Body
	}

	switch cmd.Cmd {
	case protocol.CmdPut:
		return fmt.Sprintf("Wrote %s to %s", cmd.Key, r.target)
	case protocol.CmdGet:
		if resp.Status == protocol.StatusNotFound {
			return "Key not found"
		}
		return "Value: " + resp.Body
	case protocol.CmdList:
		if resp.Status == protocol.StatusNotFound {
			return "No keys"
		}
	}

	return resp.Body
}

package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/0xRadioAc7iv/minkdb/internal/protocol"
)

// Execute runs one command against the store and builds the response sent
// back to the caller. It never panics on bad input; validation problems come
// back as StatusError responses.
func (s *Store) Execute(command *protocol.Command) protocol.Response {
	if err := command.Validate(); err != nil {
		return protocol.Error(fmt.Errorf("%w: %w", ErrValidation, err))
	}

	switch command.Cmd {
	case protocol.CmdPing:
		return protocol.OK(ReplyPong)
	case protocol.CmdPut:
		return s.handleCommandPut(command.Key, command.Val)
	case protocol.CmdGet:
		return s.handleCommandGet(command.Key)
	case protocol.CmdExists:
		return s.handleCommandExists(command.Key)
	case protocol.CmdCount:
		return protocol.OK(strconv.Itoa(s.Count()))
	case protocol.CmdList:
		return s.handleCommandList()
	case protocol.CmdHelp:
		return protocol.OK(strings.TrimSpace(protocol.HelpText))
	default:
		return protocol.Error(fmt.Errorf("%w: invalid operation %s", ErrValidation, command.Cmd))
	}
}

func (s *Store) handleCommandPut(key, value string) protocol.Response {
	if err := s.Put(key, value); err != nil {
		return protocol.Error(err)
	}
	return protocol.OK(ReplyOK)
}

func (s *Store) handleCommandGet(key string) protocol.Response {
	value, found, err := s.Get(key)
	if err != nil {
		return protocol.Error(err)
	}
	if !found {
		return protocol.NotFound(ReplyNotFound)
	}
	return protocol.OK(value)
}

func (s *Store) handleCommandExists(key string) protocol.Response {
	if s.Exists(key) {
		return protocol.OK(ReplyTrue)
	}
	return protocol.OK(ReplyFalse)
}

func (s *Store) handleCommandList() protocol.Response {
	keys := s.Keys()
	if len(keys) == 0 {
		return protocol.NotFound(ReplyNotFound)
	}
	return protocol.OK(strings.Join(keys, "\n"))
}

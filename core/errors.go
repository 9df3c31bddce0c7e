package core

import (
	"errors"

	"github.com/0xRadioAc7iv/minkdb/internal/logstore"
)

// Error kinds returned by the store. Match them with errors.Is.
var (
	// ErrIO is a failure at the OS boundary. Fatal only when opening.
	ErrIO = logstore.ErrIO
	// ErrCorruption means an indexed offset did not yield the expected record.
	ErrCorruption = logstore.ErrCorruption
	// ErrValidation rejects a single operation; the caller may continue.
	ErrValidation = errors.New("validation error")
)

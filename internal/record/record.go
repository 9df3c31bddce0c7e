package record

import (
	"bytes"
	"errors"
	"strings"
	"unicode"
)

// Record is a single key-value pair as stored in the log.
//
// On disk a record is one UTF-8 line:
//
//	<key> <value>\n
//
// The key is the first whitespace-delimited token and the value the second.
// Any further tokens on the line are ignored when decoding.
type Record struct {
	Key   string
	Value string
}

const (
	Separator  = ' '
	Terminator = '\n'
)

var (
	ErrEmptyKey        = errors.New("key is empty")
	ErrEmptyValue      = errors.New("value is empty")
	ErrKeyWhitespace   = errors.New("key cannot contain whitespace")
	ErrValueWhitespace = errors.New("value cannot contain whitespace")
	ErrNoKey           = errors.New("line has no key")
	ErrNoValue         = errors.New("line has no value")
)

func containsSpace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}

// Validate reports whether key and value can be represented by the line
// encoding without losing data.
func Validate(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if containsSpace(key) {
		return ErrKeyWhitespace
	}
	if value == "" {
		return ErrEmptyValue
	}
	if containsSpace(value) {
		return ErrValueWhitespace
	}
	return nil
}

func CreateRecord(key, value string) (Record, error) {
	if err := Validate(key, value); err != nil {
		return Record{}, err
	}
	return Record{Key: key, Value: value}, nil
}

// Size is the number of bytes the encoded record occupies, terminator included.
func (r Record) Size() int64 {
	return int64(len(r.Key) + 1 + len(r.Value) + 1)
}

func EncodeRecordToBytes(r Record) []byte {
	buf := make([]byte, 0, r.Size())
	buf = append(buf, r.Key...)
	buf = append(buf, Separator)
	buf = append(buf, r.Value...)
	buf = append(buf, Terminator)
	return buf
}

// DecodeKey returns the first whitespace-delimited token of line.
func DecodeKey(line []byte) (string, error) {
	fields := bytes.Fields(line)
	if len(fields) == 0 {
		return "", ErrNoKey
	}
	return string(fields[0]), nil
}

// DecodeRecordFromBytes decodes one line, with or without its terminator.
func DecodeRecordFromBytes(line []byte) (Record, error) {
	fields := bytes.Fields(line)
	if len(fields) == 0 {
		return Record{}, ErrNoKey
	}
	if len(fields) == 1 {
		return Record{}, ErrNoValue
	}
	return Record{Key: string(fields[0]), Value: string(fields[1])}, nil
}

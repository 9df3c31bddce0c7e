// Package logstore owns the on-disk append-only log.
//
// The log is a single file of newline-terminated records. Bytes that have
// been appended and synced are never rewritten; the only mutation is an
// append at the end of the file.
package logstore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/0xRadioAc7iv/minkdb/internal/lock"
	"github.com/0xRadioAc7iv/minkdb/internal/record"
)

var (
	// ErrIO marks failures at the OS boundary: open, read, write, sync.
	ErrIO = errors.New("io error")
	// ErrCorruption marks an offset that does not hold a decodable record.
	ErrCorruption = errors.New("corruption")
)

// File is the part of *os.File the log uses.
type File interface {
	io.ReadWriteSeeker
	io.ReaderAt
	io.Closer
	Sync() error
}

type Option func(*LogStore)

// WithFileWrapper lets the caller wrap the opened data file, for instance to
// inject write failures.
func WithFileWrapper(wrap func(File) File) Option {
	return func(ls *LogStore) {
		ls.file = wrap(ls.file)
	}
}

// LogStore is not safe for concurrent use.
type LogStore struct {
	path     string
	file     File
	lockFile *os.File
	size     int64

	// set when a write may have left a partial record at the end of the file
	tornTail bool
}

// Open opens the log at path for reading and appending, creating it if it
// does not exist.
func Open(path string, opts ...Option) (*LogStore, error) {
	lf, err := lock.LockFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		err = fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
		return nil, errors.Join(err, lock.UnlockFile(lf))
	}

	info, err := f.Stat()
	if err != nil {
		err = fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
		return nil, errors.Join(err, f.Close(), lock.UnlockFile(lf))
	}

	ls := &LogStore{
		path:     path,
		file:     f,
		lockFile: lf,
		size:     info.Size(),
	}
	for _, opt := range opts {
		opt(ls)
	}

	return ls, nil
}

func (ls *LogStore) Path() string {
	return ls.path
}

// Size is the current length of the log in bytes.
func (ls *LogStore) Size() int64 {
	return ls.size
}

// TornTail reports whether a failed append may have left a partial record
// at the end of the log.
func (ls *LogStore) TornTail() bool {
	return ls.tornTail
}

// Append writes data at the end of the log and syncs it to disk before
// returning the offset at which data begins. data must be one encoded
// record, terminator included.
func (ls *LogStore) Append(data []byte) (int64, error) {
	if len(data) == 0 || data[len(data)-1] != record.Terminator {
		return 0, fmt.Errorf("append: record must end with a newline")
	}

	if ls.tornTail {
		if _, _, err := ls.SealTail(); err != nil {
			return 0, err
		}
	}

	offset, err := ls.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("%w: seek end of %s: %w", ErrIO, ls.path, err)
	}

	n, err := ls.file.Write(data)
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	if err != nil {
		ls.tornTail = n > 0
		ls.size = offset + int64(n)
		return 0, fmt.Errorf("%w: write %s at %d: %w", ErrIO, ls.path, offset, err)
	}
	ls.size = offset + int64(n)

	if err := ls.file.Sync(); err != nil {
		return 0, fmt.Errorf("%w: sync %s: %w", ErrIO, ls.path, err)
	}

	return offset, nil
}

// SealTail terminates a partial record left at the end of the log so the
// next append starts on a record boundary. It returns the offset and bytes
// of the fragment it sealed; fragment is empty when the log already ended on
// a boundary.
func (ls *LogStore) SealTail() (offset int64, fragment []byte, err error) {
	end, err := ls.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: seek end of %s: %w", ErrIO, ls.path, err)
	}
	ls.size = end

	offset, fragment, err = ls.tail(end)
	if err != nil {
		return 0, nil, err
	}
	if len(fragment) == 0 {
		ls.tornTail = false
		return end, nil, nil
	}

	n, err := ls.file.Write([]byte{record.Terminator})
	ls.size = end + int64(n)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: seal %s: %w", ErrIO, ls.path, err)
	}
	if err := ls.file.Sync(); err != nil {
		return 0, nil, fmt.Errorf("%w: sync %s: %w", ErrIO, ls.path, err)
	}

	ls.tornTail = false
	return offset, fragment, nil
}

const tailChunk = 4096

// tail returns the bytes that follow the last terminator before end, and
// the offset they start at.
func (ls *LogStore) tail(end int64) (int64, []byte, error) {
	var fragment []byte
	buf := make([]byte, tailChunk)

	for pos := end; pos > 0; {
		n := min(int64(len(buf)), pos)
		pos -= n

		chunk := buf[:n]
		if _, err := ls.file.ReadAt(chunk, pos); err != nil {
			return 0, nil, fmt.Errorf("%w: read %s at %d: %w", ErrIO, ls.path, pos, err)
		}

		if i := bytes.LastIndexByte(chunk, record.Terminator); i >= 0 {
			fragment = append(append([]byte(nil), chunk[i+1:]...), fragment...)
			return pos + int64(i) + 1, fragment, nil
		}
		fragment = append(append([]byte(nil), chunk...), fragment...)
	}

	return 0, fragment, nil
}

// ReadAt reads the single record that begins at offset and returns it along
// with the number of bytes it occupies.
func (ls *LogStore) ReadAt(offset int64) (record.Record, int, error) {
	if offset < 0 || offset >= ls.size {
		return record.Record{}, 0, fmt.Errorf("%w: offset %d outside log of %d bytes", ErrCorruption, offset, ls.size)
	}

	if offset > 0 {
		prev := make([]byte, 1)
		if _, err := ls.file.ReadAt(prev, offset-1); err != nil {
			return record.Record{}, 0, fmt.Errorf("%w: read %s at %d: %w", ErrIO, ls.path, offset-1, err)
		}
		if prev[0] != record.Terminator {
			return record.Record{}, 0, fmt.Errorf("%w: offset %d is not a record boundary", ErrCorruption, offset)
		}
	}

	r := bufio.NewReader(io.NewSectionReader(ls.file, offset, ls.size-offset))
	line, err := r.ReadBytes(record.Terminator)
	if err != nil {
		if err == io.EOF {
			return record.Record{}, 0, fmt.Errorf("%w: unterminated record at offset %d", ErrCorruption, offset)
		}
		return record.Record{}, 0, fmt.Errorf("%w: read %s at %d: %w", ErrIO, ls.path, offset, err)
	}

	rec, err := record.DecodeRecordFromBytes(line)
	if err != nil {
		return record.Record{}, 0, fmt.Errorf("%w: offset %d: %w", ErrCorruption, offset, err)
	}

	return rec, len(line), nil
}

// Scan walks the log from byte 0 in append order, calling fn with the
// offset and raw bytes of every line. The bytes include the terminator
// except for a partial record at the very end of the log. The slice is only
// valid for the duration of the call.
func (ls *LogStore) Scan(fn func(offset int64, line []byte) error) error {
	r := bufio.NewReader(io.NewSectionReader(ls.file, 0, ls.size))

	var offset int64
	for {
		line, err := r.ReadSlice(record.Terminator)
		if err == bufio.ErrBufferFull {
			// line longer than the reader buffer; collect the rest of it
			full := append([]byte(nil), line...)
			for err == bufio.ErrBufferFull {
				line, err = r.ReadSlice(record.Terminator)
				full = append(full, line...)
			}
			line = full
		}
		if err != nil && err != io.EOF {
			return fmt.Errorf("%w: read %s at %d: %w", ErrIO, ls.path, offset, err)
		}

		if len(line) == 0 {
			return nil
		}

		if ferr := fn(offset, line); ferr != nil {
			return ferr
		}
		offset += int64(len(line))

		if err == io.EOF {
			return nil
		}
	}
}

func (ls *LogStore) Close() error {
	var errs []error

	if err := ls.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%w: close %s: %w", ErrIO, ls.path, err))
	}
	if err := lock.UnlockFile(ls.lockFile); err != nil {
		errs = append(errs, fmt.Errorf("%w: unlock %s: %w", ErrIO, ls.path, err))
	}

	return errors.Join(errs...)
}

package core

import (
	"errors"
	"fmt"

	"github.com/phuslu/log"

	"github.com/0xRadioAc7iv/minkdb/internal/logging"
	"github.com/0xRadioAc7iv/minkdb/internal/logstore"
	"github.com/0xRadioAc7iv/minkdb/internal/record"
)

// Store pairs the append-only log with the KeyDir that indexes it.
//
// A Store is owned by a single goroutine. Surfaces that accept work from
// many goroutines hand commands to an Executor instead of sharing the Store.
type Store struct {
	log    *logstore.LogStore
	keyDir KeyDir
	logger *log.Logger

	logOpts []logstore.Option
}

type Option func(*Store)

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithLogOptions passes opts through to the underlying log.
func WithLogOptions(opts ...logstore.Option) Option {
	return func(s *Store) {
		s.logOpts = append(s.logOpts, opts...)
	}
}

// Open opens (or creates) the log at path and rebuilds the index from it.
// Any error is an ErrIO or ErrCorruption and the store is unusable.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{logger: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}

	lg, err := logstore.Open(path, s.logOpts...)
	if err != nil {
		return nil, err
	}

	keyDir, stats, err := Recover(lg)
	if err != nil {
		return nil, errors.Join(err, lg.Close())
	}

	s.log = lg
	s.keyDir = keyDir

	if stats.TornTail {
		if err := s.sealTail(); err != nil {
			return nil, errors.Join(err, lg.Close())
		}
	}

	s.logger.Info().
		Str("path", path).
		Int("records", stats.Records).
		Int("skipped", stats.Skipped).
		Int("keys", keyDir.Len()).
		Int64("bytes", stats.Bytes).
		Msg("store opened")

	return s, nil
}

// sealTail terminates a partial record at the end of the log and indexes
// it the same way Recover does on the next start.
func (s *Store) sealTail() error {
	offset, fragment, err := s.log.SealTail()
	if err != nil {
		return err
	}
	if len(fragment) == 0 {
		return nil
	}

	key, err := record.DecodeKey(fragment)
	if err != nil {
		s.logger.Warn().Str("path", s.log.Path()).Int64("offset", offset).Msg("sealed a partial record with no key")
		return nil
	}

	s.keyDir.Record(key, offset)
	s.logger.Warn().Str("path", s.log.Path()).Str("key", key).Int64("offset", offset).Msg("sealed a partial record")
	return nil
}

func (s *Store) Path() string {
	return s.log.Path()
}

// Put appends key and value to the log and then points the index at the new
// record. If the append fails the index is left as it was. A partial record
// left by an earlier failed Put is sealed and indexed first.
func (s *Store) Put(key, value string) error {
	rec, err := record.CreateRecord(key, value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if s.log.TornTail() {
		if err := s.sealTail(); err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("sealing partial record failed")
			return err
		}
	}

	offset, err := s.log.Append(record.EncodeRecordToBytes(rec))
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("append failed")
		return err
	}

	s.keyDir.Record(key, offset)
	s.logger.Debug().Str("key", key).Int64("offset", offset).Msg("put")

	return nil
}

// Get returns the latest value for key. A missing key is reported with
// found == false and a nil error.
func (s *Store) Get(key string) (value string, found bool, err error) {
	offset, ok := s.keyDir.Lookup(key)
	if !ok {
		return "", false, nil
	}

	rec, _, err := s.log.ReadAt(offset)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Int64("offset", offset).Msg("read failed")
		return "", false, err
	}

	if rec.Key != key {
		err := fmt.Errorf("%w: offset %d holds key %q, expected %q", ErrCorruption, offset, rec.Key, key)
		s.logger.Error().Err(err).Msg("index points at the wrong record")
		return "", false, err
	}

	return rec.Value, true, nil
}

func (s *Store) Exists(key string) bool {
	_, ok := s.keyDir.Lookup(key)
	return ok
}

func (s *Store) Count() int {
	return s.keyDir.Len()
}

func (s *Store) Keys() []string {
	return s.keyDir.Keys()
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	Path     string `json:"path"`
	Keys     int    `json:"keys"`
	LogBytes int64  `json:"logBytes"`
}

func (s *Store) Stats() Stats {
	return Stats{
		Path:     s.log.Path(),
		Keys:     s.keyDir.Len(),
		LogBytes: s.log.Size(),
	}
}

// Close releases the log file. The index is discarded.
func (s *Store) Close() error {
	err := s.log.Close()
	s.keyDir = nil
	if err != nil {
		s.logger.Error().Err(err).Msg("error while closing the log")
		return err
	}
	s.logger.Info().Str("path", s.log.Path()).Msg("store closed")
	return nil
}

package core

import (
	"fmt"
	"slices"

	"github.com/0xRadioAc7iv/minkdb/internal/logstore"
	"github.com/0xRadioAc7iv/minkdb/internal/record"
)

// KeyDir is the in-memory index mapping every key to the offset of its
// latest record in the log.
//
// It is derived state: it is rebuilt from the log on every start and only
// changes after a successful append.
type KeyDir map[string]int64

func (kd KeyDir) Lookup(key string) (int64, bool) {
	offset, ok := kd[key]
	return offset, ok
}

// Record points key at offset, replacing any earlier offset.
func (kd KeyDir) Record(key string, offset int64) {
	kd[key] = offset
}

func (kd KeyDir) Len() int {
	return len(kd)
}

// Keys returns every indexed key in sorted order.
func (kd KeyDir) Keys() []string {
	keys := make([]string, 0, len(kd))
	for k := range kd {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// RecoveryStats describes one pass of Recover over the log.
type RecoveryStats struct {
	Records  int   // lines seen, including skipped ones
	Skipped  int   // lines that did not yield a key
	Bytes    int64 // bytes scanned
	TornTail bool  // the log ended in a line with no terminator
}

// Recover rebuilds the KeyDir by scanning the log from the first byte.
//
// Later records for a key overwrite earlier ones, so the scan must run in
// append order. The running offset always advances by the full length of
// the line, whether or not the line yielded a key, otherwise every offset
// after a bad line would be wrong.
func Recover(log *logstore.LogStore) (KeyDir, RecoveryStats, error) {
	keyDir := make(KeyDir)
	var stats RecoveryStats

	var offset int64
	err := log.Scan(func(start int64, line []byte) error {
		if start != offset {
			return fmt.Errorf("%w: scan at %d, expected %d", ErrCorruption, start, offset)
		}
		offset += int64(len(line))
		stats.Records++

		if line[len(line)-1] != record.Terminator {
			// partial write at the end of the log; it is indexed like any
			// other line because sealing it turns it into one
			stats.TornTail = true
		}

		key, err := record.DecodeKey(line)
		if err != nil {
			stats.Skipped++
			return nil
		}

		keyDir.Record(key, start)
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	stats.Bytes = offset
	return keyDir, stats, nil
}

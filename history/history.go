// Package history persists scan reports across invocations. This is
// the only place past scans survive; every scan still observes fresh.
package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/drifthound/drifthound/types"
)

// Bucket names in bbolt
var (
	bucketReports = []byte("reports")
	bucketMeta    = []byte("meta")
)

// Store is an append-only bbolt store of scan reports.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the history database in dir
func Open(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, "drifthound.db")

	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketReports, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the store
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport appends a report under the next sequence number
func (s *Store) SaveReport(report *types.ScanReport) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketReports)

		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}

		value, err := json.Marshal(report)
		if err != nil {
			return err
		}

		return bucket.Put(sequenceKey(seq), value)
	})
}

// LastReport returns the most recent report, or nil if none exist
func (s *Store) LastReport() (*types.ScanReport, error) {
	var report *types.ScanReport

	err := s.db.View(func(tx *bbolt.Tx) error {
		_, value := tx.Bucket(bucketReports).Cursor().Last()
		if value == nil {
			return nil
		}

		var decoded types.ScanReport
		if err := json.Unmarshal(value, &decoded); err != nil {
			return fmt.Errorf("failed to decode stored report: %w", err)
		}
		report = &decoded
		return nil
	})

	return report, err
}

// ListReports returns up to limit reports, newest first
func (s *Store) ListReports(limit int) ([]types.ScanReport, error) {
	var reports []types.ScanReport

	err := s.db.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(bucketReports).Cursor()
		for key, value := cursor.Last(); key != nil && len(reports) < limit; key, value = cursor.Prev() {
			var decoded types.ScanReport
			if err := json.Unmarshal(value, &decoded); err != nil {
				return fmt.Errorf("failed to decode stored report: %w", err)
			}
			reports = append(reports, decoded)
		}
		return nil
	})

	return reports, err
}

// sequenceKey encodes a sequence number as a sortable key
func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

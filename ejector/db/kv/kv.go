// Package kv defines a persistent key-value store for the ejector's resume
// cursor, so a restart does not replay exit requests that were already
// dispatched. Records are keyed by (staking module id, node operator id).
package kv

import (
	"os"
	"path/filepath"
	"time"

	"github.com/lidofinance/validator-ejector/encoding/bytesutil"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// DatabaseFileName is the name of the ejector database file.
const DatabaseFileName = "ejector.db"

var cursorsBucket = []byte("resume-cursors")

// Store is a bolt-backed database for ejector state.
type Store struct {
	db           *bolt.DB
	databasePath string
}

// CursorRecord is the persisted position of the orchestrator in the ordered
// exit request event list, together with the block range it was observed in.
type CursorRecord struct {
	Position  int64
	FromBlock uint64
	ToBlock   uint64
}

// NewKVStore initializes a new bolt kv-store at the directory path specified,
// creates the buckets of the schema, and returns an open db object.
func NewKVStore(dirPath string) (*Store, error) {
	if err := os.MkdirAll(dirPath, 0700); err != nil {
		return nil, err
	}
	datafile := filepath.Join(dirPath, DatabaseFileName)
	boltDB, err := bolt.Open(datafile, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errors.New("cannot obtain database lock, database may be in use by another process")
		}
		return nil, err
	}
	kv := &Store{db: boltDB, databasePath: datafile}
	if err := kv.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cursorsBucket)
		return err
	}); err != nil {
		return nil, err
	}
	return kv, nil
}

// Close closes the underlying bolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DatabasePath at which this database writes files.
func (s *Store) DatabasePath() string {
	return s.databasePath
}

// ClearDB removes the database file from the data directory.
func (s *Store) ClearDB() error {
	if _, err := os.Stat(s.databasePath); os.IsNotExist(err) {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, "could not close db before clearing")
	}
	return os.Remove(s.databasePath)
}

// SaveResumeCursor persists the cursor record for the given staking module
// and node operator pair.
func (s *Store) SaveResumeCursor(moduleID, operatorID uint64, rec *CursorRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(cursorsBucket)
		return bkt.Put(cursorKey(moduleID, operatorID), marshalCursor(rec))
	})
}

// ResumeCursor returns the stored cursor record for the given staking module
// and node operator pair, or nil when none has been saved yet.
func (s *Store) ResumeCursor(moduleID, operatorID uint64) (*CursorRecord, error) {
	var rec *CursorRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(cursorsBucket).Get(cursorKey(moduleID, operatorID))
		if enc == nil {
			return nil
		}
		var err error
		rec, err = unmarshalCursor(enc)
		return err
	})
	return rec, err
}

func cursorKey(moduleID, operatorID uint64) []byte {
	key := make([]byte, 0, 16)
	key = append(key, bytesutil.Uint64ToBytesBigEndian(moduleID)...)
	key = append(key, bytesutil.Uint64ToBytesBigEndian(operatorID)...)
	return key
}

func marshalCursor(rec *CursorRecord) []byte {
	enc := make([]byte, 0, 24)
	enc = append(enc, bytesutil.Uint64ToBytesBigEndian(uint64(rec.Position))...)
	enc = append(enc, bytesutil.Uint64ToBytesBigEndian(rec.FromBlock)...)
	enc = append(enc, bytesutil.Uint64ToBytesBigEndian(rec.ToBlock)...)
	return enc
}

func unmarshalCursor(enc []byte) (*CursorRecord, error) {
	if len(enc) != 24 {
		return nil, errors.Errorf("invalid cursor record length %d", len(enc))
	}
	return &CursorRecord{
		Position:  int64(bytesutil.BytesToUint64BigEndian(enc[0:8])),
		FromBlock: bytesutil.BytesToUint64BigEndian(enc[8:16]),
		ToBlock:   bytesutil.BytesToUint64BigEndian(enc[16:24]),
	}, nil
}

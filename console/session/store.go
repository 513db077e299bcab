package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ugorji/go/codec"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketSession = []byte("session")
	keyCurrent    = []byte("current")
)

// Record is what survives between two invocations of the console.
// SavedAt is unix seconds.
type Record struct {
	Token    string `codec:"token"`
	UserID   int64  `codec:"user_id"`
	Username string `codec:"username"`
	SavedAt  int64  `codec:"saved_at"`
}

// Store persists at most one Record. Load returns (nil, nil) when nothing is stored.
type Store interface {
	Load() (*Record, error)
	Save(rec Record) error
	Clear() error
	Close() error
}

// BoltStore keeps the record in a bbolt file under the data dir. The file is
// only opened for the length of one Load, Save or Clear so that a long
// running watch never holds the lock other invocations need.
type BoltStore struct {
	path    string
	timeout time.Duration
}

func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &BoltStore{path: path, timeout: 2 * time.Second}, nil
}

func (s *BoltStore) open(readOnly bool) (*bolt.DB, error) {
	db, err := bolt.Open(s.path, 0600, &bolt.Options{Timeout: s.timeout, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	return db, nil
}

// update runs fn against the session bucket in one write transaction
func (s *BoltStore) update(fn func(b *bolt.Bucket) error) error {
	db, err := s.open(false)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketSession)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketSession, err)
		}
		return fn(b)
	})
}

func (s *BoltStore) Load() (*Record, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	db, err := s.open(true)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var rec *Record
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if b == nil {
			return nil
		}
		data := b.Get(keyCurrent)
		if data == nil {
			return nil
		}
		r, err := decodeRecord(data)
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	return rec, err
}

func (s *BoltStore) Save(rec Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	return s.update(func(b *bolt.Bucket) error {
		return b.Put(keyCurrent, data)
	})
}

func (s *BoltStore) Clear() error {
	return s.update(func(b *bolt.Bucket) error {
		return b.Delete(keyCurrent)
	})
}

// Close is a no-op, nothing stays open between calls
func (s *BoltStore) Close() error {
	return nil
}

// MemoryStore forgets everything when the process exits
type MemoryStore struct {
	mu  sync.Mutex
	rec *Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return nil, nil
	}
	rec := *m.rec
	return &rec, nil
}

func (m *MemoryStore) Save(rec Record) error {
	m.mu.Lock()
	m.rec = &rec
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.rec = nil
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func encodeRecord(rec Record) ([]byte, error) {
	var data []byte
	enc := codec.NewEncoderBytes(&data, new(codec.MsgpackHandle))
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}
	return data, nil
}

func decodeRecord(data []byte) (*Record, error) {
	var mh codec.MsgpackHandle
	mh.RawToString = true

	var rec Record
	dec := codec.NewDecoderBytes(data, &mh)
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &rec, nil
}

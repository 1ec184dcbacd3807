// Package ldbstore keeps a trained action value table in a LevelDB database
// so that large tables can be queried from disk without loading a JSON file.
package ldbstore

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/lox/blackjackbot/blackjack"
	"github.com/lox/blackjackbot/solver"
)

const (
	entryPrefix = "q:"
	metaKey     = "meta"

	entrySize = blackjack.NumActions * 16
)

// Meta describes the table stored alongside the entries.
type Meta struct {
	RunID        string          `json:"run_id"`
	Rules        blackjack.Rules `json:"rules"`
	InitialValue float64         `json:"initial_value"`
}

// ErrNoMeta is returned when a database holds no table metadata.
var ErrNoMeta = errors.New("ldbstore: database has no table metadata")

type Store struct {
	db    *leveldb.DB
	rOpts *opt.ReadOptions
	wOpts *opt.WriteOptions
}

// Open opens or creates a store at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return New(db), nil
}

func New(db *leveldb.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored table in a single batch.
func (s *Store) Save(table *solver.Table, meta Meta) error {
	metaBuf, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}

	batch := new(leveldb.Batch)
	iter := s.db.NewIterator(util.BytesPrefix([]byte(entryPrefix)), s.rOpts)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	for key, entry := range table.Entries() {
		batch.Put(entryKey(key), encodeEntry(entry))
	}
	batch.Put([]byte(metaKey), metaBuf)
	return s.db.Write(batch, s.wOpts)
}

// Meta returns the stored table metadata.
func (s *Store) Meta() (Meta, error) {
	buf, err := s.db.Get([]byte(metaKey), s.rOpts)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return Meta{}, ErrNoMeta
		}
		return Meta{}, err
	}
	var meta Meta
	if err := json.Unmarshal(buf, &meta); err != nil {
		return Meta{}, fmt.Errorf("decode meta: %w", err)
	}
	return meta, nil
}

// Load reads the whole table and its metadata.
func (s *Store) Load() (*solver.Table, Meta, error) {
	meta, err := s.Meta()
	if err != nil {
		return nil, Meta{}, err
	}

	entries := make(map[blackjack.StateKey]solver.Entry)
	iter := s.db.NewIterator(util.BytesPrefix([]byte(entryPrefix)), s.rOpts)
	defer iter.Release()
	for iter.Next() {
		var key blackjack.StateKey
		if err := key.UnmarshalText(iter.Key()[len(entryPrefix):]); err != nil {
			return nil, Meta{}, err
		}
		e, err := decodeEntry(iter.Value())
		if err != nil {
			return nil, Meta{}, fmt.Errorf("state %s: %w", key, err)
		}
		entries[key] = e
	}
	if err := iter.Error(); err != nil {
		return nil, Meta{}, err
	}

	table, err := solver.RestoreTable(meta.InitialValue, meta.Rules.PriorityOrder(), entries)
	if err != nil {
		return nil, Meta{}, err
	}
	return table, meta, nil
}

func entryKey(key blackjack.StateKey) []byte {
	return []byte(entryPrefix + key.String())
}

// Values then visits, little endian.
func encodeEntry(e solver.Entry) []byte {
	buf := make([]byte, entrySize)
	for i := 0; i < blackjack.NumActions; i++ {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(e.Values[i]))
		binary.LittleEndian.PutUint64(buf[8*(blackjack.NumActions+i):], e.Visits[i])
	}
	return buf
}

func decodeEntry(buf []byte) (solver.Entry, error) {
	if len(buf) != entrySize {
		return solver.Entry{}, fmt.Errorf("invalid encoded entry has len %d", len(buf))
	}
	var e solver.Entry
	for i := 0; i < blackjack.NumActions; i++ {
		e.Values[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
		e.Visits[i] = binary.LittleEndian.Uint64(buf[8*(blackjack.NumActions+i):])
	}
	return e, nil
}

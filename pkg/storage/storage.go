// Package storage archives received grams in a pebble database keyed by
// KSUID, so entries iterate in arrival order.
package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
)

var ErrGramNotFound = errors.New("storage: gram not found")

// Entry is one archived gram
type Entry struct {
	ID   ksuid.KSUID
	Data []byte
}

// Archive stores raw gram bytes. It is safe for concurrent use.
type Archive struct {
	db *pebble.DB

	idMu   sync.Mutex
	lastID ksuid.KSUID
}

// Open opens or creates the archive in path
func Open(path string) (*Archive, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	a := &Archive{db: db}
	if a.lastID, err = a.newestID(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) newestID() (ksuid.KSUID, error) {
	iter, err := a.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return ksuid.Nil, fmt.Errorf("storage: open: %w", err)
	}
	defer iter.Close()

	if !iter.Last() {
		return ksuid.Nil, iter.Error()
	}
	id, err := ksuid.FromBytes(iter.Key())
	if err != nil {
		return ksuid.Nil, fmt.Errorf("storage: open: bad key %x: %w", iter.Key(), err)
	}
	return id, nil
}

// nextID returns a KSUID greater than every id handed out before it. KSUIDs
// only carry second resolution, so ids made within the same second step
// forward from the previous one.
func (a *Archive) nextID() ksuid.KSUID {
	a.idMu.Lock()
	defer a.idMu.Unlock()

	id := ksuid.New()
	if ksuid.Compare(id, a.lastID) <= 0 {
		id = a.lastID.Next()
	}
	a.lastID = id
	return id
}

// Put stores a copy of data under a new id
func (a *Archive) Put(data []byte) (ksuid.KSUID, error) {
	id := a.nextID()
	if err := a.db.Set(id.Bytes(), data, pebble.NoSync); err != nil {
		return ksuid.Nil, fmt.Errorf("storage: put %s: %w", id, err)
	}
	return id, nil
}

// Get returns the gram stored under id
func (a *Archive) Get(id ksuid.KSUID) ([]byte, error) {
	data, closer, err := a.db.Get(id.Bytes())
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGramNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get %s: %w", id, err)
	}
	defer closer.Close()

	return append([]byte{}, data...), nil
}

// Delete removes the gram stored under id
func (a *Archive) Delete(id ksuid.KSUID) error {
	if _, err := a.Get(id); err != nil {
		return err
	}
	if err := a.db.Delete(id.Bytes(), pebble.NoSync); err != nil {
		return fmt.Errorf("storage: delete %s: %w", id, err)
	}
	return nil
}

// List returns up to limit entries, oldest first. A limit of zero or less
// returns every entry.
func (a *Archive) List(limit int) ([]Entry, error) {
	iter, err := a.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	defer iter.Close()

	var entries []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		if limit > 0 && len(entries) >= limit {
			break
		}
		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			return nil, fmt.Errorf("storage: list: bad key %x: %w", iter.Key(), err)
		}
		entries = append(entries, Entry{ID: id, Data: append([]byte{}, iter.Value()...)})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return entries, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

package segment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "segment/"

// Record describes one segment held in the local cache.
type Record struct {
	ID         string    `json:"id"`
	DataSource string    `json:"data_source"`
	Version    string    `json:"version"`
	Size       int64     `json:"size"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// Inventory is the on-disk bookkeeping of segments held in the local cache,
// rooted at a cache location. It records what is cached; it does not load
// or serve segment data.
type Inventory struct {
	db   *badger.DB
	stop chan struct{}
}

// Open opens (or creates) the inventory under dir.
func Open(dir string) (*Inventory, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open segment inventory: %w", err)
	}

	inv := &Inventory{db: db, stop: make(chan struct{})}
	go inv.runGC()
	return inv, nil
}

// runGC runs the badger value-log garbage collector periodically
func (inv *Inventory) runGC() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = inv.db.RunValueLogGC(0.7)
		case <-inv.stop:
			return
		}
	}
}

// Put records a cached segment, overwriting any prior record with the same ID.
func (inv *Inventory) Put(rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("segment id must not be empty")
	}
	if rec.LoadedAt.IsZero() {
		rec.LoadedAt = time.Now().UTC()
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return inv.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+rec.ID), value)
	})
}

// Get retrieves a segment record by ID.
func (inv *Inventory) Get(id string) (Record, bool, error) {
	var rec Record
	err := inv.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err == badger.ErrKeyNotFound {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// List returns every recorded segment.
func (inv *Inventory) List() ([]Record, error) {
	var out []Record
	err := inv.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Remove deletes a segment record.
func (inv *Inventory) Remove(id string) error {
	return inv.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + id))
	})
}

// TotalSize sums the recorded size of all cached segments.
func (inv *Inventory) TotalSize() (int64, error) {
	recs, err := inv.List()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, rec := range recs {
		total += rec.Size
	}
	return total, nil
}

// Close stops background GC and closes the store.
func (inv *Inventory) Close() error {
	close(inv.stop)
	return inv.db.Close()
}

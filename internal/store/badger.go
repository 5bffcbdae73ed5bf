// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/models"
)

// Errors returned by the store.
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateAgent = errors.New("an agent with the same rule already exists")
	ErrClosed         = errors.New("store is closed")
)

// Key prefixes. Each record key is the prefix followed by the big-endian
// record ID, so prefix iteration yields records in ID order.
const (
	prefixShow    = "show/"
	prefixAiring  = "airing/"
	prefixAgent   = "agent/"
	prefixWatched = "watched/"
	prefixWasted  = "wasted/"
	prefixMedia   = "media/"

	agentSequenceKey = "seq/agent"
)

// Config holds store settings.
type Config struct {
	Path       string
	InMemory   bool
	SyncWrites bool
}

// BadgerStore is the object store for shows, airings, agents and viewing
// history. Agent mutations are serialized by a write lock scope
// (UpdateAgents); all other writes are single Badger transactions.
type BadgerStore struct {
	db       *badger.DB
	agentSeq *badger.Sequence
	agentMu  sync.Mutex
	closed   atomic.Bool
}

// Open opens (or creates) the store.
func Open(cfg Config) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	seq, err := db.GetSequence([]byte(agentSequenceKey), 64)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("agent sequence: %w", err)
	}

	log := logging.WithComponent("store")
	log.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("Store opened")
	return &BadgerStore{db: db, agentSeq: seq}, nil
}

// OpenInMemory opens an empty store that lives only in memory.
func OpenInMemory() (*BadgerStore, error) {
	return Open(Config{InMemory: true})
}

// Close releases the agent sequence and closes the database.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.agentSeq.Release(); err != nil {
		logging.Warn().Err(err).Msg("Failed to release agent sequence")
	}
	return s.db.Close()
}

func recordKey(prefix string, id int64) []byte {
	k := make([]byte, len(prefix)+8)
	copy(k, prefix)
	binary.BigEndian.PutUint64(k[len(prefix):], uint64(id))
	return k
}

// observe records the duration and outcome of a store operation.
func observe(op string, start time.Time, err *error) {
	metrics.RecordStoreOperation(op, time.Since(start), *err)
}

func (s *BadgerStore) check(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

func (s *BadgerStore) put(ctx context.Context, op, prefix string, id int64, v any) (err error) {
	defer observe(op, time.Now(), &err)
	if err := s.check(ctx); err != nil {
		return err
	}
	data, err := marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", op, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(prefix, id), data)
	})
}

func (s *BadgerStore) get(ctx context.Context, op, prefix string, id int64, v any) (err error) {
	defer observe(op, time.Now(), &err)
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		return getTxn(txn, prefix, id, v)
	})
}

func getTxn(txn *badger.Txn, prefix string, id int64, v any) error {
	item, err := txn.Get(recordKey(prefix, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshal(val, v)
	})
}

func (s *BadgerStore) remove(ctx context.Context, op, prefix string, id int64) (err error) {
	defer observe(op, time.Now(), &err)
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(recordKey(prefix, id)); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		return txn.Delete(recordKey(prefix, id))
	})
}

// scan decodes every record under prefix in key order.
func scan[T any](ctx context.Context, txn *badger.Txn, prefix string) ([]*T, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []*T
	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := new(T)
		if err := it.Item().Value(func(val []byte) error {
			return unmarshal(val, rec)
		}); err != nil {
			return nil, fmt.Errorf("decode %s%x: %w", prefix, it.Item().Key()[len(p):], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func scanAll[T any](ctx context.Context, s *BadgerStore, op, prefix string) (out []*T, err error) {
	defer observe(op, time.Now(), &err)
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	err = s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = scan[T](ctx, txn, prefix)
		return err
	})
	return out, err
}

// PutShow inserts or replaces a show.
func (s *BadgerStore) PutShow(ctx context.Context, show *models.Show) error {
	return s.put(ctx, "put_show", prefixShow, show.ID, show)
}

// Show returns the show with the given ID.
func (s *BadgerStore) Show(ctx context.Context, id int64) (*models.Show, error) {
	var show models.Show
	if err := s.get(ctx, "get_show", prefixShow, id, &show); err != nil {
		return nil, err
	}
	return &show, nil
}

// SetShowDontLike updates the don't-like mark of a show.
func (s *BadgerStore) SetShowDontLike(ctx context.Context, showID int64, dontLike bool) (err error) {
	defer observe("set_show_dont_like", time.Now(), &err)
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		var show models.Show
		if err := getTxn(txn, prefixShow, showID, &show); err != nil {
			return err
		}
		show.DontLike = dontLike
		data, err := marshal(&show)
		if err != nil {
			return err
		}
		return txn.Set(recordKey(prefixShow, showID), data)
	})
}

// PutAiring inserts or replaces an airing. The Show pointer is not stored.
func (s *BadgerStore) PutAiring(ctx context.Context, air *models.Airing) error {
	return s.put(ctx, "put_airing", prefixAiring, air.ID, air)
}

// Airing returns one airing with its show resolved.
func (s *BadgerStore) Airing(ctx context.Context, id int64) (air *models.Airing, err error) {
	defer observe("get_airing", time.Now(), &err)
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	air = new(models.Airing)
	err = s.db.View(func(txn *badger.Txn) error {
		if err := getTxn(txn, prefixAiring, id, air); err != nil {
			return err
		}
		var show models.Show
		switch err := getTxn(txn, prefixShow, air.ShowID, &show); {
		case err == nil:
			air.Show = &show
		case !errors.Is(err, ErrNotFound):
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return air, nil
}

// Airings returns every airing in ID order with shows resolved. Airings
// whose show is missing keep a nil Show.
func (s *BadgerStore) Airings(ctx context.Context) (airs []*models.Airing, err error) {
	defer observe("list_airings", time.Now(), &err)
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	err = s.db.View(func(txn *badger.Txn) error {
		shows, err := scan[models.Show](ctx, txn, prefixShow)
		if err != nil {
			return err
		}
		byID := make(map[int64]*models.Show, len(shows))
		for _, sh := range shows {
			byID[sh.ID] = sh
		}
		airs, err = scan[models.Airing](ctx, txn, prefixAiring)
		if err != nil {
			return err
		}
		for _, a := range airs {
			a.Show = byID[a.ShowID]
		}
		return nil
	})
	return airs, err
}

// Agents returns every agent in ID order.
func (s *BadgerStore) Agents(ctx context.Context) ([]*models.Agent, error) {
	return scanAll[models.Agent](ctx, s, "list_agents", prefixAgent)
}

// Agent returns one agent.
func (s *BadgerStore) Agent(ctx context.Context, id int64) (*models.Agent, error) {
	var a models.Agent
	if err := s.get(ctx, "get_agent", prefixAgent, id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// PutWatched records a viewing, keyed by airing.
func (s *BadgerStore) PutWatched(ctx context.Context, w *models.Watched) error {
	return s.put(ctx, "put_watched", prefixWatched, w.AiringID, w)
}

// DeleteWatched clears the viewing record of an airing.
func (s *BadgerStore) DeleteWatched(ctx context.Context, airingID int64) error {
	return s.remove(ctx, "delete_watched", prefixWatched, airingID)
}

// Watched returns every viewing record in airing ID order.
func (s *BadgerStore) Watched(ctx context.Context) ([]*models.Watched, error) {
	return scanAll[models.Watched](ctx, s, "list_watched", prefixWatched)
}

// PutWasted records a don't-like mark, keyed by airing.
func (s *BadgerStore) PutWasted(ctx context.Context, w *models.Wasted) error {
	return s.put(ctx, "put_wasted", prefixWasted, w.AiringID, w)
}

// WastedFor returns the don't-like mark of an airing.
func (s *BadgerStore) WastedFor(ctx context.Context, airingID int64) (*models.Wasted, error) {
	var w models.Wasted
	if err := s.get(ctx, "get_wasted", prefixWasted, airingID, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// DeleteWasted removes the don't-like mark of an airing.
func (s *BadgerStore) DeleteWasted(ctx context.Context, airingID int64) error {
	return s.remove(ctx, "delete_wasted", prefixWasted, airingID)
}

// Wasted returns every don't-like mark in airing ID order.
func (s *BadgerStore) Wasted(ctx context.Context) ([]*models.Wasted, error) {
	return scanAll[models.Wasted](ctx, s, "list_wasted", prefixWasted)
}

// PutMediaFile inserts or replaces a recording.
func (s *BadgerStore) PutMediaFile(ctx context.Context, mf *models.MediaFile) error {
	return s.put(ctx, "put_media_file", prefixMedia, mf.ID, mf)
}

// MediaFiles returns every recording in ID order.
func (s *BadgerStore) MediaFiles(ctx context.Context) ([]*models.MediaFile, error) {
	return scanAll[models.MediaFile](ctx, s, "list_media_files", prefixMedia)
}

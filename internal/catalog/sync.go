package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"valvefinder/internal"
	"valvefinder/internal/storage"
)

const lastSyncKey = "catalog.last_sync"

// SyncService mirrors the backend catalog into the local sqlite cache and
// serves the cached copy when the backend is down.
type SyncService struct {
	db     *storage.DB
	remote BackendSource
	log    *logrus.Entry
}

func NewSyncService(db *storage.DB, remote BackendSource, log *logrus.Entry) *SyncService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &SyncService{db: db, remote: remote, log: log}
}

// Sync fetches the backend list and makes the cache mirror it.
func (s *SyncService) Sync(ctx context.Context) (int, error) {
	valves, err := s.remote.ListValves(ctx)
	if err != nil {
		return 0, fmt.Errorf("backend list: %w: %v", ErrSourceUnavailable, err)
	}
	if err := s.db.ReplaceValves(valves); err != nil {
		return 0, err
	}
	_ = s.db.SetMetadata(lastSyncKey, time.Now().UTC().Format(time.RFC3339))
	return len(valves), nil
}

// ListValves returns the live backend list, refreshing the cache on the way.
// When the backend fails the cached copy is returned instead; the error is
// only surfaced when the cache is empty too.
func (s *SyncService) ListValves(ctx context.Context) ([]internal.BackendValve, error) {
	valves, err := s.remote.ListValves(ctx)
	if err == nil {
		if cacheErr := s.db.ReplaceValves(valves); cacheErr != nil {
			s.log.WithError(cacheErr).Warn("valve cache write failed")
		} else {
			_ = s.db.SetMetadata(lastSyncKey, time.Now().UTC().Format(time.RFC3339))
		}
		return valves, nil
	}

	cached, cacheErr := s.db.ListValves()
	if cacheErr != nil || len(cached) == 0 {
		return nil, fmt.Errorf("backend list: %w: %v", ErrSourceUnavailable, err)
	}
	s.log.WithError(err).WithField("cached", len(cached)).Warn("backend unavailable, serving cached valves")
	return cached, nil
}

// GetValve serves the backend detail, falling back to the cached row when
// the backend cannot be reached. A backend 404 is final.
func (s *SyncService) GetValve(ctx context.Context, id string) (internal.BackendValve, error) {
	if detail, ok := s.remote.(DetailSource); ok {
		v, err := detail.GetValve(ctx, id)
		if err == nil || errors.Is(err, ErrNotFound) || ctx.Err() != nil {
			return v, err
		}
		s.log.WithError(err).WithField("id", id).Debug("detail from cache")
	}
	cached, err := s.db.GetValve(id)
	if err != nil {
		return internal.BackendValve{}, err
	}
	if cached == nil {
		return internal.BackendValve{}, fmt.Errorf("valve %s: %w", id, ErrNotFound)
	}
	return *cached, nil
}

// LastSync returns when the cache was last refreshed from the backend.
func (s *SyncService) LastSync() (time.Time, bool) {
	v, err := s.db.GetMetadata(lastSyncKey)
	if err != nil || v == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, *v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Loader fetches every configured source concurrently, waits for all of them,
// merges once and swaps the result into a store. A failing or missing source
// contributes nothing; it never aborts the load.
type Loader struct {
	Images   ImageSource
	Backend  BackendSource
	Metadata MetadataSource
	Banks    BankOverrideSource
	Files    FileLister
	Log      *logrus.Entry
}

func (l *Loader) logger() *logrus.Entry {
	if l.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return l.Log
}

// Fetch runs all sources and returns the joined snapshot.
func (l *Loader) Fetch(ctx context.Context) (Sources, error) {
	log := l.logger()

	var src Sources
	g, gctx := errgroup.WithContext(ctx)

	if l.Images != nil {
		g.Go(func() error {
			images, err := l.Images.Images(gctx)
			if err != nil {
				log.WithError(err).WithField("source", "images").Warn("source unavailable")
				return nil
			}
			src.Images = images
			return nil
		})
	}
	if l.Backend != nil {
		g.Go(func() error {
			valves, err := l.Backend.ListValves(gctx)
			if err != nil {
				log.WithError(err).WithField("source", "backend").Warn("source unavailable")
				return nil
			}
			src.Backend = valves
			return nil
		})
	}
	if l.Metadata != nil {
		g.Go(func() error {
			records, err := l.Metadata.Metadata(gctx)
			if err != nil {
				log.WithError(err).WithField("source", "metadata").Warn("source unavailable")
				return nil
			}
			src.Metadata = records
			return nil
		})
	}
	if l.Banks != nil {
		g.Go(func() error {
			overrides, err := l.Banks.BankOverrides(gctx)
			if err != nil {
				log.WithError(err).WithField("source", "banks").Debug("no bank overrides")
				return nil
			}
			src.BankOverrides = overrides
			return nil
		})
	}
	if l.Files != nil {
		g.Go(func() error {
			files, err := l.Files.Files(gctx)
			if err != nil {
				log.WithError(err).WithField("source", "files").Warn("source unavailable")
				return nil
			}
			src.Files = files
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Sources{}, err
	}
	return src, nil
}

// Load fetches, merges and replaces the store contents. The store is left
// untouched when ctx is cancelled before the join completes.
func (l *Loader) Load(ctx context.Context, store *Store) ([]internal.ValveRecord, error) {
	src, err := l.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	records := Merge(src)
	store.Load(records)

	log := l.logger()
	log.WithFields(logrus.Fields{
		"images":    len(src.Images),
		"backend":   len(src.Backend),
		"metadata":  len(src.Metadata),
		"overrides": len(src.BankOverrides),
		"records":   store.Len(),
	}).Info("catalog loaded")
	return store.All(), nil
}

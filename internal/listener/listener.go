package listener

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"valvefinder/internal"
	"valvefinder/internal/catalog"
	"valvefinder/internal/config"
	"valvefinder/internal/importer"
)

// Service reloads the catalog on a fixed interval and re-exports the XLSX
// snapshot whenever the merged catalog changes.
type Service struct {
	loader *catalog.Loader
	store  *catalog.Store
	cfg    config.Config
	log    *logrus.Entry

	lastDigest string
}

func NewService(loader *catalog.Loader, store *catalog.Store, cfg config.Config, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{loader: loader, store: store, cfg: cfg, log: log}
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.RefreshIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	for {
		if _, err := s.RunCycle(ctx); err != nil && ctx.Err() == nil {
			s.log.WithError(err).Error("refresh cycle failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// RunCycle performs one reload and reports whether the catalog changed.
func (s *Service) RunCycle(ctx context.Context) (bool, error) {
	records, err := s.loader.Load(ctx, s.store)
	if err != nil {
		return false, err
	}

	digest := catalogDigest(records)
	if digest == s.lastDigest {
		s.log.WithField("records", len(records)).Debug("catalog unchanged")
		return false, nil
	}

	outputPath := filepath.Join(s.cfg.OutputDir, "catalog.xlsx")
	if err := importer.ExportCatalogXLSX(records, bankTags, outputPath); err != nil {
		return false, err
	}
	s.lastDigest = digest

	s.log.WithFields(logrus.Fields{
		"records": len(records),
		"banks":   catalog.CountByBank(records),
		"output":  outputPath,
	}).Info("catalog refreshed")
	return true, nil
}

func bankTags(r internal.ValveRecord) []string {
	return catalog.GetBanks(r).Sorted()
}

func catalogDigest(records []internal.ValveRecord) string {
	blob, _ := json.Marshal(records)
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}

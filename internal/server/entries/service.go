// Package entries exposes the stored TOTP entries and their current codes.
package entries

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/logging"
	"github.com/dmitrijs2005/totpkeeper/internal/totp"
	"github.com/dmitrijs2005/totpkeeper/internal/vault"
)

// Store is the part of the vault the service needs.
type Store interface {
	ListEntries() ([]vault.EntrySummary, error)
	AddEntryAndSave(ctx context.Context, name, issuer, seed string) (string, error)
	DeleteEntryAndSave(ctx context.Context, id string) error
	GetEntry(id string) (vault.Entry, bool, error)
}

type Service struct {
	store  Store
	engine *totp.Engine
	log    logging.Logger
}

func NewService(store Store, engine *totp.Engine, log logging.Logger) *Service {
	return &Service{store: store, engine: engine, log: log.With("module", "entries")}
}

// Add stores a new entry and saves the vault. If the save fails the entry
// is not kept.
func (s *Service) Add(ctx context.Context, name, issuer, seed string) (string, error) {
	id, err := s.store.AddEntryAndSave(ctx, name, issuer, seed)
	if err != nil {
		return "", err
	}

	s.log.Info(ctx, "entry added", "id", id)
	return id, nil
}

func (s *Service) List(_ context.Context) ([]vault.EntrySummary, error) {
	return s.store.ListEntries()
}

// Delete removes the entry and saves. An unknown id is common.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteEntryAndSave(ctx, id); err != nil {
		return err
	}

	s.log.Info(ctx, "entry deleted", "id", id)
	return nil
}

// Code returns the current code for entry id and the seconds it has left.
func (s *Service) Code(_ context.Context, id string) (totp.Code, error) {
	e, ok, err := s.store.GetEntry(id)
	if err != nil {
		return totp.Code{}, err
	}
	if !ok {
		return totp.Code{}, common.ErrNotFound
	}

	code, err := s.engine.GenerateCode(e.Seed)
	if err != nil {
		// Stored seeds were validated on insert.
		return totp.Code{}, errors.Join(common.ErrInternal, err)
	}
	return code, nil
}

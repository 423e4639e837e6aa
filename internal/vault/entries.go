package vault

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/totpkeeper/internal/codec"
	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/google/uuid"
)

var errEmptyName = errors.New("entry name is required")

// GetOperator returns a copy of the operator record.
func (v *Vault) GetOperator() (Operator, error) {
	return Read(v, func(db *Database) Operator {
		return db.Operator
	})
}

// UpdateOperator runs fn on a copy of the operator record and stores the
// copy when fn returns nil. Checks made inside fn see the same record that
// gets written.
func (v *Vault) UpdateOperator(fn func(op *Operator) error) error {
	_, err := Mutate(v, func(db *Database) (struct{}, error) {
		op := db.Operator
		if err := fn(&op); err != nil {
			return struct{}{}, err
		}
		db.Operator = op
		return struct{}{}, nil
	})
	return err
}

// ListEntries returns the entries in insertion order, without seeds.
func (v *Vault) ListEntries() ([]EntrySummary, error) {
	return Read(v, func(db *Database) []EntrySummary {
		out := make([]EntrySummary, 0, len(db.Entries))
		for _, e := range db.Entries {
			out = append(out, e.Summary())
		}
		return out
	})
}

// AddEntry stores a new entry and returns its id. The seed is checked for
// valid Base32 and stored in normalized form.
func (v *Vault) AddEntry(name, issuer, seed string) (string, error) {
	return Mutate(v, func(db *Database) (string, error) {
		return v.addEntry(db, name, issuer, seed)
	})
}

// AddEntryAndSave is AddEntry and Save as one step. A failed write leaves
// the entry out of memory too.
func (v *Vault) AddEntryAndSave(ctx context.Context, name, issuer, seed string) (string, error) {
	return Commit(ctx, v, func(db *Database) (string, error) {
		return v.addEntry(db, name, issuer, seed)
	})
}

func (v *Vault) addEntry(db *Database, name, issuer, seed string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.Join(common.ErrBadRequest, errEmptyName)
	}
	if _, err := codec.DecodeSeed(seed); err != nil {
		return "", err
	}

	id := uuid.NewString()
	for db.indexOf(id) >= 0 {
		id = uuid.NewString()
	}

	db.Entries = append(db.Entries, Entry{
		ID:        id,
		Name:      name,
		Issuer:    strings.TrimSpace(issuer),
		Seed:      codec.NormalizeSeed(seed),
		CreatedAt: v.now().UTC(),
	})
	return id, nil
}

// DeleteEntry removes the entry with id and reports whether it existed.
func (v *Vault) DeleteEntry(id string) (bool, error) {
	return Mutate(v, deleteEntry(id))
}

// DeleteEntryAndSave is DeleteEntry and Save as one step. An unknown id is
// common.ErrNotFound and nothing is written.
func (v *Vault) DeleteEntryAndSave(ctx context.Context, id string) error {
	_, err := Commit(ctx, v, func(db *Database) (bool, error) {
		removed, _ := deleteEntry(id)(db)
		if !removed {
			return false, common.ErrNotFound
		}
		return true, nil
	})
	return err
}

func deleteEntry(id string) func(db *Database) (bool, error) {
	return func(db *Database) (bool, error) {
		i := db.indexOf(id)
		if i < 0 {
			return false, nil
		}
		db.Entries = append(db.Entries[:i], db.Entries[i+1:]...)
		return true, nil
	}
}

// GetEntry returns a copy of the entry with id.
func (v *Vault) GetEntry(id string) (Entry, bool, error) {
	type result struct {
		e  Entry
		ok bool
	}
	r, err := Read(v, func(db *Database) result {
		i := db.indexOf(id)
		if i < 0 {
			return result{}
		}
		return result{e: db.Entries[i], ok: true}
	})
	return r.e, r.ok, err
}

package vault

import (
	"time"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/cryptox"
)

// Operator is the single login account of the server. PasswordHash is a
// bcrypt hash and is unrelated to the master password.
type Operator struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	TwoFAEnabled bool   `json:"two_fa_enabled"`
	TwoFASeed    string `json:"two_fa_seed,omitempty"`
}

// Entry is a stored TOTP seed. Entries are created and deleted, never edited.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Issuer    string    `json:"issuer"`
	Seed      string    `json:"seed"`
	CreatedAt time.Time `json:"created_at"`
}

// EntrySummary is an Entry without its seed, for listings.
type EntrySummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Issuer    string    `json:"issuer"`
	CreatedAt time.Time `json:"created_at"`
}

func (e Entry) Summary() EntrySummary {
	return EntrySummary{ID: e.ID, Name: e.Name, Issuer: e.Issuer, CreatedAt: e.CreatedAt}
}

// Database is the plaintext that gets encrypted into the data file.
type Database struct {
	Operator Operator `json:"operator"`
	Entries  []Entry  `json:"entries"`
}

func newDatabase(passwordCost int) (*Database, error) {
	hash, err := cryptox.HashPassword(common.DefaultOperatorPassword, passwordCost)
	if err != nil {
		return nil, err
	}
	return &Database{
		Operator: Operator{
			Username:     common.DefaultOperatorUsername,
			PasswordHash: hash,
		},
		Entries: []Entry{},
	}, nil
}

// clone copies the database deep enough that changes made through Mutate
// to the copy do not reach d.
func (d *Database) clone() *Database {
	c := &Database{Operator: d.Operator, Entries: make([]Entry, len(d.Entries))}
	copy(c.Entries, d.Entries)
	return c
}

func (d *Database) indexOf(id string) int {
	for i := range d.Entries {
		if d.Entries[i].ID == id {
			return i
		}
	}
	return -1
}

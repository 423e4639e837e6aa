// Package vault holds the encrypted secret database and its Locked/Unlocked
// state machine. All access goes through a single mutex.
package vault

import (
	"context"
	"crypto/subtle"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/cryptox"
	"github.com/dmitrijs2005/totpkeeper/internal/logging"
)

// unlocked is the Unlocked state. The master password is kept so Save can
// derive a new key for each fresh salt.
type unlocked struct {
	password []byte
	key      []byte
	db       *Database
}

func (u *unlocked) wipe() {
	common.WipeByteArray(u.password)
	common.WipeByteArray(u.key)
	u.password = nil
	u.key = nil
	u.db = nil
}

type Vault struct {
	mu    sync.Mutex
	state *unlocked
	// seq numbers the writes of the data file, guarded by mu.
	seq uint64

	// pushMu keeps backup pushes in write order. pushed is the seq of the
	// newest blob handed to the syncer. Lock order is pushMu, then mu.
	pushMu sync.Mutex
	pushed uint64

	path         string
	params       cryptox.KDFParams
	passwordCost int
	log          logging.Logger
	syncer       Syncer
	now          func() time.Time
}

type Option func(*Vault)

func WithKDFParams(p cryptox.KDFParams) Option {
	return func(v *Vault) { v.params = p }
}

func WithLogger(l logging.Logger) Option {
	return func(v *Vault) { v.log = l }
}

// WithSyncer pushes every saved blob to s.
func WithSyncer(s Syncer) Option {
	return func(v *Vault) { v.syncer = s }
}

// WithPasswordCost sets the bcrypt cost for the default operator password.
func WithPasswordCost(cost int) Option {
	return func(v *Vault) { v.passwordCost = cost }
}

func WithClock(now func() time.Time) Option {
	return func(v *Vault) { v.now = now }
}

// New returns a locked Vault backed by the file at path.
func New(path string, opts ...Option) *Vault {
	v := &Vault{
		path:   path,
		params: cryptox.DefaultKDFParams(),
		log:    logging.Nop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(v)
	}
	v.log = v.log.With("module", "vault")
	return v
}

// Path returns the data file location.
func (v *Vault) Path() string {
	return v.path
}

// Unlock decrypts the data file with password and moves to Unlocked.
//
// When the file does not exist a new database with the default operator
// account is created, encrypted under password and written. A wrong
// password and a damaged file both return common.ErrInvalidMasterPassword.
// Calling Unlock while unlocked only checks password against the one in use.
func (v *Vault) Unlock(ctx context.Context, password []byte) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != nil {
		if subtle.ConstantTimeCompare(v.state.password, password) != 1 {
			v.log.Warn(ctx, "unlock rejected")
			return false, common.ErrInvalidMasterPassword
		}
		return true, nil
	}

	blob, err := os.ReadFile(v.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return v.create(ctx, password)
	case err != nil:
		return false, errors.Join(common.ErrStorage, err)
	}

	db := &Database{}
	key, err := cryptox.DecryptBlob(blob, password, v.params, db)
	if err != nil {
		v.log.Warn(ctx, "unlock rejected")
		return false, err
	}
	if db.Entries == nil {
		db.Entries = []Entry{}
	}

	v.state = &unlocked{password: common.CloneBytes(password), key: key, db: db}
	v.log.Info(ctx, "vault unlocked", "entries", len(db.Entries))
	return true, nil
}

func (v *Vault) create(ctx context.Context, password []byte) (bool, error) {
	db, err := newDatabase(v.passwordCost)
	if err != nil {
		return false, errors.Join(common.ErrInternal, err)
	}

	blob, key, err := cryptox.EncryptBlob(db, password, v.params)
	if err != nil {
		return false, err
	}
	if err := atomicWriteFile(v.path, blob); err != nil {
		common.WipeByteArray(key)
		return false, errors.Join(common.ErrStorage, err)
	}

	v.state = &unlocked{password: common.CloneBytes(password), key: key, db: db}
	v.seq++
	v.log.Info(ctx, "new vault created", "path", v.path)
	return true, nil
}

// Lock wipes the key and password and drops the database. It is a no-op
// when already locked.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == nil {
		return
	}
	v.state.wipe()
	v.state = nil
	v.log.Info(context.Background(), "vault locked")
}

func (v *Vault) IsUnlocked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state != nil
}

// Save encrypts the database under a new salt and nonce and atomically
// replaces the data file. On failure the previous file and key are kept.
func (v *Vault) Save(ctx context.Context) error {
	v.mu.Lock()
	blob, seq, err := v.saveLocked()
	v.mu.Unlock()
	if err != nil {
		return err
	}

	v.log.Debug(ctx, "vault saved", "bytes", len(blob))
	v.push(ctx, blob, seq)
	return nil
}

func (v *Vault) saveLocked() ([]byte, uint64, error) {
	if v.state == nil {
		return nil, 0, common.ErrLocked
	}

	blob, key, err := cryptox.EncryptBlob(v.state.db, v.state.password, v.params)
	if err != nil {
		return nil, 0, err
	}
	if err := atomicWriteFile(v.path, blob); err != nil {
		common.WipeByteArray(key)
		return nil, 0, errors.Join(common.ErrStorage, err)
	}

	common.WipeByteArray(v.state.key)
	v.state.key = key
	v.seq++
	return blob, v.seq, nil
}

// Commit is Mutate followed by Save in the same critical section. When the
// write fails the database is put back as it was before f, so memory never
// holds a change that the data file lacks.
func Commit[T any](ctx context.Context, v *Vault, f func(db *Database) (T, error)) (T, error) {
	var zero T

	v.mu.Lock()
	if v.state == nil {
		v.mu.Unlock()
		return zero, common.ErrLocked
	}

	before := v.state.db.clone()
	out, err := f(v.state.db)
	if err != nil {
		v.mu.Unlock()
		return zero, err
	}
	blob, seq, err := v.saveLocked()
	if err != nil {
		v.state.db = before
		v.mu.Unlock()
		return zero, err
	}
	v.mu.Unlock()

	v.log.Debug(ctx, "vault saved", "bytes", len(blob))
	v.push(ctx, blob, seq)
	return out, nil
}

// Read runs f on the database while holding the vault lock. f must not keep
// references into db after it returns.
func Read[T any](v *Vault, f func(db *Database) T) (T, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == nil {
		var zero T
		return zero, common.ErrLocked
	}
	return f(v.state.db), nil
}

// Mutate is Read for changes. f may reject the change by returning an error,
// in which case it must leave db untouched. The change is not persisted
// until Save.
func Mutate[T any](v *Vault, f func(db *Database) (T, error)) (T, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == nil {
		var zero T
		return zero, common.ErrLocked
	}
	return f(v.state.db)
}

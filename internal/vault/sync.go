package vault

import (
	"context"
	"errors"
	"os"

	"github.com/dmitrijs2005/totpkeeper/internal/codec"
	"github.com/dmitrijs2005/totpkeeper/internal/common"
)

// ErrNoSyncer is returned by SyncPush and SyncPull when no Syncer is set.
var ErrNoSyncer = errors.New("vault: no syncer configured")

// Syncer copies the encrypted data file to and from a remote location.
// It only ever sees ciphertext.
type Syncer interface {
	// Push uploads the encrypted blob.
	Push(ctx context.Context, blob []byte) error

	// Pull downloads the latest encrypted blob.
	Pull(ctx context.Context) ([]byte, error)
}

// SyncPush uploads the current data file.
func (v *Vault) SyncPush(ctx context.Context) error {
	if v.syncer == nil {
		return ErrNoSyncer
	}

	v.pushMu.Lock()
	defer v.pushMu.Unlock()

	v.mu.Lock()
	blob, err := os.ReadFile(v.path)
	seq := v.seq
	v.mu.Unlock()
	if err != nil {
		return errors.Join(common.ErrStorage, err)
	}

	v.pushed = max(v.pushed, seq)
	if err := v.syncer.Push(ctx, blob); err != nil {
		return errors.Join(common.ErrStorage, err)
	}
	v.log.Info(ctx, "data file pushed", "bytes", len(blob))
	return nil
}

// SyncPull replaces the local data file with the remote copy. The vault
// must be locked, so the next Unlock reads the pulled file.
func (v *Vault) SyncPull(ctx context.Context) error {
	if v.syncer == nil {
		return ErrNoSyncer
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != nil {
		return common.ErrVaultUnlocked
	}

	blob, err := v.syncer.Pull(ctx)
	if err != nil {
		return errors.Join(common.ErrStorage, err)
	}
	if _, err := codec.ParseFrame(blob); err != nil {
		return errors.Join(common.ErrStorage, err)
	}
	if err := atomicWriteFile(v.path, blob); err != nil {
		return errors.Join(common.ErrStorage, err)
	}
	v.seq++
	v.log.Info(ctx, "data file pulled", "bytes", len(blob))
	return nil
}

// push uploads the blob written as seq. A push that finds a newer blob
// already handed to the syncer is skipped, so the remote never goes back
// to an older write.
func (v *Vault) push(ctx context.Context, blob []byte, seq uint64) {
	if v.syncer == nil {
		return
	}

	v.pushMu.Lock()
	defer v.pushMu.Unlock()

	if seq <= v.pushed {
		v.log.Debug(ctx, "backup push skipped, newer blob already pushed", "seq", seq)
		return
	}
	v.pushed = seq
	if err := v.syncer.Push(ctx, blob); err != nil {
		v.log.Warn(ctx, "backup push failed", "error", err)
	}
}

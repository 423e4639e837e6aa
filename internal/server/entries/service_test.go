package entries

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/cryptox"
	"github.com/dmitrijs2005/totpkeeper/internal/logging"
	"github.com/dmitrijs2005/totpkeeper/internal/totp"
	"github.com/dmitrijs2005/totpkeeper/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newVault(t *testing.T) *vault.Vault {
	t.Helper()
	v := vault.New(filepath.Join(t.TempDir(), "data.enc"),
		vault.WithKDFParams(cryptox.KDFParams{Time: 1, MemoryKiB: 8 * 1024, Threads: 1}),
		vault.WithPasswordCost(bcrypt.MinCost),
	)
	ok, err := v.Unlock(context.Background(), []byte("correcthorse1"))
	require.NoError(t, err)
	require.True(t, ok)
	return v
}

func fixedEngine() *totp.Engine {
	return totp.NewEngine(func() time.Time { return time.Unix(1700000000, 0) })
}

// breakDataFile swaps the data file for a directory so the next write's
// rename fails, whoever runs the test.
func breakDataFile(t *testing.T, v *vault.Vault) {
	t.Helper()
	require.NoError(t, os.Remove(v.Path()))
	require.NoError(t, os.Mkdir(v.Path(), 0o700))
}

func TestService_AddListCodeDelete(t *testing.T) {
	ctx := context.Background()
	v := newVault(t)
	svc := NewService(v, fixedEngine(), logging.Nop())

	id, err := svc.Add(ctx, "GitHub", "GitHub", "JBSWY3DPEHPK3PXP")
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "GitHub", list[0].Name)

	code, err := svc.Code(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, totp.Code{Code: "324550", RemainingSeconds: 10}, code)

	require.NoError(t, svc.Delete(ctx, id))
	assert.ErrorIs(t, svc.Delete(ctx, id), common.ErrNotFound)

	_, err = svc.Code(ctx, id)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestService_AddPersists(t *testing.T) {
	ctx := context.Background()
	v := newVault(t)
	svc := NewService(v, fixedEngine(), logging.Nop())

	_, err := svc.Add(ctx, "GitHub", "GitHub", "JBSWY3DPEHPK3PXP")
	require.NoError(t, err)

	v.Lock()
	_, err = v.Unlock(ctx, []byte("correcthorse1"))
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestService_AddRejectsInvalidSeed(t *testing.T) {
	svc := NewService(newVault(t), fixedEngine(), logging.Nop())

	_, err := svc.Add(context.Background(), "x", "y", "not base32!")
	assert.ErrorIs(t, err, common.ErrInvalidSeed)
}

func TestService_FailedWriteKeepsMemoryAsOnDisk(t *testing.T) {
	ctx := context.Background()
	v := newVault(t)
	svc := NewService(v, fixedEngine(), logging.Nop())

	kept, err := svc.Add(ctx, "GitHub", "GitHub", "JBSWY3DPEHPK3PXP")
	require.NoError(t, err)

	breakDataFile(t, v)

	_, err = svc.Add(ctx, "Mail", "Example", "JBSWY3DPEHPK3PXP")
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.ErrorIs(t, svc.Delete(ctx, kept), common.ErrStorage)

	list, err := v.ListEntries()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, kept, list[0].ID)
}

func TestService_Locked(t *testing.T) {
	ctx := context.Background()
	v := newVault(t)
	svc := NewService(v, fixedEngine(), logging.Nop())
	v.Lock()

	_, err := svc.Add(ctx, "x", "y", "JBSWY3DPEHPK3PXP")
	assert.ErrorIs(t, err, common.ErrLocked)
	_, err = svc.List(ctx)
	assert.ErrorIs(t, err, common.ErrLocked)
	assert.ErrorIs(t, svc.Delete(ctx, "id"), common.ErrLocked)
	_, err = svc.Code(ctx, "id")
	assert.ErrorIs(t, err, common.ErrLocked)
}

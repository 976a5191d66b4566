package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/warehouse-backend/internal/cron"
	"github.com/angelmondragon/warehouse-backend/internal/gate"
	"github.com/angelmondragon/warehouse-backend/internal/storage"
	"github.com/angelmondragon/warehouse-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/warehouse-backend/pkg/errors"
	"github.com/angelmondragon/warehouse-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	night = time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	noon  = time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
)

type harness struct {
	cfg      *config.Config
	now      time.Time
	lockWait time.Duration
}

func newYAMLHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{
		cfg: &config.Config{
			Storage: config.StorageConfig{
				Driver:           config.StorageDriverYAML,
				EntriesPath:      filepath.Join(dir, "products.yaml"),
				ReservationsPath: filepath.Join(dir, "reserved.yaml"),
			},
			Gate: config.GateConfig{Start: "23:00", End: "06:00"},
		},
		now: night,
	}
}

func (h *harness) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand(Options{
		Config:   h.cfg,
		Logger:   logger.Nop(),
		Out:      &stdout,
		Err:      &stderr,
		Now:      func() time.Time { return h.now },
		LockWait: h.lockWait,
	})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, _, err := h.run(t, args...)
	require.NoError(t, err, "warehouse %s", strings.Join(args, " "))
	return out
}

func barCodeFrom(t *testing.T, out string) string {
	t.Helper()
	fields := strings.Fields(out)
	require.NotEmpty(t, fields)
	return fields[len(fields)-1]
}

func TestSessionsPersistBetweenInvocations(t *testing.T) {
	h := newYAMLHarness(t)

	out := h.mustRun(t, "add", "food", "--name", "Apple", "--price", "1.25", "--quantity", "10",
		"--description", "Fresh", "--expiration-date", "2026-03-15")
	assert.Contains(t, out, `Added food "Apple" with bar code`)
	appleCode := barCodeFrom(t, out)

	h.mustRun(t, "add", "clothing", "--name", "Jacket", "--price", "59.90", "--quantity", "7",
		"--size", "L", "--color", "Black")

	h.now = noon
	out = h.mustRun(t, "buy", "Apple", "3")
	assert.Equal(t, "Bought 3 x Apple, total 3.75\n", out)

	out = h.mustRun(t, "reserve", "Jacket", "2", "--pickup", "2026-03-12 10:00")
	assert.Contains(t, out, "Reserved 2 x Jacket for pickup at 2026-03-12 10:00")

	out = h.mustRun(t, "list")
	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, appleCode)
	assert.Contains(t, out, "2026-03-15")
	assert.Contains(t, out, "reserved")
	assert.Regexp(t, `Apple\s+1\.25\s+7\s+Fresh`, out)
	assert.Regexp(t, `Jacket\s+59\.90\s+5\s`, out)

	out = h.mustRun(t, "list", "--type", "food")
	assert.Contains(t, out, "Apple")
	assert.NotContains(t, out, "Jacket")
}

func TestManagerOnlyCommandsAreGated(t *testing.T) {
	h := newYAMLHarness(t)
	h.now = noon

	_, _, err := h.run(t, "add", "electronic", "--name", "Laptop", "--price", "899.99",
		"--quantity", "2", "--warranty-date", "2028-01-01")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotPermitted), "got %v", err)

	out := h.mustRun(t, "list")
	assert.Equal(t, "No products in the warehouse\n", out)
}

func TestUpdateDiscountAndDelete(t *testing.T) {
	h := newYAMLHarness(t)
	code := barCodeFrom(t, h.mustRun(t, "add", "electronic", "--name", "Laptop", "--price", "900",
		"--quantity", "2", "--warranty-date", "2028-01-01"))

	out := h.mustRun(t, "update", code, "--price", "1000", "--add", "3")
	assert.Equal(t, "Updated Laptop: price 1000.00, quantity 5\n", out)

	out = h.mustRun(t, "discount", code, "15")
	assert.Equal(t, "Price changed from 1000.00 to 850.00\n", out)

	h.now = noon
	h.mustRun(t, "reserve", "Laptop", "1", "--pickup", "2026-03-12T09:00:00Z")

	h.now = night.AddDate(0, 0, 1)
	_, stderr, err := h.run(t, "delete", code)
	require.NoError(t, err)
	assert.Contains(t, stderr, "1 reserved unit(s) still refer to "+code)

	_, _, err = h.run(t, "delete", code)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestRemoveExpired(t *testing.T) {
	h := newYAMLHarness(t)
	h.mustRun(t, "add", "food", "--name", "Milk", "--price", "0.99", "--quantity", "4",
		"--expiration-date", "2026-03-12")

	out := h.mustRun(t, "remove-expired")
	assert.Equal(t, "No expired food to remove\n", out)

	out = h.mustRun(t, "remove-expired", "--as-of", "2026-03-13")
	assert.Contains(t, out, "Removed 1 expired food:")
	assert.Contains(t, out, "Milk (4 pcs, exp: 2026-03-12)")

	out = h.mustRun(t, "remove-out-of-warranty")
	assert.Equal(t, "No electronics out of warranty to remove\n", out)
}

func TestCancelRestoresStock(t *testing.T) {
	h := newYAMLHarness(t)
	h.mustRun(t, "add", "clothing", "--name", "Scarf", "--price", "12", "--quantity", "3",
		"--size", "M", "--color", "Red")

	out := h.mustRun(t, "reserve", "Scarf", "3", "--pickup", "2026-03-11 18:00")
	id := barCodeFrom(t, strings.TrimSuffix(strings.TrimSpace(out), ")"))

	out = h.mustRun(t, "cancel", id)
	assert.Equal(t, "Canceled reservation of 3 x Scarf\n", out)
	assert.Regexp(t, `Scarf\s+12\.00\s+3\s`, h.mustRun(t, "list"))
}

func TestInputValidation(t *testing.T) {
	h := newYAMLHarness(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "bad price", args: []string{"add", "food", "--name", "Apple", "--price", "abc", "--expiration-date", "2026-03-15"}},
		{name: "bad date", args: []string{"add", "food", "--name", "Apple", "--price", "1", "--expiration-date", "15/03/2026"}},
		{name: "bad quantity", args: []string{"buy", "Apple", "three"}},
		{name: "bad pickup", args: []string{"reserve", "Apple", "1", "--pickup", "tomorrow"}},
		{name: "bad type", args: []string{"list", "--type", "furniture"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := h.run(t, tc.args...)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err), "got %v", err)
		})
	}

	_, _, err := h.run(t, "add", "clothing", "--name", "Hat", "--price", "5")
	assert.ErrorContains(t, err, "required flag")
}

func TestUnreadableStoreIsNotOverwritten(t *testing.T) {
	h := newYAMLHarness(t)
	corrupt := []byte("entries: [oops")
	require.NoError(t, os.WriteFile(h.cfg.Storage.EntriesPath, corrupt, 0o644))

	_, stderr, err := h.run(t, "add", "clothing", "--name", "Hat", "--price", "5", "--size", "S", "--color", "Blue")
	require.NoError(t, err)
	assert.Contains(t, stderr, "could not load stored data")
	assert.Contains(t, stderr, "changes were not saved")

	data, err := os.ReadFile(h.cfg.Storage.EntriesPath)
	require.NoError(t, err)
	assert.Equal(t, corrupt, data)
}

func TestSQLiteDriver(t *testing.T) {
	h := newYAMLHarness(t)
	h.cfg.Storage = config.StorageConfig{
		Driver:      config.StorageDriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "warehouse.db"),
		AutoMigrate: true,
	}

	code := barCodeFrom(t, h.mustRun(t, "add", "food", "--name", "Bread", "--price", "2.10",
		"--quantity", "6", "--expiration-date", "2026-03-14"))

	h.now = noon
	assert.Equal(t, "Bought 2 x Bread, total 4.20\n", h.mustRun(t, "buy", "Bread", "2"))

	out := h.mustRun(t, "list")
	assert.Contains(t, out, code)
	assert.Regexp(t, `Bread\s+2\.10\s+4\s`, out)
}

func holdStoreLock(t *testing.T, cfg *config.Config) *cron.FileLock {
	t.Helper()
	lock, err := cron.NewFileLock(storage.LockPath(cfg.Storage), time.Hour)
	require.NoError(t, err)
	ok, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok, "lock should be free")
	return lock
}

func TestSessionFailsWhileStoreIsLocked(t *testing.T) {
	h := newYAMLHarness(t)
	h.lockWait = 50 * time.Millisecond
	h.mustRun(t, "add", "clothing", "--name", "Hat", "--price", "5", "--size", "S", "--color", "Blue")
	before, err := os.ReadFile(h.cfg.Storage.EntriesPath)
	require.NoError(t, err)

	holder := holdStoreLock(t, h.cfg)
	_, _, err = h.run(t, "buy", "Hat", "1")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStoreBusy), "got %v", err)

	after, err := os.ReadFile(h.cfg.Storage.EntriesPath)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a refused session must not touch the store")

	require.NoError(t, holder.Release(context.Background()))
	h.now = noon
	assert.Equal(t, "Bought 1 x Hat, total 5.00\n", h.mustRun(t, "buy", "Hat", "1"))

	_, err = os.Stat(storage.LockPath(h.cfg.Storage))
	assert.True(t, os.IsNotExist(err), "session must release the lock, stat err=%v", err)
}

func TestSweeperAndSessionsShareTheStoreLock(t *testing.T) {
	h := newYAMLHarness(t)
	h.lockWait = 50 * time.Millisecond
	h.mustRun(t, "add", "clothing", "--name", "Jacket", "--price", "59.90", "--quantity", "7",
		"--size", "L", "--color", "Black")
	h.now = noon
	h.mustRun(t, "reserve", "Jacket", "2", "--pickup", "2026-03-12 10:00")

	ctx := context.Background()
	store, closeStore, err := storage.Open(ctx, h.cfg, logger.Nop())
	require.NoError(t, err)
	defer closeStore()

	// The sweep job reads the wall clock, which is past the pickup above, so
	// an unlocked cycle drops the reservation.
	job, err := cron.NewExpirySweepJob(cron.ExpirySweepJobParams{Logger: logger.Nop(), Store: store, Window: gate.Default()})
	require.NoError(t, err)
	sweeperLock, err := cron.NewFileLock(storage.LockPath(h.cfg.Storage), time.Hour)
	require.NoError(t, err)
	sweeper, err := cron.NewService(cron.ServiceParams{
		Logger:   logger.Nop(),
		Registry: cron.NewRegistry(job),
		Lock:     sweeperLock,
	})
	require.NoError(t, err)

	session := holdStoreLock(t, h.cfg)
	require.NoError(t, sweeper.RunOnce(ctx))
	reservations, err := store.LoadReservations(ctx)
	require.NoError(t, err)
	assert.Len(t, reservations, 1, "sweeper must skip while a session holds the store")

	require.NoError(t, session.Release(ctx))
	require.NoError(t, sweeper.RunOnce(ctx))
	reservations, err = store.LoadReservations(ctx)
	require.NoError(t, err)
	assert.Empty(t, reservations)

	out := h.mustRun(t, "list")
	assert.NotContains(t, out, "reserved")
	assert.Regexp(t, `Jacket\s+59\.90\s+5\s`, out)
}

func TestPickupIsListedInSessionZone(t *testing.T) {
	zone := time.FixedZone("UTC+3", 3*60*60)

	drivers := map[string]func(h *harness, dir string){
		"yaml": func(*harness, string) {},
		"sqlite": func(h *harness, dir string) {
			h.cfg.Storage = config.StorageConfig{
				Driver:      config.StorageDriverSQLite,
				SQLitePath:  filepath.Join(dir, "warehouse.db"),
				AutoMigrate: true,
			}
		},
	}
	for name, configure := range drivers {
		t.Run(name, func(t *testing.T) {
			h := newYAMLHarness(t)
			configure(h, t.TempDir())
			h.now = time.Date(2026, 3, 10, 23, 30, 0, 0, zone)

			h.mustRun(t, "add", "clothing", "--name", "Scarf", "--price", "12", "--quantity", "3",
				"--size", "M", "--color", "Red")
			out := h.mustRun(t, "reserve", "Scarf", "1", "--pickup", "2026-03-11 10:00")
			assert.Contains(t, out, "for pickup at 2026-03-11 10:00")

			out = h.mustRun(t, "list")
			assert.Contains(t, out, "2026-03-11 10:00")
			assert.NotContains(t, out, "2026-03-11 07:00")
		})
	}
}

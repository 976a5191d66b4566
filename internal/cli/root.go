// Package cli implements the warehouse command line. Every invocation is one
// session: load the ledger, run a single operation, save the ledger.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/angelmondragon/warehouse-backend/internal/cron"
	"github.com/angelmondragon/warehouse-backend/internal/gate"
	"github.com/angelmondragon/warehouse-backend/internal/storage"
	"github.com/angelmondragon/warehouse-backend/internal/warehouse"
	"github.com/angelmondragon/warehouse-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/warehouse-backend/pkg/errors"
	"github.com/angelmondragon/warehouse-backend/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

const (
	serviceName = "warehouse"

	defaultLockWait  = 5 * time.Second
	lockPollInterval = 100 * time.Millisecond
)

// Options configure the root command. Zero values fall back to the process
// environment, stdout/stderr and the wall clock.
type Options struct {
	Config *config.Config
	Logger *logger.Logger
	Out    io.Writer
	Err    io.Writer
	Now    func() time.Time
	// LockWait bounds how long a session waits for another process, such as
	// the sweeper, to release the store.
	LockWait time.Duration
}

type app struct {
	cfg      *config.Config
	logg     *logger.Logger
	out      io.Writer
	err      io.Writer
	now      func() time.Time
	lockWait time.Duration
}

// NewRootCommand wires every warehouse subcommand.
func NewRootCommand(opts Options) *cobra.Command {
	a := &app{
		cfg:      opts.Config,
		logg:     opts.Logger,
		out:      opts.Out,
		err:      opts.Err,
		now:      opts.Now,
		lockWait: opts.LockWait,
	}
	if a.out == nil {
		a.out = os.Stdout
	}
	if a.err == nil {
		a.err = os.Stderr
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.lockWait <= 0 {
		a.lockWait = defaultLockWait
	}

	root := &cobra.Command{
		Use:   "warehouse",
		Short: "Manage warehouse stock, discounts and reservations",
		Long: `warehouse manages food, electronic and clothing stock.

Catalog changes (add, update, delete, discount and the expiry sweeps) are
only permitted during manager hours, 23:00 to 06:00 by default. Reserving
and buying are always available.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return a.bootstrap() },
	}
	root.SetOut(a.out)
	root.SetErr(a.err)

	root.AddCommand(
		a.addCmd(),
		a.updateCmd(),
		a.removeExpiredCmd(),
		a.removeOutOfWarrantyCmd(),
		a.deleteCmd(),
		a.discountCmd(),
		a.reserveCmd(),
		a.buyCmd(),
		a.cancelCmd(),
		a.listCmd(),
	)
	return root
}

func (a *app) bootstrap() error {
	if a.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.logg == nil {
		a.logg = logger.New(logger.Options{
			ServiceName: serviceName,
			Level:       logger.ParseLevel(a.cfg.App.LogLevel),
			WarnStack:   a.cfg.App.LogWarnStack,
			Format:      a.cfg.App.LogFormat,
			Output:      a.err,
		})
	}
	return nil
}

// session runs op between a load and a save of the configured store while
// holding the store lock, so a concurrent sweeper cannot interleave its own
// load and save. now is read once and shared by the gate and every
// time-dependent check in op.
func (a *app) session(ctx context.Context, op func(ctx context.Context, svc *warehouse.Service, now time.Time) error) (err error) {
	window, err := gate.ParseWindow(a.cfg.Gate.Start, a.cfg.Gate.End)
	if err != nil {
		return err
	}

	lock, err := a.lockStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, lock.Release(context.Background()))
	}()

	store, closeStore, err := storage.Open(ctx, a.cfg, a.logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, closeStore())
	}()

	svc, err := warehouse.NewService(warehouse.ServiceParams{Logger: a.logg, Store: store, Window: window})
	if err != nil {
		return err
	}

	loaded := true
	if openErr := svc.Open(ctx); openErr != nil {
		loaded = false
		fmt.Fprintf(a.err, "warning: could not load stored data, continuing with what was read: %v\n", openErr)
	}

	opErr := op(ctx, svc, a.now())

	if !loaded {
		fmt.Fprintln(a.err, "warning: changes were not saved because the stored data could not be read")
		return opErr
	}
	return multierr.Append(opErr, svc.Close(ctx))
}

// lockStore takes the lock shared with the sweeper, polling until lockWait
// runs out.
func (a *app) lockStore(ctx context.Context) (*cron.FileLock, error) {
	path := storage.LockPath(a.cfg.Storage)
	lock, err := cron.NewFileLock(path, 0)
	if err != nil {
		return nil, err
	}

	deadline := time.NewTimer(a.lockWait)
	defer deadline.Stop()
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := lock.Acquire(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "failed to lock the store")
		}
		if ok {
			return lock, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, pkgerrors.Newf(pkgerrors.CodeStoreBusy,
				"store is busy: another warehouse process holds %s", path).
				WithDetails(map[string]any{"lock": path, "waited": a.lockWait.String()})
		case <-ticker.C:
		}
	}
}

package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/warehouse-backend/internal/gate"
	"github.com/angelmondragon/warehouse-backend/internal/warehouse"
	"github.com/angelmondragon/warehouse-backend/pkg/enums"
	"github.com/angelmondragon/warehouse-backend/pkg/logger"
	"github.com/angelmondragon/warehouse-backend/pkg/metrics"
	"go.uber.org/multierr"
)

const reservationLabel = "reservation"

// ExpirySweepJobParams configures the scheduled expiry sweep.
type ExpirySweepJobParams struct {
	Logger  *logger.Logger
	Store   warehouse.Store
	Window  gate.Window
	Metrics *metrics.CronJobMetrics
}

// NewExpirySweepJob constructs the job that drops lapsed reservations and,
// inside manager hours, expired food and out-of-warranty electronics.
func NewExpirySweepJob(params ExpirySweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	return &expirySweepJob{
		logg:    params.Logger,
		store:   params.Store,
		window:  params.Window,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

type expirySweepJob struct {
	logg    *logger.Logger
	store   warehouse.Store
	window  gate.Window
	metrics *metrics.CronJobMetrics
	now     func() time.Time
}

func (j *expirySweepJob) Name() string { return "expiry-sweep" }

// Run loads the ledger, sweeps it and saves it back. State is not saved when
// loading fails, so a broken store is never overwritten with an empty ledger.
func (j *expirySweepJob) Run(ctx context.Context) error {
	session, err := warehouse.NewService(warehouse.ServiceParams{
		Logger: j.logg,
		Store:  j.store,
		Window: j.window,
	})
	if err != nil {
		return err
	}
	if err := session.Open(ctx); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	now := j.now()
	var errs error

	expired := session.SweepExpiredReservations(ctx, now)
	j.metrics.AddRemoved(j.Name(), reservationLabel, len(expired))

	if j.window.Permits(now) {
		food, err := session.RemoveExpiredFood(ctx, now, now)
		errs = multierr.Append(errs, err)
		j.metrics.AddRemoved(j.Name(), string(enums.ProductKindFood), len(food))

		electronics, err := session.RemoveOutOfWarrantyElectronics(ctx, now, now)
		errs = multierr.Append(errs, err)
		j.metrics.AddRemoved(j.Name(), string(enums.ProductKindElectronic), len(electronics))
	} else {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"window":       j.window.String(),
			"current_time": now.Format("15:04:05"),
		})
		j.logg.Info(logCtx, "outside manager hours; skipping catalog sweeps")
	}

	errs = multierr.Append(errs, session.Close(ctx))
	return errs
}

package jobs

import (
	"context"
	"time"

	"tracking/internal/core/domain/model/order"
	"tracking/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	orderStatsJobName = "order_stats"

	// DefaultOrderStatsSchedule runs the job every thirty seconds.
	DefaultOrderStatsSchedule = "*/30 * * * * *"

	orderStatsTimeout = 10 * time.Second
)

// OrderCounter is the slice of the order repository the stats job reads.
type OrderCounter interface {
	CountByStatus(ctx context.Context) (map[order.Status]int64, error)
}

var trackedStatuses = []order.Status{order.Available, order.Confirmed, order.Delivered, order.Cancelled}

// OrderStatsJob periodically exports the number of orders per status.
type OrderStatsJob struct {
	counter  OrderCounter
	metrics  *metrics.JobMetrics
	schedule string
	cron     *cron.Cron
	logger   zerolog.Logger
}

func NewOrderStatsJob(counter OrderCounter, m *metrics.JobMetrics, schedule string, logger zerolog.Logger) *OrderStatsJob {
	if schedule == "" {
		schedule = DefaultOrderStatsSchedule
	}
	return &OrderStatsJob{
		counter:  counter,
		metrics:  m,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With().Str("component", "order_stats_job").Logger(),
	}
}

// Start registers the job on its schedule and starts the scheduler.
func (j *OrderStatsJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { _ = j.Run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info().Str("schedule", j.schedule).Msg("order stats job started")
	return nil
}

// Run counts orders once and updates the gauges. Statuses with no orders
// are reported as zero.
func (j *OrderStatsJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, orderStatsTimeout)
	defer cancel()

	started := time.Now()
	counts, err := j.counter.CountByStatus(ctx)
	j.metrics.ObserveDuration(orderStatsJobName, time.Since(started))
	if err != nil {
		j.metrics.IncFailure(orderStatsJobName)
		j.logger.Error().Err(err).Msg("order stats job failed")
		return err
	}

	for _, status := range trackedStatuses {
		j.metrics.SetOrders(status.String(), counts[status])
	}
	j.metrics.IncSuccess(orderStatsJobName)
	return nil
}

// Stop stops the scheduler and waits for a running count to finish.
func (j *OrderStatsJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info().Msg("order stats job stopped")
}

// Package jobs provides scheduled background tasks for the tracking service.
//
// Jobs are built on github.com/robfig/cron/v3 with second-level schedules.
//
// # Available Jobs
//
// OrderStatsJob counts stored orders per status and exports them as the
// tracking_orders_by_status gauge. Each run also records its duration and
// outcome in the job metrics.
//
// # Usage
//
//	manager := jobs.NewJobManager(logger)
//	manager.Add("order_stats", jobs.NewOrderStatsJob(repo, jobMetrics, "*/30 * * * * *", logger))
//
//	if err := manager.StartAll(); err != nil {
//		return err
//	}
//	defer manager.StopAll()
//
// # Error Handling
//
// A failed run is logged and counted; the next scheduled run retries.
// A job that fails to start stops the ones already started.
package jobs

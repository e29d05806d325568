// Package schedule runs the archival job on a cron expression.
//
// The Scheduler wraps github.com/robfig/cron/v3. Every tick fires a Trigger;
// ticks that arrive while the previous run is still executing are skipped, so
// at most one scheduled run is active at a time. JobTrigger adapts a run
// controller into a Trigger.
//
//	trigger := schedule.JobTrigger(controller, config.CurrentRequest)
//	scheduler := schedule.NewScheduler(trigger)
//	if err := scheduler.Start(ctx, cfg.Job.Schedule); err != nil {
//	    return err
//	}
//	defer scheduler.Stop()
package schedule

// Package work implements the background work processor that executes
// queued synthesis runs and the service's housekeeping.
//
// # Work Type Architecture
//
// The processor executes work items based on:
//   - Event triggers (run submission wakes the processor immediately)
//   - Intervals (minimum time between completed executions)
//   - Priority (queued runs beat housekeeping for free slots)
//
// Work items run on a bounded set of slots sized from the
// max_concurrent_runs setting, so long optimizations never starve the
// API and housekeeping still gets a slot between runs.
//
// # Interval Design Philosophy
//
// Work type intervals are operationally tuned and hardcoded:
//
//   - runs:execute: on-demand - queued runs are picked up as soon as a slot frees
//   - cache:prune: 1 hour - expired cache rows and week-old rendered plots are cheap to regenerate
//   - db:checkpoint: 6 hours - keeps the WAL files small without interrupting writers
//   - runs:cleanup: 24 hours - a daily retention sweep is enough for a lab service
//
// Only the retention window itself (retention_days) is configurable,
// because how long finished runs are worth keeping depends on the
// experiment, not on the service.
//
// # Failure Handling
//
// Failed items re-enter a retry queue until their attempt limit is
// reached. runs:execute is the exception: a run that failed would fail
// identically on a retry with the same seed, so it gets a single attempt
// and the failure lives on the run record instead.
package work

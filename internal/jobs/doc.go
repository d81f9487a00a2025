// Package jobs implements background processing for the Pausemo engine.
//
// The jobs in this package run independently of HTTP request handling:
//
//   - EfficiencyWorker: recomputes card effectiveness after responses
//   - StreakResetJob: daily streak and todayResponded maintenance
//   - SessionSweeper: expires idle sessions
//
// Every job follows the same lifecycle:
//
//	job.Start()
//	defer job.Stop()
//
// RunOnce performs a single pass synchronously, for tests and the admin CLI.
//
// # Error Handling
//
// Jobs log errors but never crash the application. The efficiency worker
// retries a failed card with exponential backoff before giving up on it.
package jobs

// Package services defines shared utilities consumed by the pipeline stage
// handlers and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session identifiers, stage names, attempt
//     numbers, and correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     for the orchestrator and the HTTP layer (validation vs dependency vs
//     transient failures).
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services

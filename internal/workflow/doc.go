// Package workflow orchestrates generation jobs. The manager runs the three
// pipeline stages for one session in order, persists progress and stage
// results through the session store, maintains worker heartbeats, and sweeps
// expired or abandoned sessions in the background.
package workflow

// Package session persists generation sessions in SQLite and exposes helpers
// for driving their lifecycle.
//
// The Store manages database connections, schema initialization, the
// per-session asset ceiling, attempt bookkeeping, heartbeat tracking, and TTL
// expiry. Sessions capture progress, stage artifacts, and failure details so
// the orchestrator and the HTTP API can coordinate without additional state.
//
// The database is treated as transient storage for in-flight work rather than
// a long-term archive. Schema changes bump the version in schema.go; users
// delete the database to adopt the new schema.
//
// Treat this package as the single source of truth for session semantics; when
// you add new statuses or fields, update schema.sql and bump schemaVersion.
package session

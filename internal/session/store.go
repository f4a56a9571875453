package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"slidecast/internal/config"
)

// Store manages session persistence backed by SQLite.
type Store struct {
	db        *sql.DB
	path      string
	maxAssets int
	ttl       time.Duration
}

// Open initializes or connects to the session database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "sessions.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:        db,
		path:      dbPath,
		maxAssets: cfg.Workflow.MaxAssets,
		ttl:       time.Duration(cfg.Workflow.SessionTTLHours) * time.Hour,
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// MaxAssets returns the per-session asset ceiling the store enforces.
func (s *Store) MaxAssets() int {
	return s.maxAssets
}

// CreateSession inserts a new empty session awaiting uploads.
func (s *Store) CreateSession(ctx context.Context) (*Session, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (
            id, status, attempt, created_at, updated_at, expires_at, progress_percent
        ) VALUES (?, ?, 0, ?, ?, ?, 0)`,
		id,
		StatusPending,
		timestamp,
		timestamp,
		now.Add(s.ttl).Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return s.GetSession(ctx, id)
}

// GetSession fetches a session by identifier. Missing sessions yield ErrNotFound.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions s WHERE s.id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// AddAssets stores validated uploads for a session, enforcing the asset
// ceiling. It returns how many of the provided assets were accepted; when the
// batch only partially fits the accepted prefix is stored and ErrCapacity is
// returned alongside the count.
func (s *Store) AddAssets(ctx context.Context, sessionID string, assets []Asset) (int, error) {
	if len(assets) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing int
	row := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM assets WHERE session_id = ?`, sessionID)
	if err := row.Scan(&existing); err != nil {
		return 0, fmt.Errorf("count assets: %w", err)
	}

	var status string
	row = tx.QueryRowContext(ctx, `SELECT status FROM sessions WHERE id = ?`, sessionID)
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("check session: %w", err)
	}

	room := s.maxAssets - existing
	if room <= 0 {
		return 0, ErrCapacity
	}
	accepted := len(assets)
	if accepted > room {
		accepted = room
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for i := 0; i < accepted; i++ {
		asset := assets[i]
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO assets (
                session_id, position, file_name, original_name, path, mime_type, size_bytes, created_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sessionID,
			existing+i,
			asset.FileName,
			nullableString(asset.OriginalName),
			asset.Path,
			asset.MIMEType,
			asset.SizeBytes,
			now,
		)
		if err != nil {
			return 0, fmt.Errorf("insert asset: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, now, sessionID); err != nil {
		return 0, fmt.Errorf("touch session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit assets: %w", err)
	}

	if accepted < len(assets) {
		return accepted, ErrCapacity
	}
	return accepted, nil
}

// Assets returns a session's stored uploads in slide order.
func (s *Store) Assets(ctx context.Context, sessionID string) ([]Asset, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, session_id, position, file_name, original_name, path, mime_type, size_bytes, created_at
         FROM assets WHERE session_id = ? ORDER BY position`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var (
			asset        Asset
			originalName sql.NullString
			createdRaw   sql.NullString
		)
		if err := rows.Scan(
			&asset.ID,
			&asset.SessionID,
			&asset.Position,
			&asset.FileName,
			&originalName,
			&asset.Path,
			&asset.MIMEType,
			&asset.SizeBytes,
			&createdRaw,
		); err != nil {
			return nil, err
		}
		asset.OriginalName = originalName.String
		if created, err := parseTimeString(createdRaw.String); err == nil {
			asset.CreatedAt = created
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// Update persists changes to an existing session.
func (s *Store) Update(ctx context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("session is nil")
	}
	sess.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE sessions
         SET status = ?, attempt = ?, transition = ?, slide = ?, script_file = ?,
             audio_dir = ?, video_file = ?, error_message = ?, updated_at = ?,
             expires_at = ?, progress_stage = ?, progress_percent = ?,
             progress_message = ?, last_heartbeat = ?
         WHERE id = ?`,
		sess.Status,
		sess.Attempt,
		sess.Transition,
		nullableString(sess.Slide),
		nullableString(sess.ScriptFile),
		nullableString(sess.AudioDir),
		nullableString(sess.VideoFile),
		nullableString(sess.ErrorMessage),
		sess.UpdatedAt.Format(time.RFC3339Nano),
		sess.ExpiresAt.UTC().Format(time.RFC3339Nano),
		nullableString(sess.ProgressStage),
		sess.ProgressPercent,
		nullableString(sess.ProgressMessage),
		nullableTime(sess.LastHeartbeat),
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// BeginAttempt atomically starts a new generation attempt. It fails with
// ErrGenerationActive while a stage is in flight, ErrNoAssets when the session
// has no uploads, and ErrNotFound for unknown sessions. On success the session
// is reset to pending with the attempt counter bumped and the requested
// transition and slide style recorded.
func (s *Store) BeginAttempt(ctx context.Context, id string, transition float64, slide string) (*Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		statusStr  string
		attempt    int64
		assetCount int
	)
	row := tx.QueryRowContext(
		ctx,
		`SELECT status, attempt, (SELECT COUNT(1) FROM assets WHERE session_id = sessions.id)
         FROM sessions WHERE id = ?`,
		id,
	)
	if err := row.Scan(&statusStr, &attempt, &assetCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("check session: %w", err)
	}

	if IsProcessingStatus(Status(statusStr)) {
		return nil, ErrGenerationActive
	}
	if assetCount == 0 {
		return nil, ErrNoAssets
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(
		ctx,
		`UPDATE sessions
         SET status = ?, attempt = ?, transition = ?, slide = ?,
             script_file = NULL, audio_dir = NULL, video_file = NULL,
             error_message = NULL, progress_stage = NULL, progress_percent = 0,
             progress_message = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE id = ?`,
		StatusPending,
		attempt+1,
		transition,
		nullableString(slide),
		now,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("begin attempt: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit attempt: %w", err)
	}

	return s.GetSession(ctx, id)
}

// SetStageResult records the artifact produced by a completed stage.
func (s *Store) SetStageResult(ctx context.Context, result StageResult) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO stage_results (session_id, attempt, stage, artifact_path, detail, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		result.SessionID,
		result.Attempt,
		result.Stage,
		result.ArtifactPath,
		nullableString(result.Detail),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert stage result: %w", err)
	}
	return nil
}

// StageResults returns the recorded artifacts for one attempt in execution order.
func (s *Store) StageResults(ctx context.Context, sessionID string, attempt int64) ([]StageResult, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, session_id, attempt, stage, artifact_path, detail, created_at
         FROM stage_results WHERE session_id = ? AND attempt = ? ORDER BY id`,
		sessionID,
		attempt,
	)
	if err != nil {
		return nil, fmt.Errorf("query stage results: %w", err)
	}
	defer rows.Close()

	var results []StageResult
	for rows.Next() {
		var (
			result     StageResult
			stageStr   string
			detail     sql.NullString
			createdRaw sql.NullString
		)
		if err := rows.Scan(&result.ID, &result.SessionID, &result.Attempt, &stageStr, &result.ArtifactPath, &detail, &createdRaw); err != nil {
			return nil, err
		}
		result.Stage = Stage(stageStr)
		result.Detail = detail.String
		if created, err := parseTimeString(createdRaw.String); err == nil {
			result.CreatedAt = created
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// List returns sessions filtered by status set (or all sessions when no status
// is provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Session, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + sessionColumns + ` FROM sessions s`
	orderClause := ` ORDER BY s.created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE s.status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight session.
func (s *Store) UpdateHeartbeat(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE sessions SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now,
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStaleRunning fails in-flight sessions whose heartbeats expired before
// the cutoff. A lost heartbeat means the worker died mid-stage; clients retry
// with a new generate request.
func (s *Store) ReclaimStaleRunning(ctx context.Context, cutoff time.Time) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE sessions
        SET status = ?, error_message = ?, progress_stage = 'Failed',
            progress_percent = 0, progress_message = ?, last_heartbeat = NULL, updated_at = ?
        WHERE status IN (?, ?, ?) AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		StatusFailed,
		HeartbeatLostReason,
		HeartbeatLostReason,
		now,
		StatusScripting,
		StatusVoicing,
		StatusRendering,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale sessions: %w", err)
	}
	return res.RowsAffected()
}

// FailRunning fails all in-flight sessions with the given reason. Used on
// daemon shutdown so clients are not left polling a dead job.
func (s *Store) FailRunning(ctx context.Context, reason string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE sessions
        SET status = ?, error_message = ?, progress_stage = 'Failed',
            progress_percent = 0, progress_message = ?, last_heartbeat = NULL, updated_at = ?
        WHERE status IN (?, ?, ?)`,
		StatusFailed,
		reason,
		reason,
		now,
		StatusScripting,
		StatusVoicing,
		StatusRendering,
	)
	if err != nil {
		return 0, fmt.Errorf("fail running sessions: %w", err)
	}
	return res.RowsAffected()
}

// ExpiredSession identifies a session removed by TTL expiry along with the
// rendered artifact the caller must delete from disk.
type ExpiredSession struct {
	ID        string
	VideoFile string
}

// ExpireBefore removes sessions whose TTL elapsed before the cutoff. In-flight
// sessions are skipped. The deleted records are returned so callers can remove
// on-disk artifacts, including videos living outside the session directory.
func (s *Store) ExpireBefore(ctx context.Context, cutoff time.Time) ([]ExpiredSession, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cutoffStr := cutoff.UTC().Format(time.RFC3339Nano)
	rows, err := tx.QueryContext(
		ctx,
		`SELECT id, video_file FROM sessions WHERE expires_at < ? AND status NOT IN (?, ?, ?)`,
		cutoffStr,
		StatusScripting,
		StatusVoicing,
		StatusRendering,
	)
	if err != nil {
		return nil, fmt.Errorf("query expired sessions: %w", err)
	}

	var expired []ExpiredSession
	for rows.Next() {
		var id string
		var videoFile sql.NullString
		if err := rows.Scan(&id, &videoFile); err != nil {
			rows.Close()
			return nil, err
		}
		expired = append(expired, ExpiredSession{ID: id, VideoFile: videoFile.String})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(expired) == 0 {
		return nil, tx.Commit()
	}

	placeholders := makePlaceholders(len(expired))
	args := make([]any, len(expired))
	for i, record := range expired {
		args[i] = record.ID
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return nil, fmt.Errorf("delete expired sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit expiry: %w", err)
	}
	return expired, nil
}

// DeleteSession deletes a session and its assets by identifier.
func (s *Store) DeleteSession(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns a count of sessions grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM sessions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates session state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusFailed:
			health.Failed += count
		case StatusCompleted:
			health.Completed += count
		default:
			if _, ok := processingStatuses[status]; ok {
				health.Processing += count
			}
		}
	}
	return health, nil
}

// CheckHealth returns diagnostic information about the session database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("session database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat session database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("session database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("session database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping session database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'sessions'")
	if err := row.Scan(&tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			health.TableExists = false
		} else {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM sessions")
		if err := row.Scan(&health.TotalSessions); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count sessions: %w", err)
		}
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

const sessionColumns = "s.id, s.status, s.attempt, s.transition, s.slide, s.script_file, s.audio_dir, s.video_file, s.error_message, s.created_at, s.updated_at, s.expires_at, s.progress_stage, s.progress_percent, s.progress_message, s.last_heartbeat, (SELECT COUNT(1) FROM assets a WHERE a.session_id = s.id)"

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		id               string
		statusStr        string
		attempt          int64
		transition       sql.NullFloat64
		slide            sql.NullString
		scriptFile       sql.NullString
		audioDir         sql.NullString
		videoFile        sql.NullString
		errorMessage     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		expiresRaw       sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		lastHeartbeatRaw sql.NullString
		assetCount       int
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&attempt,
		&transition,
		&slide,
		&scriptFile,
		&audioDir,
		&videoFile,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&expiresRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&lastHeartbeatRaw,
		&assetCount,
	); err != nil {
		return nil, err
	}

	sess := &Session{
		ID:              id,
		Status:          Status(statusStr),
		Attempt:         attempt,
		Transition:      transition.Float64,
		Slide:           slide.String,
		ScriptFile:      scriptFile.String,
		AudioDir:        audioDir.String,
		VideoFile:       videoFile.String,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
		AssetCount:      assetCount,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		sess.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		sess.UpdatedAt = updated
	}
	if expires, err := parseTimeString(expiresRaw.String); err == nil {
		sess.ExpiresAt = expires
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			sess.LastHeartbeat = &heartbeat
		}
	}
	return sess, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

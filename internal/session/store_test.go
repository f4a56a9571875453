package session_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"slidecast/internal/session"
	"slidecast/internal/testsupport"
)

func TestOpenInitializesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	sess, err := store.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("expected session ID to be assigned")
	}
	if sess.Status != session.StatusPending {
		t.Fatalf("expected pending status, got %s", sess.Status)
	}
	if sess.Attempt != 0 {
		t.Fatalf("expected attempt 0, got %d", sess.Attempt)
	}
	if !sess.ExpiresAt.After(sess.CreatedAt) {
		t.Fatal("expected expiry after creation")
	}

	fetched, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if fetched.ID != sess.ID {
		t.Fatalf("unexpected fetched session: %#v", fetched)
	}
}

func TestGetSessionMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := store.GetSession(context.Background(), "no-such-session")
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddAssetsEnforcesCeiling(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxAssets(5))
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	sess := testsupport.NewSession(t, store)

	batch := func(n int, prefix string) []session.Asset {
		assets := make([]session.Asset, 0, n)
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("%s-%d.jpg", prefix, i)
			assets = append(assets, session.Asset{
				FileName: name,
				Path:     "/tmp/" + name,
				MIMEType: "image/jpeg",
			})
		}
		return assets
	}

	accepted, err := store.AddAssets(ctx, sess.ID, batch(3, "first"))
	if err != nil {
		t.Fatalf("AddAssets failed: %v", err)
	}
	if accepted != 3 {
		t.Fatalf("expected 3 accepted, got %d", accepted)
	}

	// Second batch only partially fits.
	accepted, err = store.AddAssets(ctx, sess.ID, batch(4, "second"))
	if !errors.Is(err, session.ErrCapacity) {
		t.Fatalf("expected ErrCapacity, got %v", err)
	}
	if accepted != 2 {
		t.Fatalf("expected 2 accepted from overflow batch, got %d", accepted)
	}

	// Ceiling reached: nothing more fits.
	accepted, err = store.AddAssets(ctx, sess.ID, batch(1, "third"))
	if !errors.Is(err, session.ErrCapacity) {
		t.Fatalf("expected ErrCapacity at ceiling, got %v", err)
	}
	if accepted != 0 {
		t.Fatalf("expected 0 accepted at ceiling, got %d", accepted)
	}

	assets, err := store.Assets(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Assets failed: %v", err)
	}
	if len(assets) != 5 {
		t.Fatalf("expected 5 stored assets, got %d", len(assets))
	}
	for i, asset := range assets {
		if asset.Position != i {
			t.Fatalf("expected contiguous positions, got %d at index %d", asset.Position, i)
		}
	}

	fetched, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if fetched.AssetCount != 5 {
		t.Fatalf("expected asset count 5, got %d", fetched.AssetCount)
	}
}

func TestAddAssetsUnknownSession(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := store.AddAssets(context.Background(), "missing", []session.Asset{{
		FileName: "a.jpg", Path: "/tmp/a.jpg", MIMEType: "image/jpeg",
	}})
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBeginAttemptGuards(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	sess := testsupport.NewSession(t, store)

	if _, err := store.BeginAttempt(ctx, sess.ID, 1.0, "left"); !errors.Is(err, session.ErrNoAssets) {
		t.Fatalf("expected ErrNoAssets before uploads, got %v", err)
	}

	testsupport.SeedAssets(t, store, sess.ID, 2)

	started, err := store.BeginAttempt(ctx, sess.ID, 1.5, "fade")
	if err != nil {
		t.Fatalf("BeginAttempt failed: %v", err)
	}
	if started.Attempt != 1 {
		t.Fatalf("expected attempt 1, got %d", started.Attempt)
	}
	if started.Transition != 1.5 || started.Slide != "fade" {
		t.Fatalf("expected request parameters recorded, got %v %q", started.Transition, started.Slide)
	}

	// Simulate a stage in flight: a second attempt must be refused.
	started.Status = session.StatusScripting
	if err := store.Update(ctx, started); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := store.BeginAttempt(ctx, sess.ID, 1.0, "left"); !errors.Is(err, session.ErrGenerationActive) {
		t.Fatalf("expected ErrGenerationActive, got %v", err)
	}

	// Completed sessions accept a fresh attempt.
	started.Status = session.StatusCompleted
	if err := store.Update(ctx, started); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	again, err := store.BeginAttempt(ctx, sess.ID, 0.5, "right")
	if err != nil {
		t.Fatalf("BeginAttempt after completion failed: %v", err)
	}
	if again.Attempt != 2 {
		t.Fatalf("expected attempt 2, got %d", again.Attempt)
	}
	if again.Status != session.StatusPending {
		t.Fatalf("expected pending after new attempt, got %s", again.Status)
	}
	if again.ErrorMessage != "" || again.VideoFile != "" {
		t.Fatalf("expected prior attempt outputs cleared, got %#v", again)
	}

	if _, err := store.BeginAttempt(ctx, "missing", 1.0, "left"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown session, got %v", err)
	}
}

func TestStageResultsPerAttempt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	sess := testsupport.NewSession(t, store)
	testsupport.SeedAssets(t, store, sess.ID, 1)

	started, err := store.BeginAttempt(ctx, sess.ID, 1.0, "left")
	if err != nil {
		t.Fatalf("BeginAttempt failed: %v", err)
	}

	for _, stage := range []session.Stage{session.StageScript, session.StageVoice} {
		err := store.SetStageResult(ctx, session.StageResult{
			SessionID:    sess.ID,
			Attempt:      started.Attempt,
			Stage:        stage,
			ArtifactPath: "/tmp/" + string(stage),
		})
		if err != nil {
			t.Fatalf("SetStageResult %s failed: %v", stage, err)
		}
	}

	results, err := store.StageResults(ctx, sess.ID, started.Attempt)
	if err != nil {
		t.Fatalf("StageResults failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Stage != session.StageScript || results[1].Stage != session.StageVoice {
		t.Fatalf("expected results in execution order, got %#v", results)
	}

	// Results from other attempts are invisible.
	other, err := store.StageResults(ctx, sess.ID, started.Attempt+1)
	if err != nil {
		t.Fatalf("StageResults failed: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no results for future attempt, got %d", len(other))
	}
}

func TestReclaimStaleRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	sess := testsupport.NewSession(t, store)
	testsupport.SeedAssets(t, store, sess.ID, 1)

	started, err := store.BeginAttempt(ctx, sess.ID, 1.0, "left")
	if err != nil {
		t.Fatalf("BeginAttempt failed: %v", err)
	}
	started.Status = session.StatusRendering
	stale := time.Now().Add(-10 * time.Minute)
	started.LastHeartbeat = &stale
	if err := store.Update(ctx, started); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.ReclaimStaleRunning(ctx, time.Now().Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStaleRunning failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 reclaimed session, got %d", count)
	}

	updated, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if updated.Status != session.StatusFailed {
		t.Fatalf("expected failed status, got %s", updated.Status)
	}
	if updated.ErrorMessage != session.HeartbeatLostReason {
		t.Fatalf("unexpected error message %q", updated.ErrorMessage)
	}
	if updated.LastHeartbeat != nil {
		t.Fatal("expected heartbeat cleared")
	}
}

func TestHeartbeatFreshSessionsSurvive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	sess := testsupport.NewSession(t, store)
	testsupport.SeedAssets(t, store, sess.ID, 1)

	started, err := store.BeginAttempt(ctx, sess.ID, 1.0, "left")
	if err != nil {
		t.Fatalf("BeginAttempt failed: %v", err)
	}
	started.Status = session.StatusScripting
	if err := store.Update(ctx, started); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := store.UpdateHeartbeat(ctx, sess.ID); err != nil {
		t.Fatalf("UpdateHeartbeat failed: %v", err)
	}

	count, err := store.ReclaimStaleRunning(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStaleRunning failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no reclaimed sessions, got %d", count)
	}
}

func TestExpireBeforeSkipsRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	expired := testsupport.NewSession(t, store)
	running := testsupport.NewSession(t, store)
	fresh := testsupport.NewSession(t, store)

	past := time.Now().Add(-time.Hour)
	for _, sess := range []*session.Session{expired, running} {
		fetched, err := store.GetSession(ctx, sess.ID)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		fetched.ExpiresAt = past
		if sess == running {
			fetched.Status = session.StatusVoicing
		} else {
			fetched.Status = session.StatusCompleted
			fetched.VideoFile = "/tmp/slidecast-test/" + sess.ID + ".mp4"
		}
		if err := store.Update(ctx, fetched); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	removed, err := store.ExpireBefore(ctx, time.Now())
	if err != nil {
		t.Fatalf("ExpireBefore failed: %v", err)
	}
	if len(removed) != 1 || removed[0].ID != expired.ID {
		t.Fatalf("expected only expired session removed, got %v", removed)
	}
	if removed[0].VideoFile != "/tmp/slidecast-test/"+expired.ID+".mp4" {
		t.Fatalf("expected expiry to report the video path, got %q", removed[0].VideoFile)
	}

	if _, err := store.GetSession(ctx, expired.ID); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected expired session gone, got %v", err)
	}
	if _, err := store.GetSession(ctx, running.ID); err != nil {
		t.Fatalf("expected running session kept: %v", err)
	}
	if _, err := store.GetSession(ctx, fresh.ID); err != nil {
		t.Fatalf("expected fresh session kept: %v", err)
	}
}

func TestFailRunningOnShutdown(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	sess := testsupport.NewSession(t, store)
	testsupport.SeedAssets(t, store, sess.ID, 1)
	started, err := store.BeginAttempt(ctx, sess.ID, 1.0, "left")
	if err != nil {
		t.Fatalf("BeginAttempt failed: %v", err)
	}
	started.Status = session.StatusVoicing
	if err := store.Update(ctx, started); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.FailRunning(ctx, session.DaemonStopReason)
	if err != nil {
		t.Fatalf("FailRunning failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 failed session, got %d", count)
	}
	updated, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if updated.Status != session.StatusFailed || updated.ErrorMessage != session.DaemonStopReason {
		t.Fatalf("unexpected session state: %#v", updated)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	sess := testsupport.NewSession(t, store)
	testsupport.SeedAssets(t, store, sess.ID, 3)

	removed, err := store.DeleteSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if !removed {
		t.Fatal("expected session removed")
	}
	assets, err := store.Assets(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Assets failed: %v", err)
	}
	if len(assets) != 0 {
		t.Fatalf("expected cascading delete of assets, got %d", len(assets))
	}

	removed, err = store.DeleteSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if removed {
		t.Fatal("expected second delete to be a no-op")
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for _, status := range []session.Status{session.StatusPending, session.StatusCompleted, session.StatusFailed, session.StatusRendering} {
		sess := testsupport.NewSession(t, store)
		fetched, err := store.GetSession(ctx, sess.ID)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		fetched.Status = status
		if err := store.Update(ctx, fetched); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 4 || health.Pending != 1 || health.Completed != 1 || health.Failed != 1 || health.Processing != 1 {
		t.Fatalf("unexpected health summary: %#v", health)
	}

	dbHealth, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !dbHealth.DatabaseExists || !dbHealth.DatabaseReadable || !dbHealth.TableExists || !dbHealth.IntegrityCheck {
		t.Fatalf("unexpected database health: %#v", dbHealth)
	}
	if dbHealth.TotalSessions != 4 {
		t.Fatalf("expected 4 sessions, got %d", dbHealth.TotalSessions)
	}
}

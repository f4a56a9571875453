package testsupport

import (
	"context"
	"fmt"
	"testing"

	"slidecast/internal/config"
	"slidecast/internal/session"
)

// MustOpenStore opens a session.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *session.Store {
	t.Helper()

	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSession creates a session for tests using the provided store.
func NewSession(t testing.TB, store *session.Store) *session.Session {
	t.Helper()

	sess, err := store.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("store.CreateSession: %v", err)
	}
	return sess
}

// SeedAssets stores n synthetic JPEG assets on the session.
func SeedAssets(t testing.TB, store *session.Store, sessionID string, n int) {
	t.Helper()

	assets := make([]session.Asset, 0, n)
	for i := 0; i < n; i++ {
		assets = append(assets, session.Asset{
			FileName:  sessionFileName(i),
			Path:      "/tmp/" + sessionID + "/" + sessionFileName(i),
			MIMEType:  "image/jpeg",
			SizeBytes: int64(len(JPEGFixture)),
		})
	}
	if _, err := store.AddAssets(context.Background(), sessionID, assets); err != nil {
		t.Fatalf("store.AddAssets: %v", err)
	}
}

func sessionFileName(i int) string {
	return fmt.Sprintf("%03d_slide.jpg", i)
}

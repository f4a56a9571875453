package api

import (
	"testing"

	"slidecast/internal/session"
)

func TestClientStatusMapping(t *testing.T) {
	cases := map[session.Status]string{
		session.StatusPending:   "pending",
		session.StatusScripting: "running",
		session.StatusScripted:  "running",
		session.StatusVoicing:   "running",
		session.StatusVoiced:    "running",
		session.StatusRendering: "running",
		session.StatusCompleted: "complete",
		session.StatusFailed:    "failed",
	}
	for status, want := range cases {
		if got := ClientStatus(status); got != want {
			t.Fatalf("ClientStatus(%s) = %q, want %q", status, got, want)
		}
	}
	if got := ClientStatus(""); got != "not_found" {
		t.Fatalf("ClientStatus(empty) = %q, want not_found", got)
	}
}

func TestVideoURL(t *testing.T) {
	if got := VideoURL("/var/lib/slidecast/output/slidecast_abc_1.mp4"); got != "/output/slidecast_abc_1.mp4" {
		t.Fatalf("VideoURL = %q", got)
	}
	if got := VideoURL(""); got != "" {
		t.Fatalf("VideoURL(empty) = %q, want empty", got)
	}
}

func TestFromSessionRunning(t *testing.T) {
	sess := &session.Session{
		ID:              "abc",
		Status:          session.StatusVoicing,
		Attempt:         1,
		ProgressStage:   "Voicing",
		ProgressMessage: "Narrating slide 1 of 2",
		ProgressPercent: 50,
	}
	results := []session.StageResult{
		{SessionID: "abc", Attempt: 1, Stage: session.StageScript, ArtifactPath: "/s/script.json"},
	}

	resp := FromSession(sess, results)
	if resp.Status != "running" || resp.SessionID != "abc" {
		t.Fatalf("unexpected response %#v", resp)
	}
	if len(resp.Stages) != 3 {
		t.Fatalf("expected 3 stage entries, got %d", len(resp.Stages))
	}
	if resp.Stages[0].Status != "complete" || resp.Stages[0].Artifact != "/s/script.json" {
		t.Fatalf("unexpected script stage %#v", resp.Stages[0])
	}
	if resp.Stages[1].Status != "running" {
		t.Fatalf("unexpected voice stage %#v", resp.Stages[1])
	}
	if resp.Stages[2].Status != "pending" {
		t.Fatalf("unexpected video stage %#v", resp.Stages[2])
	}
}

func TestFromSessionFailedNamesStage(t *testing.T) {
	sess := &session.Session{
		ID:           "abc",
		Status:       session.StatusFailed,
		Attempt:      2,
		ErrorMessage: "Speech synthesis failed",
	}
	results := []session.StageResult{
		{SessionID: "abc", Attempt: 2, Stage: session.StageScript, ArtifactPath: "/s/script.json"},
	}

	resp := FromSession(sess, results)
	if resp.Status != "failed" {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.FailedStage != "voice" {
		t.Fatalf("failed stage = %q, want voice", resp.FailedStage)
	}
	if resp.Stages[1].Status != "failed" || resp.Stages[1].Error == "" {
		t.Fatalf("unexpected voice stage %#v", resp.Stages[1])
	}
	if resp.Stages[2].Status != "pending" {
		t.Fatalf("unexpected video stage %#v", resp.Stages[2])
	}
}

func TestFromSessionCompleted(t *testing.T) {
	sess := &session.Session{
		ID:        "abc",
		Status:    session.StatusCompleted,
		VideoFile: "/out/slidecast_abc_1.mp4",
	}
	resp := FromSession(sess, []session.StageResult{
		{Stage: session.StageScript}, {Stage: session.StageVoice}, {Stage: session.StageVideo},
	})
	if resp.Status != "complete" {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.Progress != 100 {
		t.Fatalf("progress = %v, want 100", resp.Progress)
	}
	if resp.VideoURL != "/output/slidecast_abc_1.mp4" {
		t.Fatalf("video url = %q", resp.VideoURL)
	}
	for _, entry := range resp.Stages {
		if entry.Status != "complete" {
			t.Fatalf("expected all stages complete, got %#v", entry)
		}
	}
}

func TestNotFoundStatus(t *testing.T) {
	resp := NotFoundStatus("missing")
	if resp.Status != "not_found" || resp.SessionID != "missing" || resp.Progress != 0 {
		t.Fatalf("unexpected response %#v", resp)
	}
}

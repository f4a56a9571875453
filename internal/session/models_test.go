package session

import (
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	if status, ok := ParseStatus(" Rendering "); !ok || status != StatusRendering {
		t.Fatalf("unexpected parse result: %v %v", status, ok)
	}
	if _, ok := ParseStatus("bogus"); ok {
		t.Fatal("expected unknown status to fail")
	}
	if _, ok := ParseStatus(""); ok {
		t.Fatal("expected empty status to fail")
	}
}

func TestStageStatusMapping(t *testing.T) {
	cases := []struct {
		stage   Stage
		running Status
		done    Status
	}{
		{StageScript, StatusScripting, StatusScripted},
		{StageVoice, StatusVoicing, StatusVoiced},
		{StageVideo, StatusRendering, StatusCompleted},
	}
	for _, tc := range cases {
		if tc.stage.RunningStatus() != tc.running {
			t.Errorf("%s: unexpected running status %s", tc.stage, tc.stage.RunningStatus())
		}
		if tc.stage.DoneStatus() != tc.done {
			t.Errorf("%s: unexpected done status %s", tc.stage, tc.stage.DoneStatus())
		}
	}
}

func TestNextStageFollowsOrder(t *testing.T) {
	cases := []struct {
		status Status
		stage  Stage
		ok     bool
	}{
		{StatusPending, StageScript, true},
		{StatusScripted, StageVoice, true},
		{StatusVoiced, StageVideo, true},
		{StatusScripting, "", false},
		{StatusCompleted, "", false},
		{StatusFailed, "", false},
	}
	for _, tc := range cases {
		sess := Session{Status: tc.status}
		stage, ok := sess.NextStage()
		if ok != tc.ok || stage != tc.stage {
			t.Errorf("%s: got %q %v, want %q %v", tc.status, stage, ok, tc.stage, tc.ok)
		}
	}
}

func TestSetFailedClearsHeartbeat(t *testing.T) {
	hb := time.Now()
	sess := Session{Status: StatusVoicing, LastHeartbeat: &hb, ProgressPercent: 50}
	sess.SetFailed("speech synthesis failed")
	if sess.Status != StatusFailed {
		t.Fatalf("expected failed status, got %s", sess.Status)
	}
	if sess.LastHeartbeat != nil {
		t.Fatal("expected heartbeat cleared")
	}
	if sess.ErrorMessage != "speech synthesis failed" {
		t.Fatalf("unexpected error message %q", sess.ErrorMessage)
	}
}

func TestOverallPercent(t *testing.T) {
	cases := []struct {
		status  Status
		within  float64
		atLeast float64
		atMost  float64
	}{
		{StatusPending, 0, 0, 0},
		{StatusScripting, 50, 16, 17},
		{StatusScripted, 0, 33, 34},
		{StatusVoicing, 50, 49, 51},
		{StatusVoiced, 0, 66, 67},
		{StatusRendering, 50, 82, 84},
		{StatusCompleted, 0, 100, 100},
		{StatusFailed, 75, 0, 0},
	}
	for _, tc := range cases {
		sess := Session{Status: tc.status, ProgressPercent: tc.within}
		got := sess.OverallPercent()
		if got < tc.atLeast || got > tc.atMost {
			t.Errorf("%s: OverallPercent() = %v, want within [%v, %v]", tc.status, got, tc.atLeast, tc.atMost)
		}
	}
}

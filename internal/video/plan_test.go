package video

import (
	"strings"
	"testing"
)

func TestTransitionNameMapping(t *testing.T) {
	cases := map[string]string{
		"left":  "slideleft",
		"right": "slideright",
		"up":    "slideup",
		"down":  "slidedown",
		"fade":  "fade",
		" Left": "slideleft",
	}
	for style, want := range cases {
		got, ok := TransitionName(style)
		if !ok || got != want {
			t.Fatalf("TransitionName(%q) = %q, %v; want %q", style, got, ok, want)
		}
	}
	if _, ok := TransitionName("spin"); ok {
		t.Fatal("expected unknown style to be rejected")
	}
	if ValidStyle("diagonal") {
		t.Fatal("expected unknown style to be invalid")
	}
}

func TestPlanArgsInputsAndEncoder(t *testing.T) {
	plan := Plan{
		Slides: []Slide{
			{ImagePath: "/s/000_a.jpg", AudioPath: "/s/audio/000.mp3", Duration: 2},
			{ImagePath: "/s/001_b.jpg", AudioPath: "/s/audio/001.mp3", Duration: 3},
		},
		Style:      "left",
		Transition: 1,
		Width:      1280,
		Height:     720,
		FPS:        24,
		OutputPath: "/out/video.mp4",
	}

	args := strings.Join(plan.Args(), " ")
	for _, fragment := range []string{
		"-loop 1 -t 3.000 -i /s/000_a.jpg",
		"-loop 1 -t 3.000 -i /s/001_b.jpg",
		"-i /s/audio/000.mp3",
		"-i /s/audio/001.mp3",
		"-map [vout] -map [aout]",
		"-c:v libx264",
		"-c:a aac",
		"/out/video.mp4",
	} {
		if !strings.Contains(args, fragment) {
			t.Fatalf("args missing %q in %s", fragment, args)
		}
	}
	if plan.TotalDuration() != 5 {
		t.Fatalf("TotalDuration = %v, want 5", plan.TotalDuration())
	}
}

func TestPlanFilterGraphCrossfades(t *testing.T) {
	plan := Plan{
		Slides: []Slide{
			{Duration: 2},
			{Duration: 3},
			{Duration: 4},
		},
		Style:      "right",
		Transition: 0.5,
		Width:      640,
		Height:     480,
		FPS:        30,
	}

	graph := plan.filterGraph()
	for _, fragment := range []string{
		"[0:v]scale=640:480:force_original_aspect_ratio=decrease",
		"[v0][v1]xfade=transition=slideright:duration=0.500:offset=2.000[x1];",
		"[x1][v2]xfade=transition=slideright:duration=0.500:offset=5.000[vout];",
		"[3:a][4:a][5:a]concat=n=3:v=0:a=1[aout]",
	} {
		if !strings.Contains(graph, fragment) {
			t.Fatalf("filter graph missing %q in %s", fragment, graph)
		}
	}
}

func TestPlanFilterGraphSingleSlide(t *testing.T) {
	plan := Plan{
		Slides:     []Slide{{Duration: 2}},
		Style:      "fade",
		Transition: 1,
		Width:      1280,
		Height:     720,
		FPS:        24,
	}
	graph := plan.filterGraph()
	if strings.Contains(graph, "xfade") {
		t.Fatalf("single slide should not crossfade: %s", graph)
	}
	if !strings.Contains(graph, "[v0]copy[vout]") {
		t.Fatalf("expected passthrough video chain: %s", graph)
	}
	if !strings.Contains(graph, "[1:a]concat=n=1:v=0:a=1[aout]") {
		t.Fatalf("expected single audio concat: %s", graph)
	}
}

func TestParseProgressLine(t *testing.T) {
	if seconds, ok := parseProgressLine("out_time_us=1500000"); !ok || seconds != 1.5 {
		t.Fatalf("parseProgressLine = %v, %v; want 1.5, true", seconds, ok)
	}
	if seconds, ok := parseProgressLine("out_time_ms=2000000"); !ok || seconds != 2 {
		t.Fatalf("parseProgressLine = %v, %v; want 2, true", seconds, ok)
	}
	for _, line := range []string{"progress=end", "frame=42", "out_time_us=bogus", "noise"} {
		if _, ok := parseProgressLine(line); ok {
			t.Fatalf("expected %q to be ignored", line)
		}
	}
}

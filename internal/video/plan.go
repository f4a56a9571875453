package video

import (
	"fmt"
	"strconv"
	"strings"
)

// slide style names accepted by the generate API, mapped to the xfade
// transition ffmpeg expects.
var transitionNames = map[string]string{
	"left":  "slideleft",
	"right": "slideright",
	"up":    "slideup",
	"down":  "slidedown",
	"fade":  "fade",
}

// ValidStyle reports whether the slide style is one the renderer supports.
func ValidStyle(style string) bool {
	_, ok := transitionNames[strings.ToLower(strings.TrimSpace(style))]
	return ok
}

// Styles returns the supported slide style names in a stable order.
func Styles() []string {
	return []string{"left", "right", "up", "down", "fade"}
}

// TransitionName maps a slide style to its xfade transition name.
func TransitionName(style string) (string, bool) {
	name, ok := transitionNames[strings.ToLower(strings.TrimSpace(style))]
	return name, ok
}

// Slide is one image input with the number of seconds it stays on screen.
type Slide struct {
	ImagePath string
	AudioPath string
	Duration  float64
}

// Plan describes one ffmpeg invocation that assembles the slideshow.
type Plan struct {
	Slides     []Slide
	Style      string
	Transition float64
	Width      int
	Height     int
	FPS        int
	OutputPath string
}

// TotalDuration returns the expected output length in seconds. Crossfades
// overlap adjacent slides, so the overlap is added to every slide except the
// last and then consumed by the transitions.
func (p Plan) TotalDuration() float64 {
	total := 0.0
	for _, slide := range p.Slides {
		total += slide.Duration
	}
	return total
}

// Args builds the complete ffmpeg argument list for the plan. Image inputs
// come first, one looped still per slide, followed by the narration audio
// inputs in the same order.
func (p Plan) Args() []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}

	n := len(p.Slides)
	for i, slide := range p.Slides {
		visible := slide.Duration
		if i < n-1 {
			visible += p.Transition
		}
		args = append(args,
			"-loop", "1",
			"-t", formatSeconds(visible),
			"-i", slide.ImagePath,
		)
	}
	for _, slide := range p.Slides {
		args = append(args, "-i", slide.AudioPath)
	}

	args = append(args, "-filter_complex", p.filterGraph())
	args = append(args,
		"-map", "[vout]",
		"-map", "[aout]",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(p.FPS),
		"-c:a", "aac",
		"-movflags", "+faststart",
		p.OutputPath,
	)
	return args
}

func (p Plan) filterGraph() string {
	n := len(p.Slides)
	var graph strings.Builder

	for i := range p.Slides {
		fmt.Fprintf(&graph,
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d,format=yuv420p[v%d];",
			i, p.Width, p.Height, p.Width, p.Height, p.FPS, i)
	}

	transition, ok := transitionNames[strings.ToLower(strings.TrimSpace(p.Style))]
	if !ok {
		transition = "fade"
	}

	if n == 1 {
		graph.WriteString("[v0]copy[vout];")
	} else {
		// Chain xfades: each offset is where the next crossfade begins on
		// the accumulated timeline.
		offset := p.Slides[0].Duration
		prev := "v0"
		for i := 1; i < n; i++ {
			out := fmt.Sprintf("x%d", i)
			if i == n-1 {
				out = "vout"
			}
			fmt.Fprintf(&graph, "[%s][v%d]xfade=transition=%s:duration=%s:offset=%s[%s];",
				prev, i, transition, formatSeconds(p.Transition), formatSeconds(offset), out)
			offset += p.Slides[i].Duration
			prev = out
		}
	}

	for i := range p.Slides {
		fmt.Fprintf(&graph, "[%d:a]", n+i)
	}
	fmt.Fprintf(&graph, "concat=n=%d:v=0:a=1[aout]", n)
	return graph.String()
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}

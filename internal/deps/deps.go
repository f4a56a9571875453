// Package deps reports the availability of external collaborators: the
// ffmpeg/ffprobe binaries and the remote script and voice services. The API
// layer maps unavailable requirements to 503 responses with a suggested
// remedy.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"slidecast/internal/config"
)

// Requirement defines an external dependency slidecast relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
	Solution    string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			status.Solution = fmt.Sprintf("Set the %s binary in the config file", req.Name)
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			status.Solution = fmt.Sprintf("Install %s and ensure it is on PATH", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Check evaluates every external dependency the pipeline needs: rendering
// binaries plus credentials for the script and voice services.
func Check(cfg *config.Config) []Status {
	statuses := CheckBinaries([]Requirement{
		{Name: "ffmpeg", Command: cfg.Video.FFmpegBinary, Description: "Renders the slideshow video"},
		{Name: "ffprobe", Command: cfg.Video.FFprobeBinary, Description: "Measures narration audio durations"},
	})
	statuses = append(statuses, checkService("script service", cfg.Script.APIKey,
		"Captions slides and writes narration scripts",
		"Set script.api_key in the config file or export SLIDECAST_SCRIPT_API_KEY"))
	statuses = append(statuses, checkService("voice service", cfg.Voice.APIKey,
		"Synthesizes narration audio",
		"Set voice.api_key in the config file or export SLIDECAST_VOICE_API_KEY"))
	return statuses
}

// FirstMissing returns the first required dependency that is unavailable, or
// nil when everything is ready.
func FirstMissing(statuses []Status) *Status {
	for i := range statuses {
		if !statuses[i].Optional && !statuses[i].Available {
			return &statuses[i]
		}
	}
	return nil
}

func checkService(name, apiKey, description, solution string) Status {
	status := Status{
		Name:        name,
		Description: description,
	}
	if strings.TrimSpace(apiKey) == "" {
		status.Available = false
		status.Detail = "api key not configured"
		status.Solution = solution
		return status
	}
	status.Available = true
	return status
}

package stage

// Health summarizes the readiness of a pipeline stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
	// Solution describes how an operator can restore readiness. Surfaced in
	// the API's 503 responses.
	Solution string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail and a
// suggested remedy.
func Unhealthy(name, detail, solution string) Health {
	return Health{Name: name, Ready: false, Detail: detail, Solution: solution}
}

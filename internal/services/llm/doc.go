// Package llm provides an OpenRouter-compatible chat client used by the
// script stage to caption slides and write narration.
//
// # Request Shape
//
// The client sends a system prompt plus a user prompt to the configured
// model with JSON-only response formatting. Slide images are attached inline
// as base64 data URLs so vision models can describe them without external
// hosting.
//
// # Configuration
//
// Requires api_key, model, and optionally base_url, referer, title, timeout.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive JSON response.
// Client.CompleteJSONWithImages: same, with inline slide images.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default).
// Context cancellation aborts retries immediately.
package llm

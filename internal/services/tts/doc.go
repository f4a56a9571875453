// Package tts provides an OpenAI-compatible speech synthesis client used by
// the voice stage to narrate slide scripts.
//
// The client posts text to a /v1/audio/speech endpoint and receives raw audio
// bytes in the configured format (mp3 by default). HTTP 408/429/5xx responses
// and network timeouts are retried with exponential backoff; other failures
// surface immediately.
package tts

// Package api holds the request and response types of the SpeechGate HTTP API.
//
// # API Overview
//
// SpeechGate exposes one synthesis endpoint plus discovery and health routes:
//   - POST /api/text-to-speech: {"text": "...", "language": "en"} returns audio/mpeg
//   - GET  /api/languages: the supported language codes
//   - GET  /health, /healthz, /ready, /readyz, /version
//
// Errors use one JSON envelope:
//
//	{"success": false, "error": {"code": "UNSUPPORTED_LANGUAGE", "message": "Unsupported language: xx"},
//	 "detail": "Unsupported language: xx", "timestamp": "...", "request_id": "req-..."}
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8000
package api

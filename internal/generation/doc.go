// Package generation is the boundary between the study service and the
// hosted generative language model (Gemini).
//
// It owns the call discipline around the model: a thread-safe Keyring of
// API credentials with per-request rotation, a Pacer that spaces calls, a
// ModelSelector that discovers and caches a suitable model, a QuotaTracker
// for daily usage reporting, and a Client that retries failed calls and
// reports terminal failures as a typed *GenerationError. The transport
// itself sits behind the Backend interface.
package generation

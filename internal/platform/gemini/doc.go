// Package gemini implements generation.Backend on top of Google's Gemini API
// (google.golang.org/genai).
//
// This package is an infrastructure adapter: it turns generation.Request
// values into genai calls and translates SDK results back into the
// transport-neutral forms the generation package understands:
//
//   - genai.APIError becomes *generation.APIError, so quota and credential
//     failures can be classified without importing the SDK.
//   - Safety refusals (prompt feedback or a SAFETY finish reason) become
//     generation.ErrContentBlocked.
//   - Replies without text become generation.ErrEmptyResponse.
//
// One genai.Client is created lazily per API key and reused. Retries, key
// rotation and pacing are not handled here; see generation.Client.
package gemini

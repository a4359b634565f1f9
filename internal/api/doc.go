// Package api holds the HTTP handlers of the SmartLearn API: content
// generation, authentication, search history, bookmarks and streaks.
//
// Every response is a JSON object carrying "success". Failures add "error"
// with a client-safe message and "trace_id" for log correlation; errors are
// mapped to status codes in one place, MapErrorToStatusCode.
package api

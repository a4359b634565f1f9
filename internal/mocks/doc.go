// Package mocks provides shared test doubles: in-memory stores, a JWT
// service, a cheap password hasher and a study-service fake. Each type has
// function or error fields so a test can override only the behaviour it
// cares about.
package mocks

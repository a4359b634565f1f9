// Package service contains the account-side use cases of the API: sign-up
// and sign-in, search history, bookmarks and study streaks. Services depend
// on the repository interfaces in internal/store, never on a concrete
// database, and run multi-step writes through store.Transactor.
//
// Content generation lives in internal/study; the API layer combines the
// two when an authenticated search should be recorded.
package service

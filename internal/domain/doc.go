// Package domain contains the core entities of the study service: users,
// search history, bookmarks, study streaks and the generated study items.
// It is independent of storage, transport and the model backend.
package domain

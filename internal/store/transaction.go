package store

import "context"

// Stores groups the repositories that can take part in one transaction.
type Stores struct {
	Users     UserStore
	History   HistoryStore
	Bookmarks BookmarkStore
	Streaks   StreakStore
}

// TxFn is a function that executes within a database transaction. The
// stores it receives are bound to that transaction.
type TxFn func(ctx context.Context, s Stores) error

// Transactor runs functions atomically. The transaction is committed if fn
// returns nil and rolled back otherwise.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn TxFn) error
}

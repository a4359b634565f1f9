package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/store"
)

// MemoryStores is an in-memory implementation of every store interface
// plus store.Transactor. Transactions run fn directly and do not roll back.
// Setting one of the *Err fields makes every call on that store fail.
type MemoryStores struct {
	mu sync.Mutex

	users     map[uuid.UUID]domain.User
	history   []domain.SearchHistory
	bookmarks []domain.Bookmark
	streaks   map[uuid.UUID]domain.StudyStreak
	logs      map[uuid.UUID]map[string]domain.StudyStreakLog
	nextID    int64

	UserErr     error
	HistoryErr  error
	BookmarkErr error
	StreakErr   error
	TxErr       error

	// TxCount counts RunInTransaction calls.
	TxCount int
}

// NewMemoryStores returns empty in-memory stores.
func NewMemoryStores() *MemoryStores {
	return &MemoryStores{
		users:   make(map[uuid.UUID]domain.User),
		streaks: make(map[uuid.UUID]domain.StudyStreak),
		logs:    make(map[uuid.UUID]map[string]domain.StudyStreakLog),
	}
}

// Stores returns the store.Stores view backed by m.
func (m *MemoryStores) Stores() store.Stores {
	return store.Stores{
		Users:     memUsers{m},
		History:   memHistory{m},
		Bookmarks: memBookmarks{m},
		Streaks:   memStreaks{m},
	}
}

// RunInTransaction implements store.Transactor.
func (m *MemoryStores) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	m.mu.Lock()
	m.TxCount++
	txErr := m.TxErr
	m.mu.Unlock()
	if txErr != nil {
		return txErr
	}
	return fn(ctx, m.Stores())
}

var _ store.Transactor = (*MemoryStores)(nil)

// HistoryLen reports the number of stored history entries.
func (m *MemoryStores) HistoryLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

func (m *MemoryStores) id() int64 {
	m.nextID++
	return m.nextID
}

type memUsers struct{ m *MemoryStores }

func (s memUsers) Create(_ context.Context, u *domain.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.UserErr != nil {
		return s.m.UserErr
	}
	if u.HashedPassword == "" {
		return domain.ErrEmptyHashedPassword
	}
	email := domain.NormalizeEmail(u.Email)
	for _, existing := range s.m.users {
		if existing.Email == email {
			return store.ErrEmailExists
		}
	}
	cp := *u
	cp.Email = email
	cp.Password = ""
	s.m.users[u.ID] = cp
	return nil
}

func (s memUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.UserErr != nil {
		return nil, s.m.UserErr
	}
	u, ok := s.m.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &u, nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.UserErr != nil {
		return nil, s.m.UserErr
	}
	email = domain.NormalizeEmail(email)
	for _, u := range s.m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

type memHistory struct{ m *MemoryStores }

func (s memHistory) Add(_ context.Context, e *domain.SearchHistory) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.HistoryErr != nil {
		return s.m.HistoryErr
	}
	e.ID = s.m.id()
	s.m.history = append(s.m.history, *e)
	return nil
}

func (s memHistory) ListRecent(_ context.Context, userID uuid.UUID, limit int) ([]domain.SearchHistory, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.HistoryErr != nil {
		return nil, s.m.HistoryErr
	}
	out := make([]domain.SearchHistory, 0)
	for _, e := range s.m.history {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s memHistory) Delete(_ context.Context, userID uuid.UUID, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.HistoryErr != nil {
		return s.m.HistoryErr
	}
	for i, e := range s.m.history {
		if e.ID == id && e.UserID == userID {
			s.m.history = append(s.m.history[:i], s.m.history[i+1:]...)
			return nil
		}
	}
	return store.ErrHistoryNotFound
}

func (s memHistory) DeleteAll(_ context.Context, userID uuid.UUID) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.HistoryErr != nil {
		return 0, s.m.HistoryErr
	}
	kept := s.m.history[:0]
	var n int64
	for _, e := range s.m.history {
		if e.UserID == userID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	s.m.history = kept
	return n, nil
}

type memBookmarks struct{ m *MemoryStores }

func (s memBookmarks) Create(_ context.Context, b *domain.Bookmark) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.BookmarkErr != nil {
		return s.m.BookmarkErr
	}
	for _, existing := range s.m.bookmarks {
		if existing.UserID == b.UserID && existing.Query == b.Query {
			return store.ErrBookmarkExists
		}
	}
	b.ID = s.m.id()
	s.m.bookmarks = append(s.m.bookmarks, *b)
	return nil
}

func (s memBookmarks) GetByQuery(_ context.Context, userID uuid.UUID, query string) (*domain.Bookmark, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.BookmarkErr != nil {
		return nil, s.m.BookmarkErr
	}
	for _, b := range s.m.bookmarks {
		if b.UserID == userID && b.Query == query {
			return &b, nil
		}
	}
	return nil, store.ErrBookmarkNotFound
}

func (s memBookmarks) List(_ context.Context, userID uuid.UUID) ([]domain.Bookmark, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.BookmarkErr != nil {
		return nil, s.m.BookmarkErr
	}
	out := make([]domain.Bookmark, 0)
	for i := len(s.m.bookmarks) - 1; i >= 0; i-- {
		if s.m.bookmarks[i].UserID == userID {
			out = append(out, s.m.bookmarks[i])
		}
	}
	return out, nil
}

func (s memBookmarks) Delete(_ context.Context, userID uuid.UUID, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.BookmarkErr != nil {
		return s.m.BookmarkErr
	}
	for i, b := range s.m.bookmarks {
		if b.ID == id && b.UserID == userID {
			s.m.bookmarks = append(s.m.bookmarks[:i], s.m.bookmarks[i+1:]...)
			return nil
		}
	}
	return store.ErrBookmarkNotFound
}

type memStreaks struct{ m *MemoryStores }

func (s memStreaks) Get(_ context.Context, userID uuid.UUID) (*domain.StudyStreak, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.StreakErr != nil {
		return nil, s.m.StreakErr
	}
	st, ok := s.m.streaks[userID]
	if !ok {
		return nil, store.ErrStreakNotFound
	}
	return &st, nil
}

func (s memStreaks) Upsert(_ context.Context, st *domain.StudyStreak) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.StreakErr != nil {
		return s.m.StreakErr
	}
	s.m.streaks[st.UserID] = *st
	return nil
}

func (s memStreaks) AddLog(_ context.Context, entry domain.StudyStreakLog) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.StreakErr != nil {
		return s.m.StreakErr
	}
	days, ok := s.m.logs[entry.UserID]
	if !ok {
		days = make(map[string]domain.StudyStreakLog)
		s.m.logs[entry.UserID] = days
	}
	days[entry.Date.Format("2006-01-02")] = entry
	return nil
}

func (s memStreaks) RecentLogs(_ context.Context, userID uuid.UUID, limit int) ([]domain.StudyStreakLog, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.StreakErr != nil {
		return nil, s.m.StreakErr
	}
	out := make([]domain.StudyStreakLog, 0, len(s.m.logs[userID]))
	for _, l := range s.m.logs[userID] {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

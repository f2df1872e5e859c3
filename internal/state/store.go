// Package state provides the process-wide in-memory store shared by the
// route layer, the advisor, and the Telegram bot: the bounded trade log, the
// last-known positions, the dashboard profile, and the TTL-cached advisory
// summary.
//
// Each logical section is guarded by its own lock; sections are updated
// independently and never need cross-section atomicity. Critical sections
// are pure data mutation — no I/O ever happens under a lock. Store
// operations never fail: malformed inputs are coerced or clamped so the
// store stays usable under any caller behaviour.
package state

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"aladdin/internal/domain"
)

const (
	// DefaultMaxLogLen bounds the trade log when no limit is configured.
	DefaultMaxLogLen = 1000

	// DefaultLogLimit is how many log lines a read returns by default.
	DefaultLogLimit = 100

	// DefaultSummaryTTL is how long a cached advisory summary stays fresh.
	DefaultSummaryTTL = 300 * time.Second
)

// LogEntry is one immutable trade-log line with its append time.
type LogEntry struct {
	At   time.Time
	Text string
}

// Store is the shared mutable state for one running process. All state is
// volatile; nothing survives a restart.
type Store struct {
	maxLogLen  int
	summaryTTL time.Duration
	now        func() time.Time

	logMu sync.Mutex
	log   []LogEntry

	posMu     sync.RWMutex
	positions map[string]domain.Position

	profileMu sync.RWMutex
	capital   *float64
	plToday   *float64
	nickname  string

	summaryMu   sync.RWMutex
	summary     string
	generatedAt time.Time
}

// New creates a Store. Non-positive maxLogLen and summaryTTL fall back to
// the defaults.
func New(maxLogLen int, summaryTTL time.Duration, nickname string) *Store {
	if maxLogLen <= 0 {
		maxLogLen = DefaultMaxLogLen
	}
	if summaryTTL <= 0 {
		summaryTTL = DefaultSummaryTTL
	}
	return &Store{
		maxLogLen:  maxLogLen,
		summaryTTL: summaryTTL,
		now:        time.Now,
		positions:  make(map[string]domain.Position),
		nickname:   nickname,
	}
}

// ---------------------------------------------------------------------------
// Trade log
// ---------------------------------------------------------------------------

// AppendLog appends one line to the trade log, coercing non-string values to
// text. The log is a bounded FIFO: once full, the oldest entries are evicted
// and the order of survivors is preserved.
func (s *Store) AppendLog(v any) {
	text, ok := v.(string)
	if !ok {
		text = fmt.Sprint(v)
	}
	entry := LogEntry{At: s.now(), Text: text}

	s.logMu.Lock()
	defer s.logMu.Unlock()

	s.log = append(s.log, entry)
	if excess := len(s.log) - s.maxLogLen; excess > 0 {
		copy(s.log, s.log[excess:])
		s.log = s.log[:s.maxLogLen]
	}
}

// Log returns the last limit lines joined by newline, oldest first. A limit
// below 1 is clamped to 1; DefaultLogLimit is the conventional value for
// unspecified limits.
func (s *Store) Log(limit int) string {
	if limit < 1 {
		limit = 1
	}

	s.logMu.Lock()
	defer s.logMu.Unlock()

	start := len(s.log) - limit
	if start < 0 {
		start = 0
	}
	lines := make([]string, 0, len(s.log)-start)
	for _, e := range s.log[start:] {
		lines = append(lines, e.Text)
	}
	return strings.Join(lines, "\n")
}

// LogTail returns copies of the last n log entries, oldest first.
func (s *Store) LogTail(n int) []LogEntry {
	if n < 1 {
		n = 1
	}

	s.logMu.Lock()
	defer s.logMu.Unlock()

	start := len(s.log) - n
	if start < 0 {
		start = 0
	}
	out := make([]LogEntry, len(s.log)-start)
	copy(out, s.log[start:])
	return out
}

// LogLen returns the current number of retained log entries.
func (s *Store) LogLen() int {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	return len(s.log)
}

// ---------------------------------------------------------------------------
// Positions
// ---------------------------------------------------------------------------

// SetPositions replaces the cached position set. The store is a read-mostly
// mirror; the brokerage account remains the source of truth.
func (s *Store) SetPositions(positions []domain.Position) {
	next := make(map[string]domain.Position, len(positions))
	for _, p := range positions {
		next[p.Symbol] = p
	}

	s.posMu.Lock()
	s.positions = next
	s.posMu.Unlock()
}

// Positions returns a copy of the cached positions keyed by symbol.
func (s *Store) Positions() map[string]domain.Position {
	s.posMu.RLock()
	defer s.posMu.RUnlock()

	out := make(map[string]domain.Position, len(s.positions))
	for sym, p := range s.positions {
		out[sym] = p
	}
	return out
}

// ---------------------------------------------------------------------------
// Profile
// ---------------------------------------------------------------------------

// ProfileUpdate carries the profile fields to change. Nil fields leave the
// prior value untouched; an update never clears a field by omission.
type ProfileUpdate struct {
	Capital  *float64
	PLToday  *float64
	Nickname *string
}

// UpdateProfile applies the non-nil fields of the update.
func (s *Store) UpdateProfile(u ProfileUpdate) {
	s.profileMu.Lock()
	defer s.profileMu.Unlock()

	if u.Capital != nil {
		v := *u.Capital
		s.capital = &v
	}
	if u.PLToday != nil {
		v := *u.PLToday
		s.plToday = &v
	}
	if u.Nickname != nil {
		s.nickname = *u.Nickname
	}
}

// Profile returns the current profile snapshot. OpenTrades is always
// recomputed from the cached position count at read time so it can never go
// stale independently.
func (s *Store) Profile() domain.Profile {
	s.posMu.RLock()
	openTrades := len(s.positions)
	s.posMu.RUnlock()

	s.profileMu.RLock()
	defer s.profileMu.RUnlock()

	p := domain.Profile{
		OpenTrades: openTrades,
		Nickname:   s.nickname,
	}
	if s.capital != nil {
		p.Capital = domain.Float(*s.capital)
	}
	if s.plToday != nil {
		p.PLToday = domain.Float(*s.plToday)
	}
	return p
}

// ---------------------------------------------------------------------------
// Advisory summary
// ---------------------------------------------------------------------------

// SetSummary stores an advisory summary and stamps the generation time.
func (s *Store) SetSummary(text string) {
	now := s.now()

	s.summaryMu.Lock()
	s.summary = text
	s.generatedAt = now
	s.summaryMu.Unlock()
}

// Summary returns the cached advisory summary.
func (s *Store) Summary() domain.Summary {
	s.summaryMu.RLock()
	defer s.summaryMu.RUnlock()
	return domain.Summary{Text: s.summary, GeneratedAt: s.generatedAt}
}

// SummaryStale reports whether the cached summary is older than the TTL (or
// was never generated). Staleness only signals that regeneration is due; the
// store itself never regenerates anything.
func (s *Store) SummaryStale() bool {
	s.summaryMu.RLock()
	defer s.summaryMu.RUnlock()
	if s.generatedAt.IsZero() {
		return true
	}
	return s.now().Sub(s.generatedAt) > s.summaryTTL
}

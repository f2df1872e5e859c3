package state

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"aladdin/internal/domain"
)

func TestAppendLogBound(t *testing.T) {
	// Appending 1005 lines into a 1000-entry log must leave exactly the most
	// recent 1000, in order.
	s := New(1000, 0, "")
	for i := 0; i < 1005; i++ {
		s.AppendLog(fmt.Sprintf("L%d", i))
	}

	if got := s.LogLen(); got != 1000 {
		t.Fatalf("LogLen() = %d, want 1000", got)
	}

	lines := strings.Split(s.Log(1000), "\n")
	if len(lines) != 1000 {
		t.Fatalf("Log(1000) has %d lines, want 1000", len(lines))
	}
	if lines[0] != "L5" {
		t.Errorf("first surviving line = %q, want %q", lines[0], "L5")
	}
	if lines[999] != "L1004" {
		t.Errorf("last line = %q, want %q", lines[999], "L1004")
	}
	for i, line := range lines {
		if want := fmt.Sprintf("L%d", i+5); line != want {
			t.Fatalf("line %d = %q, want %q", i, line, want)
		}
	}
}

func TestAppendLogCoercion(t *testing.T) {
	s := New(10, 0, "")
	s.AppendLog(42)
	s.AppendLog(struct{ A string }{"x"})
	s.AppendLog("plain")

	lines := strings.Split(s.Log(DefaultLogLimit), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "42" {
		t.Errorf("coerced int = %q, want %q", lines[0], "42")
	}
	if lines[2] != "plain" {
		t.Errorf("string entry = %q, want %q", lines[2], "plain")
	}
}

func TestLogLimitClamp(t *testing.T) {
	s := New(10, 0, "")
	for i := 0; i < 5; i++ {
		s.AppendLog(fmt.Sprintf("L%d", i))
	}

	// Invalid limits clamp to 1 instead of failing.
	for _, limit := range []int{0, -7} {
		if got := s.Log(limit); got != "L4" {
			t.Errorf("Log(%d) = %q, want %q", limit, got, "L4")
		}
	}
	// A limit larger than the log returns everything.
	if got := s.Log(100); got != "L0\nL1\nL2\nL3\nL4" {
		t.Errorf("Log(100) = %q, want all five lines", got)
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	s := New(10, 0, "Trader")
	s.UpdateProfile(ProfileUpdate{
		Capital: domain.Float(10000),
		PLToday: domain.Float(-42.5),
	})

	// Updating only capital must leave nickname and plToday untouched.
	s.UpdateProfile(ProfileUpdate{Capital: domain.Float(12500)})

	p := s.Profile()
	if p.Capital == nil || *p.Capital != 12500 {
		t.Errorf("Capital = %v, want 12500", p.Capital)
	}
	if p.PLToday == nil || *p.PLToday != -42.5 {
		t.Errorf("PLToday = %v, want -42.5 (unchanged)", p.PLToday)
	}
	if p.Nickname != "Trader" {
		t.Errorf("Nickname = %q, want %q (unchanged)", p.Nickname, "Trader")
	}
}

func TestProfileOpenTradesRecomputed(t *testing.T) {
	s := New(10, 0, "")

	if got := s.Profile().OpenTrades; got != 0 {
		t.Errorf("OpenTrades = %d, want 0", got)
	}

	s.SetPositions([]domain.Position{
		{Symbol: "AAPL", Qty: 10, AvgCost: 150},
		{Symbol: "TSLA", Qty: -5, AvgCost: 200},
	})
	if got := s.Profile().OpenTrades; got != 2 {
		t.Errorf("OpenTrades = %d, want 2", got)
	}

	s.SetPositions(nil)
	if got := s.Profile().OpenTrades; got != 0 {
		t.Errorf("OpenTrades after clearing = %d, want 0", got)
	}
}

func TestPositionsCopy(t *testing.T) {
	s := New(10, 0, "")
	s.SetPositions([]domain.Position{{Symbol: "AAPL", Qty: 10, AvgCost: 150}})

	got := s.Positions()
	got["AAPL"] = domain.Position{Symbol: "AAPL", Qty: 999}
	delete(got, "AAPL")

	again := s.Positions()
	if p, ok := again["AAPL"]; !ok || p.Qty != 10 {
		t.Errorf("stored positions mutated through a returned copy: %+v", again)
	}
}

func TestSummaryTTL(t *testing.T) {
	s := New(10, 300*time.Second, "")

	if !s.SummaryStale() {
		t.Error("summary should be stale before first SetSummary")
	}

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	s.SetSummary("markets are calm")
	if s.SummaryStale() {
		t.Error("summary should be fresh immediately after SetSummary")
	}

	sum := s.Summary()
	if sum.Text != "markets are calm" {
		t.Errorf("Summary().Text = %q, want %q", sum.Text, "markets are calm")
	}
	if !sum.GeneratedAt.Equal(current) {
		t.Errorf("GeneratedAt = %v, want %v", sum.GeneratedAt, current)
	}

	current = current.Add(299 * time.Second)
	if s.SummaryStale() {
		t.Error("summary should still be fresh inside the TTL")
	}

	current = current.Add(2 * time.Second)
	if !s.SummaryStale() {
		t.Error("summary should be stale past the TTL")
	}
}

func TestConcurrentAccess(t *testing.T) {
	// Hammer every section from concurrent goroutines; run with -race.
	s := New(100, time.Second, "Trader")

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s.AppendLog(fmt.Sprintf("g%d-%d", g, i))
				_ = s.Log(10)
				s.SetPositions([]domain.Position{{Symbol: "AAPL", Qty: int64(i)}})
				_ = s.Positions()
				s.UpdateProfile(ProfileUpdate{Capital: domain.Float(float64(i))})
				_ = s.Profile()
				s.SetSummary("s")
				_ = s.Summary()
				_ = s.SummaryStale()
			}
		}(g)
	}
	wg.Wait()

	if got := s.LogLen(); got != 100 {
		t.Errorf("LogLen() = %d, want the configured bound 100", got)
	}
}

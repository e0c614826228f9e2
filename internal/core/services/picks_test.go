package services

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
)

func TestTimeContext(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{hour: 5, want: "Morning acoustic"},
		{hour: 11, want: "Morning acoustic"},
		{hour: 12, want: "Pop hits 2026"},
		{hour: 17, want: "Pop hits 2026"},
		{hour: 18, want: "Chill lo-fi"},
		{hour: 21, want: "Chill lo-fi"},
		{hour: 22, want: "Late night drive"},
		{hour: 3, want: "Late night drive"},
	}

	for _, tt := range tests {
		now := time.Date(2026, 3, 1, tt.hour, 0, 0, 0, time.UTC)
		if got := timeContext(now)[0]; got != tt.want {
			t.Fatalf("hour %d: expected %q, got %q", tt.hour, tt.want, got)
		}
	}
}

func TestPicks_QueriesDeterministicWithSeed(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	a := NewPicks(&mockSearcher{}, rand.New(rand.NewSource(42))).Queries(now)
	b := NewPicks(&mockSearcher{}, rand.New(rand.NewSource(42))).Queries(now)

	if len(a) != 5 {
		t.Fatalf("expected 5 queries, got %d", len(a))
	}
	if strings.Join(a, "|") != strings.Join(b, "|") {
		t.Fatalf("expected identical queries for identical seeds, got %v and %v", a, b)
	}
	if len(genreKeywords) != 8 || genreKeywords[0] != "Underrated Indie" {
		t.Fatal("expected genre keywords to be left untouched by shuffling")
	}
}

func TestPicks_EditorsPicks(t *testing.T) {
	searcher := &mockSearcher{}
	picks := NewPicks(searcher, rand.New(rand.NewSource(7)))
	now := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)

	res, err := picks.EditorsPicks(context.Background(), now, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != domain.SourceEditorsPicks || len(res.Items) != 3 {
		t.Fatalf("expected 3 editors picks, got %+v", res)
	}
	if len(searcher.queries) != 5 {
		t.Fatalf("expected 5 searches, got %d", len(searcher.queries))
	}
	for _, q := range searcher.queries {
		if q.Kind != domain.KindPlaylist {
			t.Fatalf("expected playlist searches, got %+v", q)
		}
	}
}

func TestPicks_FailedQueriesSkipped(t *testing.T) {
	searcher := &mockSearcher{err: errors.New("down")}
	picks := NewPicks(searcher, rand.New(rand.NewSource(1)))

	res, err := picks.EditorsPicks(context.Background(), time.Now(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Items == nil || len(res.Items) != 0 {
		t.Fatalf("expected empty non-nil items, got %#v", res.Items)
	}
}

func TestInterleave(t *testing.T) {
	got := interleave([][]domain.Track{tracks("a1", "a2", "a3"), tracks("b1"), tracks("c1", "c2")})
	var ids []string
	for _, tr := range got {
		ids = append(ids, tr.ID)
	}
	if strings.Join(ids, ",") != "a1,b1,c1,a2,c2,a3" {
		t.Fatalf("unexpected interleave order %v", ids)
	}
}

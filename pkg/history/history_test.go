package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ansebmr/surveydash/pkg/models"
)

func newTestLog(t *testing.T) *SQLiteLog {
	t.Helper()
	l, err := New(filepath.Join(t.TempDir(), "history_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRecordAndRecent(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	recs := []models.FetchRecord{
		{Endpoint: "/api/responses", Survey: "S1", Source: models.SourceLive, StatusCode: 200, Records: 50, LatencyMs: 120},
		{Endpoint: "/api/responses", Survey: "S1", Source: models.SourceCached, Records: 50},
		{Endpoint: "/api/surveys", Source: models.SourceSample, StatusCode: 502},
	}
	for i, rec := range recs {
		rec.CreatedAt = time.Date(2024, 1, 1, i, 0, 0, 0, time.UTC)
		if err := l.Record(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := l.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	if recent[0].Endpoint != "/api/surveys" {
		t.Errorf("expected newest first, got %s", recent[0].Endpoint)
	}
	if recent[0].ID == "" {
		t.Error("expected a generated record ID")
	}
	if recent[0].Source != models.SourceSample {
		t.Errorf("source %s, want sample", recent[0].Source)
	}
}

func TestSummary(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		if err := l.Record(ctx, models.FetchRecord{
			Endpoint:  "/api/responses",
			Source:    models.SourceLive,
			Records:   100,
			LatencyMs: int64(100 + i*100),
			CreatedAt: now,
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.Record(ctx, models.FetchRecord{
		Endpoint:  "/api/responses",
		Source:    models.SourceSample,
		CreatedAt: now.Add(-48 * time.Hour), // outside the window
	}); err != nil {
		t.Fatal(err)
	}

	summaries, err := l.Summary(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary row, got %d", len(summaries))
	}
	s := summaries[0]
	if s.Fetches != 3 || s.Records != 300 {
		t.Errorf("unexpected aggregates: %+v", s)
	}
	if s.AvgLatencyMs != 200 {
		t.Errorf("avg latency %v, want 200", s.AvgLatencyMs)
	}
}

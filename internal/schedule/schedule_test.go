package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/normalize"
	"github.com/jobsift/jobsift/internal/owner"
	"github.com/jobsift/jobsift/internal/pipeline"
	"github.com/jobsift/jobsift/internal/rules"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingSource counts fetches; fails every call when fail is set.
type countingSource struct {
	calls atomic.Int32
	fail  bool
	block chan struct{} // when non-nil, Fetch waits for it to close
}

func (s *countingSource) Fetch(_ context.Context) ([]model.RawRecord, error) {
	s.calls.Add(1)
	if s.block != nil {
		<-s.block
	}
	if s.fail {
		return nil, errors.New("fetch failed")
	}
	return nil, nil
}

type nopStore struct{}

func (nopStore) HasSeen(string) (bool, error) { return false, nil }
func (nopStore) MarkSeen(string) error        { return nil }
func (nopStore) Cleanup(time.Duration) error  { return nil }
func (nopStore) IsEmpty() (bool, error)       { return true, nil }

type nopScorer struct{}

func (nopScorer) Score(context.Context, model.Posting) model.ScoreResult {
	return model.ScoreResult{}
}
func (nopScorer) MaxScore() int { return 10 }

type nopSink struct{}

func (nopSink) Write(context.Context, model.Posting, model.ScoreResult) error { return nil }

func newRunner(name string, src model.SourceAdapter) *pipeline.Runner {
	return pipeline.NewRunner(
		name, "bucket",
		src,
		normalize.New(0),
		rules.New(config.RulesConfig{}),
		nopStore{},
		nopScorer{},
		owner.New(nil),
		nopSink{},
		0,
		discardLogger(),
	)
}

func TestNew_BuildsCronSpecFromDailyAt(t *testing.T) {
	s, err := New(config.ScheduleConfig{DailyAt: "09:00"}, nil, discardLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.spec != "0 9 * * *" {
		t.Errorf("spec = %q, want %q", s.spec, "0 9 * * *")
	}
}

func TestNew_RejectsBadTimeOfDay(t *testing.T) {
	_, err := New(config.ScheduleConfig{DailyAt: "25:00"}, nil, discardLogger())
	if err == nil {
		t.Fatal("expected error for out-of-range hour, got nil")
	}
}

func TestRunBatch_ContinuesPastFailingSource(t *testing.T) {
	bad := &countingSource{fail: true}
	good := &countingSource{}
	runners := []*pipeline.Runner{newRunner("bad", bad), newRunner("good", good)}

	s, err := New(config.ScheduleConfig{DailyAt: "09:00"}, runners, discardLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.RunBatch(context.Background())

	if bad.calls.Load() != 1 {
		t.Errorf("bad source fetches = %d, want 1", bad.calls.Load())
	}
	if good.calls.Load() != 1 {
		t.Errorf("good source fetches = %d, want 1 (batch must continue past a failure)", good.calls.Load())
	}
}

func TestRunBatch_SkipsOverlappingTick(t *testing.T) {
	block := make(chan struct{})
	src := &countingSource{block: block}
	runners := []*pipeline.Runner{newRunner("slow", src)}

	s, err := New(config.ScheduleConfig{DailyAt: "09:00"}, runners, discardLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.RunBatch(context.Background())
		close(done)
	}()

	// Wait until the first batch is inside Fetch.
	deadline := time.After(time.Second)
	for src.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("first batch never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// A second tick while the first is in flight must be dropped.
	s.RunBatch(context.Background())
	if got := src.calls.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1 (overlapping batch must be skipped)", got)
	}

	close(block)
	<-done
}

func TestRunBatch_StopsOnCancelledContext(t *testing.T) {
	src := &countingSource{}
	runners := []*pipeline.Runner{newRunner("a", src), newRunner("b", src)}

	s, err := New(config.ScheduleConfig{DailyAt: "09:00"}, runners, discardLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.RunBatch(ctx)

	if got := src.calls.Load(); got != 0 {
		t.Errorf("fetches = %d, want 0 for cancelled context", got)
	}
}

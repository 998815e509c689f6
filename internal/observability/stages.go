package observability

import (
	"sort"
	"sync"
	"time"
)

// Turn stages timed by the assistant.
const (
	StageClassify     = "classify"
	StageAnalyze      = "analyze"
	StageContinuation = "continuation"
	StageFinalize     = "finalize"
	StageTurnTotal    = "turn_total"
)

// stageBudgets are p95 budgets. Classify, analyze and continuation may wait
// on one remote completion call.
var stageBudgets = map[string]time.Duration{
	StageClassify:     1500 * time.Millisecond,
	StageAnalyze:      2 * time.Second,
	StageContinuation: 2 * time.Second,
	StageFinalize:     50 * time.Millisecond,
	StageTurnTotal:    4 * time.Second,
}

type StageStats struct {
	Stage      string  `json:"stage"`
	Samples    int     `json:"samples"`
	LastMS     int64   `json:"last_ms"`
	P50MS      int64   `json:"p50_ms"`
	P95MS      int64   `json:"p95_ms"`
	MaxMS      int64   `json:"max_ms"`
	BudgetMS   int64   `json:"budget_ms,omitempty"`
	OverBudget float64 `json:"over_budget_ratio,omitempty"`
}

type StageSnapshot struct {
	GeneratedAt time.Time    `json:"generated_at"`
	WindowSize  int          `json:"window_size"`
	Stages      []StageStats `json:"stages"`
}

// stageWindow keeps the most recent durations of each stage.
type stageWindow struct {
	mu    sync.Mutex
	size  int
	rings map[string]*durationRing
}

type durationRing struct {
	samples []time.Duration
	pos     int
	last    time.Duration
}

func newStageWindow(size int) *stageWindow {
	if size <= 0 {
		size = 256
	}
	return &stageWindow{size: size, rings: make(map[string]*durationRing)}
}

func (w *stageWindow) observe(stage string, d time.Duration) {
	if stage == "" || d < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	r := w.rings[stage]
	if r == nil {
		r = &durationRing{samples: make([]time.Duration, 0, w.size)}
		w.rings[stage] = r
	}
	r.last = d
	if len(r.samples) < w.size {
		r.samples = append(r.samples, d)
		return
	}
	r.samples[r.pos] = d
	r.pos = (r.pos + 1) % w.size
}

func (w *stageWindow) snapshot(now time.Time) StageSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := StageSnapshot{
		GeneratedAt: now.UTC(),
		WindowSize:  w.size,
		Stages:      make([]StageStats, 0, len(w.rings)),
	}
	for stage, r := range w.rings {
		if len(r.samples) == 0 {
			continue
		}
		sorted := append([]time.Duration(nil), r.samples...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		stats := StageStats{
			Stage:   stage,
			Samples: len(sorted),
			LastMS:  r.last.Milliseconds(),
			P50MS:   nearestRank(sorted, 50).Milliseconds(),
			P95MS:   nearestRank(sorted, 95).Milliseconds(),
			MaxMS:   sorted[len(sorted)-1].Milliseconds(),
		}
		if budget, ok := stageBudgets[stage]; ok {
			stats.BudgetMS = budget.Milliseconds()
			over := len(sorted) - sort.Search(len(sorted), func(i int) bool { return sorted[i] > budget })
			stats.OverBudget = float64(over) / float64(len(sorted))
		}
		out.Stages = append(out.Stages, stats)
	}
	sort.Slice(out.Stages, func(i, j int) bool { return out.Stages[i].Stage < out.Stages[j].Stage })
	return out
}

func nearestRank(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

package export

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ProgressWriter publishes run progress for external watchers.
// progress.json always holds the latest snapshot, replaced atomically
// via rename so a reader never sees a torn write, and
// progress_timeseries.jsonl accumulates one line per update. The
// timeline is best effort; the snapshot is the contract.
type ProgressWriter struct {
	path     string
	timeline string
	t0       time.Time

	mu sync.Mutex
}

type progressPayload struct {
	Phase      string  `json:"phase"`
	Percent    float64 `json:"percent"`
	ElapsedS   float64 `json:"elapsed_s"`
	UpdatedAt  string  `json:"updated_at"`
	Step       *int    `json:"step,omitempty"`
	TotalSteps *int    `json:"total_steps,omitempty"`
}

func NewProgressWriter(runDir string) *ProgressWriter {
	return &ProgressWriter{
		path:     filepath.Join(runDir, "progress.json"),
		timeline: filepath.Join(runDir, "progress_timeseries.jsonl"),
		t0:       time.Now(),
	}
}

// Update publishes a phase snapshot without step counters.
func (p *ProgressWriter) Update(phase string, percent float64) error {
	return p.update(phase, percent, nil, nil)
}

// UpdateStep publishes a phase snapshot with step counters, the form
// the grid search reports in.
func (p *ProgressWriter) UpdateStep(phase string, percent float64, step, totalSteps int) error {
	return p.update(phase, percent, &step, &totalSteps)
}

func (p *ProgressWriter) update(phase string, percent float64, step, totalSteps *int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := json.Marshal(progressPayload{
		Phase:      phase,
		Percent:    math.Round(percent*100) / 100,
		ElapsedS:   math.Round(time.Since(p.t0).Seconds()*10) / 10,
		UpdatedAt:  time.Now().UTC().Format(time.RFC3339),
		Step:       step,
		TotalSteps: totalSteps,
	})
	if err != nil {
		return err
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("export: write progress: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("export: publish progress: %w", err)
	}

	if f, err := os.OpenFile(p.timeline, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
		_, _ = f.Write(append(raw, '\n'))
		_ = f.Close()
	}
	return nil
}

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestProgressWriterSnapshot(t *testing.T) {
	dir := t.TempDir()
	pw := NewProgressWriter(dir)

	if err := pw.Update("starting", 0); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := pw.UpdateStep("grid search", 33.333333, 100, 300); err != nil {
		t.Fatalf("UpdateStep: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "progress.json"))
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("snapshot json: %v", err)
	}
	if got["phase"] != "grid search" {
		t.Errorf("phase = %v, want latest update", got["phase"])
	}
	if got["percent"] != 33.33 {
		t.Errorf("percent = %v, want 33.33 after rounding", got["percent"])
	}
	if got["step"] != float64(100) || got["total_steps"] != float64(300) {
		t.Errorf("steps = %v/%v, want 100/300", got["step"], got["total_steps"])
	}
	stamp, ok := got["updated_at"].(string)
	if !ok {
		t.Fatalf("updated_at = %v", got["updated_at"])
	}
	if _, err := time.Parse(time.RFC3339, stamp); err != nil {
		t.Errorf("updated_at not RFC3339: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "progress.json.tmp")); !os.IsNotExist(err) {
		t.Error("tmp file left behind after the atomic swap")
	}
}

func TestProgressWriterOmitsStepWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	if err := NewProgressWriter(dir).Update("done", 100); err != nil {
		t.Fatalf("Update: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "progress.json"))
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("snapshot json: %v", err)
	}
	if _, ok := got["step"]; ok {
		t.Error("step present on a stepless update")
	}
	if _, ok := got["total_steps"]; ok {
		t.Error("total_steps present on a stepless update")
	}
}

func TestProgressWriterTimeline(t *testing.T) {
	dir := t.TempDir()
	pw := NewProgressWriter(dir)

	for _, step := range []struct {
		phase   string
		percent float64
	}{{"starting", 0}, {"grid search", 50}, {"done", 100}} {
		if err := pw.Update(step.phase, step.percent); err != nil {
			t.Fatalf("Update(%s): %v", step.phase, err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, "progress_timeseries.jsonl"))
	if err != nil {
		t.Fatalf("read timeline: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("timeline lines = %d, want 3", len(lines))
	}

	var last progressPayload
	if err := json.Unmarshal([]byte(lines[2]), &last); err != nil {
		t.Fatalf("timeline json: %v", err)
	}
	if last.Phase != "done" || last.Percent != 100 {
		t.Errorf("last timeline entry = %+v", last)
	}
}

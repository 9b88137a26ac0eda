package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultSampleDataset(t *testing.T) {
	ds := DefaultSampleDataset()

	if ds.Result.Summary != "Processed 2 task emails, notified 3 teammates via Slack" {
		t.Errorf("Summary = %q", ds.Result.Summary)
	}
	if ds.Result.Data.TasksProcessed != 2 || ds.Result.Data.TeammatesNotified != 3 {
		t.Errorf("Data = %+v", ds.Result.Data)
	}
	if len(ds.Result.Items) != 3 || ds.Result.Items[0].Title != "Prepare Q2 Financial Report" {
		t.Errorf("Items = %+v", ds.Result.Items)
	}
	if len(ds.History) != 2 || ds.History[0].ID != "sample-1" || ds.History[1].ID != "sample-2" {
		t.Fatalf("History = %+v", ds.History)
	}
	if !ds.History[0].Timestamp.After(ds.History[1].Timestamp) {
		t.Error("sample history should be newest first")
	}
	if ds.History[1].Tasks[0].Assignee != "Sarah Chen" {
		t.Errorf("sample-2 assignee = %q", ds.History[1].Tasks[0].Assignee)
	}
}

func TestSampleDataset_CloneIsDeep(t *testing.T) {
	ds := DefaultSampleDataset()
	c := ds.Clone()
	c.Result.Items[0].Title = "changed"
	c.History[0].Tasks[0].Title = "changed"

	if ds.Result.Items[0].Title == "changed" || ds.History[0].Tasks[0].Title == "changed" {
		t.Error("Clone shares items with the original")
	}
}

func TestParseSampleDataset_Errors(t *testing.T) {
	tests := map[string]string{
		"invalid yaml":  "result: [",
		"missing id":    "history:\n  - summary: x\n",
		"duplicate ids": "history:\n  - id: a\n  - id: a\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSampleDataset([]byte(data))
			if err == nil {
				t.Fatal("expected error")
			}
			if name == "duplicate ids" && !errors.Is(err, ErrDuplicateRecordID) {
				t.Errorf("expected ErrDuplicateRecordID, got %v", err)
			}
		})
	}
}

func TestParseSampleDataset_NilSlices(t *testing.T) {
	ds, err := ParseSampleDataset([]byte("result:\n  summary: only\nhistory:\n  - id: x\n"))
	if err != nil {
		t.Fatal(err)
	}
	if ds.Result.Items == nil || ds.History[0].Tasks == nil {
		t.Error("items and tasks should be non-nil")
	}
}

func TestLoadSampleDataset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yaml")
	if err := os.WriteFile(path, []byte("result:\n  summary: demo\nhistory:\n  - id: d-1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := LoadSampleDataset(path)
	if err != nil {
		t.Fatal(err)
	}
	if ds.Result.Summary != "demo" || ds.History[0].ID != "d-1" {
		t.Errorf("unexpected dataset %+v", ds)
	}

	if _, err := LoadSampleDataset(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if ds, err := LoadSampleDataset(""); err != nil || ds.History[0].ID != "sample-1" {
		t.Errorf("empty path should return built-in dataset, got %v", err)
	}
}

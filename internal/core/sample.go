package core

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/valter-silva-au/delegation-dashboard/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed sampledata.yaml
var builtinSampleData []byte

// SampleDataset is the fixed demonstration data substituted for live data
// while sample mode is on: one result and a newest-first history.
type SampleDataset struct {
	Result  models.AgentResult        `yaml:"result"`
	History []models.DelegationRecord `yaml:"history"`
}

// DefaultSampleDataset returns the built-in dataset.
func DefaultSampleDataset() SampleDataset {
	ds, err := ParseSampleDataset(builtinSampleData)
	if err != nil {
		panic(fmt.Sprintf("built-in sample dataset is invalid: %v", err))
	}
	return ds
}

// LoadSampleDataset reads a dataset from a YAML file. An empty path returns
// the built-in dataset.
func LoadSampleDataset(path string) (SampleDataset, error) {
	if path == "" {
		return DefaultSampleDataset(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return SampleDataset{}, fmt.Errorf("reading sample dataset %s: %w", path, err)
	}
	ds, err := ParseSampleDataset(data)
	if err != nil {
		return SampleDataset{}, fmt.Errorf("sample dataset %s: %w", path, err)
	}
	return ds, nil
}

// ParseSampleDataset decodes YAML and checks that history ids are present
// and unique.
func ParseSampleDataset(data []byte) (SampleDataset, error) {
	var ds SampleDataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return SampleDataset{}, fmt.Errorf("parsing sample dataset: %w", err)
	}
	if ds.Result.Items == nil {
		ds.Result.Items = []models.TaskItem{}
	}

	seen := make(map[string]bool, len(ds.History))
	for i := range ds.History {
		id := ds.History[i].ID
		if id == "" {
			return SampleDataset{}, fmt.Errorf("sample history entry %d has no id", i)
		}
		if seen[id] {
			return SampleDataset{}, fmt.Errorf("sample history id %q: %w", id, ErrDuplicateRecordID)
		}
		seen[id] = true
		if ds.History[i].Tasks == nil {
			ds.History[i].Tasks = []models.TaskItem{}
		}
	}
	return ds, nil
}

// Clone returns a deep copy so consumers cannot alter the constant.
func (s SampleDataset) Clone() SampleDataset {
	out := SampleDataset{
		Result:  s.Result.Clone(),
		History: make([]models.DelegationRecord, len(s.History)),
	}
	for i, r := range s.History {
		out.History[i] = r.Clone()
	}
	return out
}

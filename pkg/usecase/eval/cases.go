package eval

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/gema-dev/gema/pkg/adapter"
	"github.com/gema-dev/gema/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// caseFile is the YAML document holding a labeled case set.
type caseFile struct {
	Cases []model.EvaluationCase `yaml:"cases"`
}

// LoadCases reads a labeled case set from a YAML file.
func LoadCases(path string) ([]model.EvaluationCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read case file", goerr.V("path", path))
	}

	var file caseFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse case file", goerr.V("path", path))
	}

	seen := make(map[string]bool, len(file.Cases))
	for i, c := range file.Cases {
		if c.ID == "" {
			return nil, goerr.New("case without id", goerr.V("index", i))
		}
		if c.Query == "" {
			return nil, goerr.New("case without query", goerr.V("case_id", c.ID))
		}
		if seen[c.ID] {
			return nil, goerr.New("duplicate case id", goerr.V("case_id", c.ID))
		}
		seen[c.ID] = true
	}

	return file.Cases, nil
}

// WriteReport writes the report as indented JSON.
func WriteReport(w io.Writer, report *model.EvaluationReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return goerr.Wrap(err, "failed to encode report")
	}
	return nil
}

// SaveReport stores the report under key in the given storage.
func SaveReport(ctx context.Context, storage adapter.Storage, key string, report *model.EvaluationReport) error {
	w, err := storage.Put(ctx, key)
	if err != nil {
		return goerr.Wrap(err, "failed to open report writer", goerr.V("key", key))
	}

	if err := WriteReport(w, report); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to close report writer", goerr.V("key", key))
	}
	return nil
}

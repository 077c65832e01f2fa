package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/josephgoksu/tasksync/models"
	yaml "gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatTOML = "toml"
)

// SupportedFormats lists the accepted values for the dataFileFormat key.
var SupportedFormats = []string{formatJSON, formatYAML, formatTOML}

// tomlDocument wraps the list because TOML has no top-level arrays.
type tomlDocument struct {
	Tasks []models.Task `toml:"tasks"`
}

// legacyJSONDocument is the object form {"tasks": [...]}.
type legacyJSONDocument struct {
	Tasks *[]*models.Task `json:"tasks"`
}

func marshalTasks(format string, tasks []models.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []models.Task{}
	}
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case formatYAML:
		return yaml.Marshal(tasks)
	case formatTOML:
		buf := new(bytes.Buffer)
		if err := toml.NewEncoder(buf).Encode(tomlDocument{Tasks: tasks}); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported data format for saving: %s", format)
	}
}

func unmarshalTasks(format string, data []byte) ([]models.Task, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyDocument
	}

	var (
		tasks []models.Task
		refs  []*models.Task
	)
	switch format {
	case formatJSON:
		switch trimmed[0] {
		case '[':
			if err := json.Unmarshal(trimmed, &refs); err != nil {
				return nil, err
			}
		case '{':
			var doc legacyJSONDocument
			if err := json.Unmarshal(trimmed, &doc); err != nil {
				return nil, err
			}
			if doc.Tasks == nil {
				return nil, fmt.Errorf("object document has no \"tasks\" array")
			}
			refs = *doc.Tasks
		default:
			return nil, fmt.Errorf("expected a JSON array of tasks, got %q", truncate(string(trimmed), 16))
		}
	case formatYAML:
		if err := yaml.Unmarshal(trimmed, &refs); err != nil {
			return nil, err
		}
	case formatTOML:
		var doc tomlDocument
		if _, err := toml.Decode(string(trimmed), &doc); err != nil {
			return nil, err
		}
		tasks = doc.Tasks
	default:
		return nil, fmt.Errorf("unsupported data format for loading: %s", format)
	}

	if refs != nil {
		tasks = make([]models.Task, 0, len(refs))
		for i, t := range refs {
			if t == nil {
				return nil, fmt.Errorf("task %d is null", i)
			}
			tasks = append(tasks, *t)
		}
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// sanitizeTasks gives a fresh ID to tasks whose ID is blank or already used.
func sanitizeTasks(tasks []models.Task) int {
	repaired := 0
	seen := make(map[string]struct{}, len(tasks))
	for i := range tasks {
		id := strings.TrimSpace(tasks[i].ID)
		if _, dup := seen[id]; id == "" || dup {
			tasks[i].ID = models.NewID()
			repaired++
		}
		seen[tasks[i].ID] = struct{}{}
	}
	return repaired
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mohanavadivelu2/automation-framework/pkg/core"
)

// Document is a test case or fragment: {"command": [...]}.
type Document struct {
	Name     string
	Path     string
	Commands []Command
}

// FragmentLoader loads fragments by name.
type FragmentLoader interface {
	LoadFragment(name string) (*Document, error)
}

// Loader reads command documents from the workspace directories.
type Loader struct {
	testCaseDir string
	fragmentDir string
}

// NewLoader creates a loader for the given directories.
func NewLoader(testCaseDir, fragmentDir string) *Loader {
	return &Loader{testCaseDir: testCaseDir, fragmentDir: fragmentDir}
}

// TestCasePath returns <testCaseDir>/<id>.json.
func (l *Loader) TestCasePath(id string) string {
	return filepath.Join(l.testCaseDir, id+".json")
}

// FragmentPath returns <fragmentDir>/<name>.
func (l *Loader) FragmentPath(name string) string {
	return filepath.Join(l.fragmentDir, name)
}

// LoadRaw reads and decodes a JSON file without interpreting its shape.
func (l *Loader) LoadRaw(path string) (interface{}, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- workspace documents
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.ErrDocumentNotFound.WithMessage(fmt.Sprintf("document not found: %s", path)).WithCause(err)
		}
		return nil, core.ErrDocumentNotFound.WithMessage(fmt.Sprintf("failed to read %s", path)).WithCause(err)
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, core.ErrInvalidJSON.WithMessage(fmt.Sprintf("invalid JSON in %s", path)).WithCause(err)
	}
	return raw, nil
}

// LoadTestCaseRaw reads the test case document for id without interpreting it.
func (l *Loader) LoadTestCaseRaw(id string) (interface{}, error) {
	return l.LoadRaw(l.TestCasePath(id))
}

// LoadTestCase loads <testCaseDir>/<id>.json.
func (l *Loader) LoadTestCase(id string) (*Document, error) {
	path := l.TestCasePath(id)
	raw, err := l.LoadRaw(path)
	if err != nil {
		return nil, err
	}
	return ParseDocument(id, path, raw)
}

// LoadFragment loads <fragmentDir>/<name>.
func (l *Loader) LoadFragment(name string) (*Document, error) {
	path := l.FragmentPath(name)
	raw, err := l.LoadRaw(path)
	if err != nil {
		return nil, err
	}
	return ParseDocument(name, path, raw)
}

// LoadGroup reads a group document and returns the ids listed under field.
func (l *Loader) LoadGroup(path, field string) ([]string, error) {
	raw, err := l.LoadRaw(path)
	if err != nil {
		return nil, err
	}
	return ParseGroup(raw, field)
}

// ParseDocument converts a decoded JSON value into a Document. The value
// must be an object whose "command" key holds a list of objects.
func ParseDocument(name, path string, raw interface{}) (*Document, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, core.ErrInvalidDocument.WithMessage(fmt.Sprintf("%s: document is not an object", name))
	}
	items, ok := obj[KeyCommands].([]interface{})
	if !ok {
		return nil, core.ErrInvalidDocument.WithMessage(fmt.Sprintf("%s: %q must be a list", name, KeyCommands))
	}

	doc := &Document{Name: name, Path: path, Commands: make([]Command, 0, len(items))}
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, core.ErrInvalidDocument.WithMessage(fmt.Sprintf("%s: command[%d] is not an object", name, i))
		}
		doc.Commands = append(doc.Commands, Command(m))
	}
	return doc, nil
}

// ParseGroup extracts the ordered id list stored under field.
func ParseGroup(raw interface{}, field string) ([]string, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, core.ErrInvalidDocument.WithMessage("group document is not an object")
	}
	list, ok := obj[field].([]interface{})
	if !ok {
		return nil, core.ErrInvalidDocument.WithMessage(fmt.Sprintf("group document has no %q list", field))
	}

	ids := make([]string, 0, len(list))
	for i, v := range list {
		id, ok := v.(string)
		if !ok || id == "" {
			return nil, core.ErrInvalidDocument.WithMessage(fmt.Sprintf("%s[%d] is not a test case id", field, i))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

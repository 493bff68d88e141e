package command

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mohanavadivelu2/automation-framework/pkg/core"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadTestCase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "cases", "TC_001.json"),
		`{"command":[{"clean_up":"c.json"},{"widget_type":"button","xpath":"//a"}]}`)

	l := NewLoader(filepath.Join(dir, "cases"), filepath.Join(dir, "common"))
	doc, err := l.LoadTestCase("TC_001")
	if err != nil {
		t.Fatalf("LoadTestCase() error = %v", err)
	}
	if doc.Name != "TC_001" || len(doc.Commands) != 2 {
		t.Fatalf("doc = %+v", doc)
	}
	if doc.Commands[0].Kind() != KindDirective {
		t.Errorf("first command kind = %v", doc.Commands[0].Kind())
	}
}

func TestLoadTestCase_NotFound(t *testing.T) {
	l := NewLoader(t.TempDir(), t.TempDir())
	_, err := l.LoadTestCase("missing")
	if !errors.Is(err, core.ErrDocumentNotFound) {
		t.Errorf("error = %v, want ErrDocumentNotFound", err)
	}
	if !core.IsCategory(err, core.ErrCategoryValidation) {
		t.Errorf("category = %v, want validation", core.CategoryOf(err))
	}
}

func TestLoadTestCase_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.json"), `{"command": [`)

	_, err := NewLoader(dir, dir).LoadTestCase("bad")
	if !errors.Is(err, core.ErrInvalidJSON) {
		t.Errorf("error = %v, want ErrInvalidJSON", err)
	}
}

func TestParseDocument_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
	}{
		{"not object", []interface{}{}},
		{"no command", map[string]interface{}{}},
		{"command not list", map[string]interface{}{"command": "x"}},
		{"element not object", map[string]interface{}{"command": []interface{}{"x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument("doc", "", tt.raw)
			if !errors.Is(err, core.ErrInvalidDocument) {
				t.Errorf("error = %v, want ErrInvalidDocument", err)
			}
		})
	}
}

func TestLoadGroup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "group.json")
	writeFile(t, path, `{"all_test_case":["TC_001","TC_002"],"other":[1]}`)

	l := NewLoader(dir, dir)
	ids, err := l.LoadGroup(path, "all_test_case")
	if err != nil {
		t.Fatalf("LoadGroup() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "TC_001" || ids[1] != "TC_002" {
		t.Errorf("ids = %v", ids)
	}

	if _, err := l.LoadGroup(path, "missing"); !errors.Is(err, core.ErrInvalidDocument) {
		t.Errorf("missing field error = %v", err)
	}
	if _, err := l.LoadGroup(path, "other"); !errors.Is(err, core.ErrInvalidDocument) {
		t.Errorf("non-string ids error = %v", err)
	}
}

package command

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
)

// fakeFragments is an in-memory FragmentLoader that counts loads.
type fakeFragments struct {
	docs  map[string][]Command
	loads map[string]int
}

func newFakeFragments(docs map[string][]Command) *fakeFragments {
	return &fakeFragments{docs: docs, loads: make(map[string]int)}
}

func (f *fakeFragments) LoadFragment(name string) (*Document, error) {
	f.loads[name]++
	cmds, ok := f.docs[name]
	if !ok {
		return nil, core.ErrDocumentNotFound.WithMessage("no fragment " + name)
	}
	return &Document{Name: name, Commands: cmds}, nil
}

func types(cmds []Command) string {
	parts := make([]string, len(cmds))
	for i, c := range cmds {
		parts[i] = c.ActionType()
	}
	return strings.Join(parts, ",")
}

func TestExpand_NonReferenceIsIdentity(t *testing.T) {
	e := NewExpander(newFakeFragments(nil), logger.Discard(), ExpandOptions{})
	c := Command{"type": "x", "max_retry": 2.0}

	got, err := e.Expand([]Command{c})
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0]["type"] != "x" || got[0]["max_retry"] != 2.0 || len(got[0]) != 2 {
		t.Errorf("command changed: %v", got[0])
	}
}

func TestExpand_Transitive(t *testing.T) {
	frags := newFakeFragments(map[string][]Command{
		"outer.json": {{"type": "b"}, {"common_command": "inner.json"}, {"type": "e"}},
		"inner.json": {{"type": "c"}, {"type": "d"}},
	})
	e := NewExpander(frags, logger.Discard(), ExpandOptions{})

	got, err := e.Expand([]Command{{"type": "a"}, {"common_command": "outer.json"}, {"type": "f"}})
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if types(got) != "a,b,c,d,e,f" {
		t.Errorf("Expand() = %s, want a,b,c,d,e,f", types(got))
	}
}

func TestExpand_ReloadsEachOccurrence(t *testing.T) {
	frags := newFakeFragments(map[string][]Command{
		"f.json": {{"type": "x"}},
	})
	e := NewExpander(frags, logger.Discard(), ExpandOptions{})

	got, err := e.Expand([]Command{{"common_command": "f.json"}, {"common_command": "f.json"}})
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	if frags.loads["f.json"] != 2 {
		t.Errorf("loads = %d, want 2", frags.loads["f.json"])
	}
}

func TestExpand_MissingFragmentLenient(t *testing.T) {
	var buf strings.Builder
	e := NewExpander(newFakeFragments(nil), logger.NewWriter(&buf, logger.LevelDebug), ExpandOptions{})

	got, err := e.Expand([]Command{{"type": "a"}, {"common_command": "gone.json"}, {"type": "b"}})
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if types(got) != "a,b" {
		t.Errorf("Expand() = %s, want a,b", types(got))
	}
	if !strings.Contains(buf.String(), "gone.json") {
		t.Errorf("expected warning about gone.json, log: %s", buf.String())
	}
}

func TestExpand_MissingFragmentStrict(t *testing.T) {
	e := NewExpander(newFakeFragments(nil), logger.Discard(), ExpandOptions{Strict: true})

	_, err := e.Expand([]Command{{"common_command": "gone.json"}})
	if !errors.Is(err, core.ErrFragmentNotFound) {
		t.Fatalf("error = %v, want ErrFragmentNotFound", err)
	}
	if !core.IsCategory(err, core.ErrCategoryConfig) {
		t.Errorf("category = %v, want config", core.CategoryOf(err))
	}
}

func TestExpand_Cycle(t *testing.T) {
	frags := newFakeFragments(map[string][]Command{
		"a.json": {{"type": "x"}, {"common_command": "b.json"}},
		"b.json": {{"common_command": "a.json"}},
	})
	e := NewExpander(frags, logger.Discard(), ExpandOptions{})

	_, err := e.Expand([]Command{{"common_command": "a.json"}})
	if !errors.Is(err, core.ErrFragmentCycle) {
		t.Fatalf("error = %v, want ErrFragmentCycle", err)
	}
	if !strings.Contains(err.Error(), "a.json -> b.json -> a.json") {
		t.Errorf("error should show chain, got %q", err.Error())
	}
}

func TestExpand_SiblingReuseIsNotACycle(t *testing.T) {
	frags := newFakeFragments(map[string][]Command{
		"a.json":    {{"common_command": "leaf.json"}, {"common_command": "leaf.json"}},
		"leaf.json": {{"type": "x"}},
	})
	e := NewExpander(frags, logger.Discard(), ExpandOptions{})

	got, err := e.Expand([]Command{{"common_command": "a.json"}})
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if types(got) != "x,x" {
		t.Errorf("Expand() = %s", types(got))
	}
}

func TestExpand_MaxDepth(t *testing.T) {
	frags := newFakeFragments(map[string][]Command{
		"1.json": {{"common_command": "2.json"}},
		"2.json": {{"common_command": "3.json"}},
		"3.json": {{"type": "x"}},
	})

	_, err := NewExpander(frags, logger.Discard(), ExpandOptions{MaxDepth: 2}).
		Expand([]Command{{"common_command": "1.json"}})
	if !errors.Is(err, core.ErrFragmentDepth) {
		t.Fatalf("error = %v, want ErrFragmentDepth", err)
	}

	got, err := NewExpander(frags, logger.Discard(), ExpandOptions{MaxDepth: 3}).
		Expand([]Command{{"common_command": "1.json"}})
	if err != nil || types(got) != "x" {
		t.Errorf("depth 3: got %s, err %v", types(got), err)
	}
}

func TestExpand_FromDisk(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "common", "login.json"),
		`{"command":[{"type":"text"},{"common_command":"submit.json"}]}`)
	writeFile(t, filepath.Join(dir, "common", "submit.json"),
		`{"command":[{"type":"button"}]}`)
	writeFile(t, filepath.Join(dir, "common", "broken.json"), `{"command":"nope"}`)

	l := NewLoader(filepath.Join(dir, "cases"), filepath.Join(dir, "common"))
	e := NewExpander(l, logger.Discard(), ExpandOptions{})

	got, err := e.Expand([]Command{{"common_command": "login.json"}, {"common_command": "broken.json"}})
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if types(got) != "text,button" {
		t.Errorf("Expand() = %s, want text,button", types(got))
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetHome_EnvVar(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)
	t.Setenv("AUTOMATION_HOME", "/custom/path")

	if got := GetHome(); got != "/custom/path" {
		t.Errorf("GetHome() = %q, want %q", got, "/custom/path")
	}
}

func TestGetHome_WorkspaceInCwd(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)
	t.Setenv("AUTOMATION_HOME", "")

	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", "video: true\n")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	got, _ := filepath.EvalSymlinks(GetHome())
	want, _ := filepath.EvalSymlinks(dir)
	if got != want {
		t.Errorf("GetHome() = %q, want %q", got, want)
	}

	cfg, err := LoadFromHome()
	if err != nil {
		t.Fatalf("LoadFromHome failed: %v", err)
	}
	if !cfg.Video {
		t.Error("config.yml from the workspace was not loaded")
	}
}

func TestGetHome_FallbackNotEmpty(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)
	t.Setenv("AUTOMATION_HOME", "")

	if got := GetHome(); got == "" {
		t.Error("GetHome() returned empty string")
	}
}

func TestGetHome_Cached(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)
	t.Setenv("AUTOMATION_HOME", "/first")

	first := GetHome()

	// Changing the env after the first call has no effect
	t.Setenv("AUTOMATION_HOME", "/second")
	if second := GetHome(); first != second {
		t.Errorf("GetHome() not cached: first=%q, second=%q", first, second)
	}
}

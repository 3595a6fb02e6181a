package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProject(t *testing.T) {
	p, err := LoadProject("../../config/project.yaml")
	if err != nil {
		t.Fatalf("Failed to load project: %v", err)
	}

	if p.Document.Name != "splitter" {
		t.Errorf("Expected document name 'splitter', got '%s'", p.Document.Name)
	}
	if p.Document.Dir != filepath.Join("../../config", "work") {
		t.Errorf("Expected document dir to be resolved, got '%s'", p.Document.Dir)
	}
	if filepath.Base(p.Document.Layout) != "splitter.hcl" {
		t.Errorf("Expected layout splitter.hcl, got '%s'", p.Document.Layout)
	}
	if p.Optimization == nil || len(p.Optimization.Parameters) < 2 {
		t.Fatal("Expected optimization parameters")
	}
	last := p.Optimization.Parameters[len(p.Optimization.Parameters)-1]
	if last.Name != "wave" {
		t.Errorf("Expected companion symbol 'wave', got '%s'", last.Name)
	}
}

func TestLoadProjectResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	content := `
document:
  dir: out
  name: mmi
  layout: layouts/mmi.hcl
materials:
  library: /opt/lib
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	p, err := LoadProject(path)
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	if p.Document.Dir != filepath.Join(dir, "out") {
		t.Errorf("dir not resolved: %s", p.Document.Dir)
	}
	if p.Document.Layout != filepath.Join(dir, "layouts/mmi.hcl") {
		t.Errorf("layout not resolved: %s", p.Document.Layout)
	}
	if p.Materials.Library != "/opt/lib" {
		t.Errorf("absolute library path changed: %s", p.Materials.Library)
	}
}

func TestLoadProjectMissingFile(t *testing.T) {
	if _, err := LoadProject(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

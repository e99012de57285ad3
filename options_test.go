package webtask

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadOptionsParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "options.yaml")
	content := "max_steps: 15\nuse_screenshot: false\nwait_after_action: 500ms\nfiles:\n  - a.pdf\n  - b.png\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	opts, err := LoadOptions(path)
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if opts.MaxSteps != 15 {
		t.Errorf("MaxSteps = %d, want 15", opts.MaxSteps)
	}
	if opts.UseScreenshot {
		t.Error("expected UseScreenshot=false to override the default")
	}
	if opts.WaitAfterAction != 500*time.Millisecond {
		t.Errorf("WaitAfterAction = %v, want 500ms", opts.WaitAfterAction)
	}
	if len(opts.Files) != 2 || opts.Files[0] != "a.pdf" {
		t.Errorf("Files = %v", opts.Files)
	}
}

func TestLoadOptionsMissingFile(t *testing.T) {
	if _, err := LoadOptions(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing options file")
	}
}

func TestOptionsJSONSchemaIncludesFields(t *testing.T) {
	data, err := OptionsJSONSchema()
	if err != nil {
		t.Fatalf("OptionsJSONSchema: %v", err)
	}
	for _, want := range []string{"max_steps", "use_screenshot", "wait_after_action", "files"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("schema missing field %q", want)
		}
	}
}

package cmd

import (
	"path/filepath"
	"testing"
)

func TestDisasmModule_PrintsFunctionListing(t *testing.T) {
	path := writeModuleFile(t)
	if err := disasmModule(nil, []string{path}); err != nil {
		t.Fatalf("disasmModule: %v", err)
	}
}

func TestDisasmModule_MissingFileFails(t *testing.T) {
	if err := disasmModule(nil, []string{filepath.Join(t.TempDir(), "missing.asbc")}); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

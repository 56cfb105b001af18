package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(dir, "escape")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	testCases := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"direct_child", filepath.Join(dir, "TextLimitsall.txt"), false},
		{"nested_new_dir", filepath.Join(dir, "plots", "v2", "Limit_scan.png"), false},
		{"dir_itself", dir, false},
		{"dot_dot", filepath.Join(dir, "..", "TextLimitsall.txt"), true},
		{"label_traversal", filepath.Join(dir, "TextLimitsall/../../x.txt"), true},
		{"other_dir", filepath.Join(outside, "x.txt"), true},
		{"through_symlink", filepath.Join(dir, "escape", "x.txt"), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tc.path, dir)
			if tc.wantErr && err == nil {
				t.Errorf("expected error for %s", tc.path)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateFilenameComponent(t *testing.T) {
	testCases := []struct {
		input   string
		wantErr bool
	}{
		{"", false},
		{"tauhB", false},
		{"_v2.fixed-slope", false},
		{".", true},
		{"..", true},
		{"a/b", true},
		{"../x", true},
		{"with space", true},
		{"τ3μ", true},
		{string(make([]byte, 129)), true},
	}

	for _, tc := range testCases {
		err := ValidateFilenameComponent(tc.input)
		if tc.wantErr != (err != nil) {
			t.Errorf("ValidateFilenameComponent(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
		}
	}
}

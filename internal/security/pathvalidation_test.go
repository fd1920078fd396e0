package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// symlinkTree builds <tmp>/data with a pos_info dir and a link escaping to
// <tmp>/outside.
func symlinkTree(t *testing.T) (root, link string) {
	t.Helper()
	tmp := t.TempDir()
	root = filepath.Join(tmp, "data")
	outside := filepath.Join(tmp, "outside")
	for _, d := range []string{filepath.Join(root, "P01_01", "pos_info"), outside} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	if err := os.WriteFile(filepath.Join(outside, "secret.csv"), []byte("x"), 0644); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	link = filepath.Join(root, "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	return root, link
}

func TestValidatePathWithinDirectory(t *testing.T) {
	root, link := symlinkTree(t)

	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{"root itself", root, false},
		{"existing nested dir", filepath.Join(root, "P01_01", "pos_info"), false},
		{"file not created yet", filepath.Join(root, "P01_01", "pos_info", "vis.png"), false},
		{"dot dot out of root", filepath.Join(root, "..", "outside", "secret.csv"), true},
		{"relative traversal", "../../../etc/passwd", true},
		{"absolute elsewhere", "/etc/passwd", true},
		{"through symlink", filepath.Join(link, "secret.csv"), true},
		{"symlink itself", link, true},
		{"new file under symlink", filepath.Join(link, "new.csv"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, root)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantError %v", tt.path, err, tt.wantError)
			}
		})
	}
}

func TestResolveWithin(t *testing.T) {
	root, _ := symlinkTree(t)

	got, err := ResolveWithin(root, "P01_01/pos_info")
	if err != nil {
		t.Fatalf("ResolveWithin: %v", err)
	}
	if want := filepath.Join(root, "P01_01", "pos_info"); got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	for _, rel := range []string{"", "/etc", "../outside", "escape/secret.csv", "P01_01/../../outside"} {
		if _, err := ResolveWithin(root, rel); err == nil {
			t.Errorf("ResolveWithin(%q) accepted", rel)
		}
	}

	if _, err := ResolveWithin(root, "/etc"); !errors.Is(err, ErrPathEscape) {
		t.Errorf("expected ErrPathEscape, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		in, want string
	}{
		{"P01", "P01"},
		{"P01_01", "P01_01"},
		{"../../etc/passwd", "etc_passwd"},
		{"a b\tc", "a_b_c"},
		{"vid$$$1", "vid_1"},
		{"..", "unknown"},
		{"", "unknown"},
		{string(long), string(long[:maxFilenameLen])},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

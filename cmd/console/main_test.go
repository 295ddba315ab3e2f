package main

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestResolveWebDir(t *testing.T) {
	exe := func() (string, error) { return "/opt/console/bin/console", nil }
	abs := t.TempDir()

	cases := []struct {
		name, dir, want string
	}{
		{"empty stays off", "", ""},
		{"absolute kept", abs, abs},
		{"missing relative resolved from binary", "no-such-web-dir", filepath.Join("/opt", "no-such-web-dir")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := resolveWebDir(c.dir, exe); got != c.want {
				t.Fatalf("resolveWebDir(%q) = %q, want %q", c.dir, got, c.want)
			}
		})
	}

	failing := func() (string, error) { return "", errors.New("no executable") }
	if got := resolveWebDir("no-such-web-dir", failing); got != "no-such-web-dir" {
		t.Fatalf("got %q without executable path", got)
	}
}

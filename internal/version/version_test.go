package version

import "testing"

func TestFull(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "dev"
	if got := Full(); got != "reelscout version dev (built from source)" {
		t.Errorf("Full() with dev = %q, want %q", got, "reelscout version dev (built from source)")
	}

	Version = "1.2.3"
	Commit = "abc123"
	Date = "2026-01-02"
	if got := Full(); got != "reelscout version 1.2.3 (abc123, 2026-01-02)" {
		t.Errorf("Full() with 1.2.3 = %q", got)
	}
}

func TestUserAgent(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "dev"
	if got := UserAgent(); got != "reelscout/dev (https://github.com/reelscout/reelscout)" {
		t.Errorf("UserAgent() with dev = %q", got)
	}

	Version = "1.0.0"
	if got := UserAgent(); got != "reelscout/1.0.0 (https://github.com/reelscout/reelscout)" {
		t.Errorf("UserAgent() with 1.0.0 = %q", got)
	}
}

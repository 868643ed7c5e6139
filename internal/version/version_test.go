package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFill(t *testing.T) {
	oldVersion, oldCommit, oldDirty := Version, Commit, dirty
	defer func() { Version, Commit, dirty = oldVersion, oldCommit, oldDirty }()

	Version, Commit, dirty = "", "", false
	fill([]debug.BuildSetting{
		{Key: "vcs.revision", Value: "1f3a9c2d8e7b6a5f"},
		{Key: "vcs.modified", Value: "true"},
		{Key: "vcs.time", Value: "2026-03-14T09:26:53Z"},
	})

	if Commit != "1f3a9c2" {
		t.Errorf("Commit = %q, want 1f3a9c2", Commit)
	}
	if Version != "dev-20260314" {
		t.Errorf("Version = %q, want dev-20260314", Version)
	}
	if got := Get().String(); got != "dev-20260314 (commit: 1f3a9c2-dirty)" {
		t.Errorf("String() = %q", got)
	}
}

func TestFill_KeepsStampedValues(t *testing.T) {
	oldVersion, oldCommit, oldDirty := Version, Commit, dirty
	defer func() { Version, Commit, dirty = oldVersion, oldCommit, oldDirty }()

	Version, Commit, dirty = "v0.3.0", "abc1234", false
	fill([]debug.BuildSetting{
		{Key: "vcs.revision", Value: "ffffffffffff"},
		{Key: "vcs.modified", Value: "true"},
		{Key: "vcs.time", Value: "2026-03-14T09:26:53Z"},
	})

	if got := Get().String(); got != "v0.3.0 (commit: abc1234)" {
		t.Errorf("String() = %q", got)
	}
	if !strings.HasSuffix(UserAgent(), "/v0.3.0") {
		t.Errorf("UserAgent() = %q", UserAgent())
	}
}

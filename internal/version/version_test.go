package version

import (
	"strings"
	"testing"
)

// withBuildInfo sets the build variables for one test and restores them afterwards.
func withBuildInfo(t *testing.T, version, gitCommit, buildDate string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() {
		SetBuildInfo(origVersion, origCommit, origDate)
	})
	SetBuildInfo(version, gitCommit, buildDate)
}

func TestGetFormattedVersion(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		gitCommit string
		buildDate string
		expected  string
	}{
		{
			name:      "full build info",
			version:   "0.1.0",
			gitCommit: "abc1234567890",
			buildDate: "2026-10-01",
			expected:  "gemichat v0.1.0, commit abc1234, built 2026-10-01",
		},
		{
			name:      "short commit kept",
			version:   "0.2.0",
			gitCommit: "abc12",
			buildDate: "unknown",
			expected:  "gemichat v0.2.0, commit abc12",
		},
		{
			name:      "invalid version",
			version:   "not-a-version",
			gitCommit: "abc1234",
			buildDate: "2026-10-01",
			expected:  "gemichat vnot-a-version (invalid version)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuildInfo(t, tt.version, tt.gitCommit, tt.buildDate)

			if got := GetFormattedVersion(); got != tt.expected {
				t.Errorf("GetFormattedVersion() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetInfo(t *testing.T) {
	withBuildInfo(t, "1.2.3-beta.1+42.abc", "deadbeef", "2026-10-01")

	info, err := GetInfo()
	if err != nil {
		t.Fatalf("GetInfo() error = %v", err)
	}
	if info.Version != "1.2.3-beta.1+42.abc" {
		t.Errorf("Version = %q", info.Version)
	}
	if info.GitCommit != "deadbeef" {
		t.Errorf("GitCommit = %q", info.GitCommit)
	}
	if info.SemVer.Major() != 1 || info.SemVer.Minor() != 2 || info.SemVer.Patch() != 3 {
		t.Errorf("SemVer = %v", info.SemVer)
	}
	if !strings.Contains(info.Platform, "/") {
		t.Errorf("Platform = %q, want os/arch", info.Platform)
	}
}

func TestGetInfo_Invalid(t *testing.T) {
	withBuildInfo(t, "v.bad", "unknown", "unknown")

	if _, err := GetInfo(); err == nil {
		t.Error("expected an error for an invalid version")
	}
	if !strings.Contains(GetDetailedVersion(), "error:") {
		t.Error("expected GetDetailedVersion to report the invalid version")
	}
}

func TestGetDetailedVersion(t *testing.T) {
	withBuildInfo(t, "1.0.0-rc.1+7.abc", "deadbeef", "2026-10-01")

	detailed := GetDetailedVersion()

	for _, want := range []string{
		"gemichat v1.0.0-rc.1+7.abc",
		"Git Commit: deadbeef",
		"Build Date: 2026-10-01",
		"Build Metadata: 7.abc",
		"Prerelease: rc.1",
		"Build Type: release",
		"Go Version: go",
	} {
		if !strings.Contains(detailed, want) {
			t.Errorf("GetDetailedVersion() missing %q:\n%s", want, detailed)
		}
	}
}

func TestUserAgent(t *testing.T) {
	tests := []struct {
		version  string
		expected string
	}{
		{"0.1.0", "gemichat/0.1.0"},
		{"1.2.3-beta+99", "gemichat/1.2.3"},
		{"weird", "gemichat/weird"},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			withBuildInfo(t, tt.version, "unknown", "unknown")

			if got := UserAgent(); got != tt.expected {
				t.Errorf("UserAgent() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIsPrereleaseAndDevelopment(t *testing.T) {
	withBuildInfo(t, "0.1.0-alpha", "unknown", "2026-10-01")
	if !IsPrerelease() {
		t.Error("0.1.0-alpha should be a prerelease")
	}
	if !IsDevelopment() {
		t.Error("unknown commit should be a development build")
	}

	SetBuildInfo("0.1.0", "abc", "2026-10-01")
	if IsPrerelease() {
		t.Error("0.1.0 should not be a prerelease")
	}
	if IsDevelopment() {
		t.Error("complete build info should not be a development build")
	}
}

func TestGetInfo_DefaultVersion(t *testing.T) {
	if _, err := GetInfo(); err != nil {
		t.Errorf("default version %q is invalid: %v", Version, err)
	}
}

func TestGetDetailedVersion_Development(t *testing.T) {
	withBuildInfo(t, "0.1.0", "unknown", "unknown")

	if detailed := GetDetailedVersion(); !strings.Contains(detailed, "Build Type: development") {
		t.Errorf("GetDetailedVersion() should mark a development build:\n%s", detailed)
	}
}

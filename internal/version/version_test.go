package version

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	assert.Equal(t, "dev", info.Version)
	assert.NotEmpty(t, info.GitCommit)
	assert.LessOrEqual(t, len(info.GitCommit), len(unknown))
	assert.NotEmpty(t, info.BuildDate)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.Equal(t, "tekton.dev/v1", info.TektonAPI)
	assert.True(t, info.Prerelease)
}

func TestNewInfo(t *testing.T) {
	tests := []struct {
		name           string
		version        string
		commit         string
		date           string
		wantCommit     string
		wantDate       string
		wantPrerelease bool
	}{
		{"release", "v1.2.0", "5d4384ee4fb2", "2026-03-01", "5d4384e", "2026-03-01", false},
		{"release without v", "1.2.0", "abc", "2026-03-01", "abc", "2026-03-01", false},
		{"release candidate", "v1.3.0-rc.1", "5d4384ee4fb2", "", "5d4384e", "unknown", true},
		{"dev build", "dev", "", "", "unknown", "unknown", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := newInfo(tt.version, tt.commit, tt.date)

			assert.Equal(t, tt.version, info.Version)
			assert.Equal(t, tt.wantCommit, info.GitCommit)
			assert.Equal(t, tt.wantDate, info.BuildDate)
			assert.Equal(t, tt.wantPrerelease, info.Prerelease)
		})
	}
}

func TestInfo_String(t *testing.T) {
	info := newInfo("v0.4.1", "5d4384ee4fb2", "2026-03-01")

	assert.Equal(t,
		"runlens v0.4.1 (commit: 5d4384e, built: 2026-03-01, "+runtime.Version()+" "+info.Platform+", tekton.dev/v1)",
		info.String())
}

func TestInfo_JSON(t *testing.T) {
	info := newInfo("v0.4.1", "5d4384ee4fb2", "2026-03-01")

	out, err := info.JSON()
	require.NoError(t, err)
	assert.Contains(t, out, `"tektonApi": "tekton.dev/v1"`)

	var decoded Info
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, info, decoded)
}

package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestShort(t *testing.T) {
	tests := []struct {
		name    string
		version string
		module  string
		want    string
	}{
		{"ldflags win", "v1.2.0", "v1.1.0", "v1.2.0"},
		{"module fallback", "dev", "v1.1.0", "v1.1.0"},
		{"devel build", "dev", "(devel)", "dev"},
		{"no build info", "dev", "", "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldVersion, oldRead := Version, readBuildInfo
			t.Cleanup(func() { Version, readBuildInfo = oldVersion, oldRead })

			Version = tt.version
			readBuildInfo = func() (*debug.BuildInfo, bool) {
				if tt.module == "" {
					return nil, false
				}
				return &debug.BuildInfo{Main: debug.Module{Version: tt.module}}, true
			}

			if got := Short(); got != tt.want {
				t.Errorf("Short() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	if got := Info(); !strings.HasPrefix(got, "nodegen ") {
		t.Errorf("Info() = %q, want nodegen prefix", got)
	}
}

/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package libinfo

import (
	"debug/buildinfo"
	"runtime/debug"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestExtractLibVersion(t *testing.T) {
	tests := []struct {
		name        string
		buildInfo   *buildinfo.BuildInfo
		expectedVer string
	}{
		{
			name:        "dependency",
			buildInfo:   &buildinfo.BuildInfo{Deps: []*debug.Module{{Path: moduleName, Version: "v1.2.3"}}},
			expectedVer: "v1.2.3",
		},
		{
			name:        "dependency, v2",
			buildInfo:   &buildinfo.BuildInfo{Deps: []*debug.Module{{Path: moduleName + "/v2", Version: "v2.0.0"}}},
			expectedVer: "v2.0.0",
		},
		{
			name:        "main module",
			buildInfo:   &buildinfo.BuildInfo{Main: debug.Module{Path: moduleName, Version: "v0.3.0"}},
			expectedVer: "v0.3.0",
		},
		{
			name:        "module with the same prefix is ignored",
			buildInfo:   &buildinfo.BuildInfo{Deps: []*debug.Module{{Path: moduleName + "-extra", Version: "v1.0.0"}}},
			expectedVer: "",
		},
		{
			name:        "nil build info",
			expectedVer: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expectedVer, extractLibVersion(tt.buildInfo, moduleName))
		})
	}
}

func TestAddPrometheusLibVersionLabel(t *testing.T) {
	labels := prometheus.Labels{"service": "files"}
	got := AddPrometheusLibVersionLabel(labels)
	require.Equal(t, "files", got["service"])
	require.NotEmpty(t, got[PrometheusLibVersionLabel])
	require.NotContains(t, labels, PrometheusLibVersionLabel, "passed labels must not be modified")
}

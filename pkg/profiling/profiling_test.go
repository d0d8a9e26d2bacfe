package profiling

import (
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsukikage-sato/contact-web/config"
)

func TestParseProfileTypes_Default(t *testing.T) {
	got, err := parseProfileTypes("")
	require.NoError(t, err)
	assert.Equal(t, defaultProfileTypes, got)
}

func TestParseProfileTypes_Custom(t *testing.T) {
	got, err := parseProfileTypes("cpu, alloc_space,mutex")
	require.NoError(t, err)

	assert.Equal(t, []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileAllocSpace,
		pyroscope.ProfileMutexCount,
		pyroscope.ProfileMutexDuration,
	}, got)
}

func TestParseProfileTypes_Invalid(t *testing.T) {
	_, err := parseProfileTypes("cpu,unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported O11Y_PROFILING_SAMPLE_TYPES")
}

func TestBuildApplicationName(t *testing.T) {
	got := buildApplicationName("tsukikage-contact", "tsukikage-contact", "tsukikage", "production", "1.0.0", "inst-1")
	assert.Equal(t, "tsukikage-contact{service_name=tsukikage-contact,namespace=tsukikage,environment=production,service_version=1.0.0,instance=inst-1}", got)
}

func TestBuildApplicationName_DefaultBase(t *testing.T) {
	got := buildApplicationName("  ", "svc", "ns", "development", "0.1.0", "")
	assert.Equal(t, "tsukikage-contact{service_name=svc,namespace=ns,environment=development,service_version=0.1.0,instance=}", got)
}

func TestInitProfiler_Disabled(t *testing.T) {
	stop, err := InitProfiler(config.ProfilingConfig{Enabled: false}, "svc", "ns", "1.0.0", "i", "test")
	require.NoError(t, err)
	assert.NotPanics(t, stop)
}

func TestInitProfiler_MissingEndpoint(t *testing.T) {
	_, err := InitProfiler(config.ProfilingConfig{Enabled: true, Endpoint: " "}, "svc", "ns", "1.0.0", "i", "test")
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := New()
	assert.Empty(t, cfg.Validate())
	assert.Equal(t, "default", cfg.Operator.Application)
	assert.Equal(t, 30*time.Second, cfg.Operator.Interval)
}

func TestOperatorOptionsValidateRejectsEmptyApplication(t *testing.T) {
	o := NewOperatorOptions()
	o.Application = ""
	errs := o.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "application")
}

func TestOperatorOptionsValidateRejectsNonPositiveInterval(t *testing.T) {
	o := NewOperatorOptions()
	o.Interval = 0
	errs := o.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "interval")
}

func TestMqttOptionsToClientConfig(t *testing.T) {
	o := NewMqttOptions()
	o.Broker = "tcp://broker:1883"
	o.KeepAlive = 45 * time.Second

	cc := o.ToClientConfig()
	assert.Equal(t, "tcp://broker:1883", cc.BrokerURL)
	assert.EqualValues(t, 45, cc.KeepAlive)
	assert.True(t, cc.CleanStart)
}

func TestServerOptionsValidateRejectsMalformedAddr(t *testing.T) {
	o := &ServerOptions{Addr: "not-an-address"}
	assert.NotEmpty(t, o.Validate())

	o.Addr = "0.0.0.0:9090"
	assert.Empty(t, o.Validate())
}

func TestLoadAppliesFlagOverrides(t *testing.T) {
	cfg := New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"--operator.application=fleet-a", "--mqtt.broker=tcp://example:1883"}))

	require.NoError(t, Load(cfg, fs, ""))
	assert.Equal(t, "fleet-a", cfg.Operator.Application)
	assert.Equal(t, "tcp://example:1883", cfg.Mqtt.Broker)
	assert.Empty(t, cfg.Validate())
}

func TestLoadAndWatchReloadsIntervalOnFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("operator:\n  application: fleet-a\n  interval: 10s\n"), 0o644))

	cfg := New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.AddFlags(fs)
	require.NoError(t, fs.Parse(nil))

	live, err := LoadAndWatch(cfg, fs, path, nil)
	require.NoError(t, err)
	assert.Equal(t, "fleet-a", cfg.Operator.Application)
	assert.Equal(t, 10*time.Second, live.Interval())

	require.NoError(t, os.WriteFile(path, []byte("operator:\n  application: fleet-a\n  interval: 45s\n"), 0o644))

	require.Eventually(t, func() bool {
		return live.Interval() == 45*time.Second
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAllGroupsSatisfyIOptions(t *testing.T) {
	var groups []IOptions = []IOptions{
		NewOperatorOptions(),
		NewMqttOptions(),
		NewRegistryOptions(),
	}
	for _, g := range groups {
		assert.NotNil(t, g)
	}
}

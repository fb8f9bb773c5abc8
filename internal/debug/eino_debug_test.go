package debug

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/MomentumGo/config"
)

func stubInit(t *testing.T, fn func(ctx context.Context, port string) error) {
	t.Helper()
	orig := devopsInit
	devopsInit = fn
	t.Cleanup(func() { devopsInit = orig })
}

func TestDisabledDebuggerIsNoop(t *testing.T) {
	called := false
	stubInit(t, func(context.Context, string) error {
		called = true
		return nil
	})

	cfg := config.DefaultConfigWithRoot(t.TempDir())
	d := NewEinoDebugger(cfg, nil)
	require.NoError(t, d.Initialize(context.Background()))
	assert.False(t, called)
	assert.False(t, d.IsEnabled())
	assert.Empty(t, d.GetDebugURL())
}

func TestEnabledDebugger(t *testing.T) {
	var ports []string
	stubInit(t, func(_ context.Context, port string) error {
		ports = append(ports, port)
		return nil
	})

	cfg := config.DefaultConfigWithRoot(t.TempDir())
	cfg.EinoDebugEnabled = true
	cfg.EinoDebugPort = 6000
	d := NewEinoDebugger(cfg, nil)
	require.NoError(t, d.Initialize(context.Background()))
	assert.Equal(t, []string{"6000"}, ports)
	assert.Equal(t, "http://localhost:6000", d.GetDebugURL())
}

func TestDebuggerInitFailure(t *testing.T) {
	stubInit(t, func(context.Context, string) error { return errors.New("port in use") })

	cfg := config.DefaultConfigWithRoot(t.TempDir())
	cfg.EinoDebugEnabled = true
	err := NewEinoDebugger(cfg, nil).Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port in use")
}

package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/synapse-topology/internal/config"
)

func TestServerCommandFlags(t *testing.T) {
	// the invocation topology-cfg scan suggests when nothing answers
	cmd, rest, err := rootCmd.Find([]string{"server", "--announce"})
	require.NoError(t, err)
	assert.Equal(t, serverCmd, cmd)

	require.NoError(t, cmd.ParseFlags(rest))
	t.Cleanup(func() { announce = false })
	assert.True(t, announce)
}

func TestPreferredPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	registryPath = path
	t.Cleanup(func() { registryPath = "" })

	p, err := preferredPort()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultServerPort, p)

	reg, err := config.LoadRegistryFrom(path)
	require.NoError(t, err)
	reg.Preferences.ServerPort = 9999
	require.NoError(t, reg.Save())

	p, err = preferredPort()
	require.NoError(t, err)
	assert.Equal(t, 9999, p)
}

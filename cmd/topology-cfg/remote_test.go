package main

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/synapse-topology/internal/apiclient"
	"github.com/muurk/synapse-topology/internal/config"
	"github.com/muurk/synapse-topology/internal/flow"
	"github.com/muurk/synapse-topology/internal/server"
)

func newAPIServer(t *testing.T) string {
	t.Helper()
	srv, err := server.New(&server.Config{})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL + "/api"
}

func TestRemotePushAndPull(t *testing.T) {
	api := newAPIServer(t)
	path := writeRegistry(t, "prod", completeAnswers())

	out, err := run(t, "", "remote", "push", api, "--config", path, "--session", "prod")
	require.NoError(t, err)
	assert.Contains(t, out, "Answers pushed")

	// drive the server forward so the pulled session has moved
	c := apiclient.NewClient(api)
	_, err = c.Navigate(context.Background(), flow.Advance())
	require.NoError(t, err)

	out, err = run(t, "", "remote", "pull", api, "--config", path, "--session", "copy")
	require.NoError(t, err)
	assert.Contains(t, out, "Session pulled")

	reg, err := config.LoadRegistryFrom(path)
	require.NoError(t, err)
	s := reg.GetSession("copy")
	require.NotNil(t, s)
	assert.Equal(t, flow.ScreenServerName, s.Screen)
	assert.Equal(t, "example.com", s.Answers.ServerName)
	assert.Equal(t, flow.DelegationLocal, s.Context.Delegation)

	out, err = run(t, "", "remote", "state", api)
	require.NoError(t, err)
	assert.Contains(t, out, "server-name")
}

func TestRemoteUnreachable(t *testing.T) {
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	out, err := run(t, "", "remote", "state", url+"/api", "--timeout", "1")
	assert.ErrorIs(t, err, errRemoteFailed)
	assert.Contains(t, out, "Could not read server state")
}

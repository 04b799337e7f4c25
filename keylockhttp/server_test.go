/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package keylockhttp

import (
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-keylock/keylock"
	"github.com/acronis/go-keylock/log/logtest"
)

func TestServer(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Address = "127.0.0.1:0"
	logRecorder := logtest.NewRecorder()
	srv := NewServer(cfg, NewHandler(keylock.New(), logRecorder), logRecorder)
	require.Nil(t, srv.Addr())
	require.NoError(t, srv.Listen())
	require.NotNil(t, srv.Addr())

	fatalErr := make(chan error, 1)
	go srv.Start(fatalErr)

	resp, err := http.Get("http://" + srv.Addr().String() + "/locks/x")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"identifier":"x","state":"undefined"}`, string(body))

	require.NoError(t, srv.Stop(true))
	select {
	case err = <-fatalErr:
		require.FailNow(t, "unexpected fatal error", err)
	default:
	}
	_, found := logRecorder.FindEntry("introspection HTTP server closed")
	require.True(t, found)
}

func TestServer_ListenError(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Address = "127.0.0.1:0"
	first := NewServer(cfg, http.NotFoundHandler(), nil)
	require.NoError(t, first.Listen())
	defer func() { require.NoError(t, first.Stop(false)) }()

	cfg.Address = first.Addr().String()
	second := NewServer(cfg, http.NotFoundHandler(), nil)
	fatalErr := make(chan error, 1)
	second.Start(fatalErr)
	select {
	case err := <-fatalErr:
		require.ErrorContains(t, err, "listen")
	case <-time.After(time.Second):
		require.FailNow(t, "fatal error is expected")
	}
}

func TestServer_StopWithoutStart(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Address = "127.0.0.1:0"
	srv := NewServer(cfg, http.NotFoundHandler(), nil)
	require.NoError(t, srv.Listen())
	addr := srv.Addr().String()

	require.NoError(t, srv.Stop(true))
	require.Nil(t, srv.Addr())

	// The port is free again.
	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	// Stopping a server that has never listened is a no-op.
	require.NoError(t, NewServer(cfg, http.NotFoundHandler(), nil).Stop(true))
}

// Copyright © 2016, The T Authors.

package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopane/edlib/httpapi"
	"github.com/gopane/edlib/instance"
	"github.com/gopane/edlib/internal/memdoc"
)

func newTestServer(t *testing.T) (*instance.Instance, *httptest.Server) {
	t.Helper()
	inst := instance.New(nil)
	go inst.Run(nil)
	t.Cleanup(inst.Stop)

	r := mux.NewRouter()
	httpapi.NewServer(inst).RegisterHandlers(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return inst, srv
}

func TestListPanesIncludesRoot(t *testing.T) {
	inst, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/panes")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var infos []httpapi.PaneInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))
	require.NotEmpty(t, infos)
	assert.Equal(t, inst.Root.Name, infos[0].Name)
	assert.True(t, infos[0].IsRoot)
}

func TestPaneInfoMissingReturnsNotFound(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/panes/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListDocsAndMarks(t *testing.T) {
	inst, srv := newTestServer(t)

	done := make(chan struct{})
	inst.Send(func() {
		d := memdoc.New(inst.Root, "scratch", "abc")
		d.NewMark(1)
		inst.RegisterDocument("scratch", d.Base)
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("document registration never ran")
	}

	resp, err := http.Get(srv.URL + "/docs")
	require.NoError(t, err)
	defer resp.Body.Close()
	var names []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&names))
	assert.Equal(t, []string{"scratch"}, names)

	resp2, err := http.Get(srv.URL + "/docs/scratch/marks")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	var marks []httpapi.MarkInfo
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&marks))
	assert.Len(t, marks, 1)
}

func TestDocMarksMissingDocReturnsNotFound(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/docs/nope/marks")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

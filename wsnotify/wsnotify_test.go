// Copyright © 2016, The T Authors.

package wsnotify_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/gopane/edlib/command"
	"github.com/gopane/edlib/instance"
	"github.com/gopane/edlib/internal/memdoc"
	"github.com/gopane/edlib/wsnotify"
)

func TestBridgeForwardsDocReplacedToClient(t *testing.T) {
	inst := instance.New(nil)
	go inst.Run(nil)
	defer inst.Stop()

	var d *memdoc.Document
	ready := make(chan struct{})
	var bridge *wsnotify.Bridge
	inst.Send(func() {
		d = memdoc.New(inst.Root, "scratch", "hello")
		bridge = wsnotify.New(inst, d.Pane, "doc:replaced")
		close(ready)
	})
	<-ready

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, bridge.Upgrade(w, r))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server goroutine time to register the client before
	// firing the event it's meant to observe.
	time.Sleep(20 * time.Millisecond)

	inst.Send(func() {
		from := d.NewMark(0)
		to := d.NewMark(5)
		d.Handle(&command.Info{Key: "doc:replace", Mark: from, Mark2: to, Str: "bye!!"})
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev wsnotify.Event
	require.NoError(t, conn.ReadJSON(&ev))
	require.Equal(t, "doc:replaced", ev.Key)
}

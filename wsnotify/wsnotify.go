// Copyright © 2016, The T Authors.

// Package wsnotify bridges the notifier bus of spec §4.8 to external
// websocket clients, so a browser-based or remote UI can observe
// "doc:replaced", "rangetrack:recheck-*", and other broadcast events
// without polling httpapi (SPEC_FULL.md DOMAIN STACK, "notification
// transport").
//
// Grounded on websocket/websocket.go: the same goSend/goRecv
// goroutine-pair-plus-channel pattern and the same sync.Once-guarded
// close handshake, materially adapted from framing arbitrary editor
// JSON requests to framing notifier-bus events, and from a single
// Conn to a registry of Conns each subscribed to a named event.
package wsnotify

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gopane/edlib/command"
	"github.com/gopane/edlib/instance"
	"github.com/gopane/edlib/pane"
)

// SendTimeout bounds how long a single Event write may block before
// the bridge gives up on that client and drops it.
const SendTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 5 * time.Second,
	CheckOrigin:      func(*http.Request) bool { return true },
}

// An Event is one notifier-bus delivery forwarded to a client.
type Event struct {
	Key     string `json:"key"`
	Payload any    `json:"payload,omitempty"`
}

// A Bridge listens for an event (and any sub-event prefixed by it) on
// one document or pane and fans every delivery out to every currently
// connected websocket client (SPEC_FULL.md's "notification
// transport").
type Bridge struct {
	inst   *instance.Instance
	source *pane.Pane
	event  string
	sink   *pane.Pane // the listener pane subscribed via pane.AddNotify

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan Event
	once sync.Once
}

// New creates a Bridge forwarding event (and sub-events) fired on
// source to every connected client. New registers its listener pane
// under inst.Root directly; it does not go through inst.Send. The
// listener's handler runs on whichever goroutine fires the event and
// only queues the event on each client's channel; each client's own
// send goroutine performs the write.
func New(inst *instance.Instance, source *pane.Pane, event string) *Bridge {
	br := &Bridge{
		inst:    inst,
		source:  source,
		event:   event,
		clients: map[*client]struct{}{},
	}
	br.sink = pane.Register(inst.Root, 0, br.handle)
	pane.AddNotify(source, br.sink, event)
	return br
}

func (br *Bridge) handle(ci *command.Info) (int, error) {
	br.broadcast(Event{Key: ci.Key, Payload: ci.Any})
	return 1, nil
}

func (br *Bridge) broadcast(ev Event) {
	br.mu.Lock()
	defer br.mu.Unlock()
	for c := range br.clients {
		select {
		case c.send <- ev:
		default:
			// Slow client: drop it rather than block the dispatch
			// goroutine every other pane depends on.
			go br.drop(c)
		}
	}
}

// Upgrade upgrades req into a websocket client that receives every
// future event this Bridge forwards, until the client disconnects.
// Upgrade must be called from an http.Handler goroutine, not the
// instance's dispatch goroutine.
func (br *Bridge) Upgrade(w http.ResponseWriter, req *http.Request) error {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return err
	}
	c := &client{conn: conn, send: make(chan Event, 16)}

	br.mu.Lock()
	br.clients[c] = struct{}{}
	br.mu.Unlock()

	go br.goSend(c)
	go br.goRecv(c)
	return nil
}

func (br *Bridge) goSend(c *client) {
	for ev := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(SendTimeout))
		if err := c.conn.WriteJSON(ev); err != nil {
			br.drop(c)
			return
		}
	}
}

// goRecv discards every inbound message: clients only receive. It
// exists solely so the connection keeps responding to ping/pong and
// notices a client-initiated close.
func (br *Bridge) goRecv(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			br.drop(c)
			return
		}
	}
}

func (br *Bridge) drop(c *client) {
	c.once.Do(func() {
		br.mu.Lock()
		delete(br.clients, c)
		br.mu.Unlock()
		close(c.send)
		c.conn.Close()
	})
}

// Close disconnects every client and stops forwarding events.
func (br *Bridge) Close() {
	pane.DropNotifiers(br.source, br.event)
	br.mu.Lock()
	clients := make([]*client, 0, len(br.clients))
	for c := range br.clients {
		clients = append(clients, c)
	}
	br.mu.Unlock()
	for _, c := range clients {
		br.drop(c)
	}
}

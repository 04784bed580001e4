package web

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// client serializes writes to one connection; gorilla allows a single
// concurrent writer.
type client struct {
	conn *websocket.Conn
	wmx  sync.Mutex
	subs map[string]struct{}
}

func (c *client) write(data []byte) error {
	c.wmx.Lock()
	defer c.wmx.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

const (
	writeWait       = time.Second
	deadlineSeconds = 5
)

type keeper struct {
	mx      sync.RWMutex
	clients map[*websocket.Conn]*client
	onCount func(int)
	// onRequest handles JSON text messages; other text is a topic name.
	onRequest func(data []byte)
}

func newKeeper(onCount func(int), onRequest func([]byte)) *keeper {
	return &keeper{
		clients:   make(map[*websocket.Conn]*client),
		onCount:   onCount,
		onRequest: onRequest,
	}
}

func (k *keeper) addConn(conn *websocket.Conn) {
	k.mx.Lock()
	defer k.mx.Unlock()
	k.clients[conn] = &client{conn: conn, subs: make(map[string]struct{})}
	k.onCount(len(k.clients))
}

func (k *keeper) subscribe(conn *websocket.Conn, topic string) {
	k.mx.Lock()
	defer k.mx.Unlock()
	if c, ok := k.clients[conn]; ok {
		c.subs[topic] = struct{}{}
	}
}

// walkSubs calls fn for every (client, topic) subscription. Write errors
// drop the client instead of aborting the walk.
func (k *keeper) walkSubs(fn func(c *client, topic string) error) {
	k.mx.RLock()
	type sub struct {
		c     *client
		topic string
	}
	subs := make([]sub, 0, len(k.clients))
	for _, c := range k.clients {
		for topic := range c.subs {
			subs = append(subs, sub{c: c, topic: topic})
		}
	}
	k.mx.RUnlock()

	for _, s := range subs {
		if err := fn(s.c, s.topic); err != nil {
			k.close(s.c.conn)
		}
	}
}

func (k *keeper) close(conn *websocket.Conn) {
	k.mx.Lock()
	defer k.mx.Unlock()

	if _, ok := k.clients[conn]; !ok {
		return
	}
	_ = conn.Close()
	delete(k.clients, conn)
	k.onCount(len(k.clients))
}

func (k *keeper) keep(conn *websocket.Conn) {
	pinger := time.NewTicker(time.Second)
	defer pinger.Stop()

	var lastAlive atomic.Int64
	lastAlive.Store(time.Now().UnixNano())
	read := make(chan msg)
	defer k.close(conn)

	ponger := conn.PongHandler()
	conn.SetPongHandler(func(appData string) error {
		lastAlive.Store(time.Now().UnixNano())
		return ponger(appData)
	})

	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(read)
		for {
			mt, data, err := conn.ReadMessage()
			select {
			case read <- msg{mType: mt, data: data, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-pinger.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return
			}
			if time.Since(time.Unix(0, lastAlive.Load())).Seconds() > deadlineSeconds {
				return
			}
		case msg, ok := <-read:
			if !ok || msg.err != nil {
				return
			}

			switch msg.mType {
			case websocket.CloseMessage:
				return
			case websocket.TextMessage:
				switch {
				case len(msg.data) == 0:
				case msg.data[0] == '{':
					k.onRequest(msg.data)
				default:
					k.subscribe(conn, string(msg.data))
				}
			}

			lastAlive.Store(time.Now().UnixNano())
		}
	}
}

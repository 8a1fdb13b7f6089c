// Package realtime is the client side of the TaskFlow socket channel, a
// socket.io v4 connection carried over a plain websocket.
//
// Frames are engine.io packets: a type digit followed by an optional
// payload. Socket.io packets ride inside engine.io "message" packets, so a
// namespace connect is "40" and an event is `42["name",...]`.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event names raised locally
const (
	EventConnect      = "connect"
	EventConnectError = "connect_error"
	EventDisconnect   = "disconnect"
)

// engine.io packet types
const (
	eioOpen    = '0'
	eioClose   = '1'
	eioPing    = '2'
	eioPong    = '3'
	eioMessage = '4'
)

// socket.io packet types, carried inside an engine.io message
const (
	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioConnectError = '4'
)

// ErrNotConnected is returned by Emit before Connect or after Close
var ErrNotConnected = errors.New("socket not connected")

// Event is one frame delivered to subscribers
type Event struct {
	Name string
	Args []json.RawMessage
	Raw  string
}

type openPacket struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
}

// Client is a single socket connection
type Client struct {
	url    string
	dialer *websocket.Dialer

	mu       sync.Mutex
	writeMu  sync.Mutex
	conn     *websocket.Conn
	id       string
	handlers map[string][]func(Event)
	any      []func(Event)
	done     chan struct{}
}

// NewClient creates a client for the server at rawURL (http, https, ws or
// wss). Nothing is dialed until Connect.
func NewClient(rawURL string) *Client {
	return &Client{
		url:      rawURL,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		handlers: make(map[string][]func(Event)),
	}
}

// On subscribes fn to events named name
func (c *Client) On(name string, fn func(Event)) {
	c.mu.Lock()
	c.handlers[name] = append(c.handlers[name], fn)
	c.mu.Unlock()
}

// OnAny subscribes fn to every event
func (c *Client) OnAny(fn func(Event)) {
	c.mu.Lock()
	c.any = append(c.any, fn)
	c.mu.Unlock()
}

// ID returns the socket id from the connect acknowledgement
func (c *Client) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Connected reports whether a connection is open
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Done is closed when the reader stops
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Endpoint builds the websocket URL for token
func Endpoint(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse socket URL: %w", err)
	}
	switch u.Scheme {
	case "http", "ws", "":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported socket scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/socket.io/"
	}
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect dials the server, completes the engine.io handshake and requests
// the default namespace. The acknowledgement arrives asynchronously as a
// connect event.
func (c *Client) Connect(ctx context.Context, token string) error {
	if c.Connected() {
		return nil
	}

	endpoint, err := Endpoint(c.url, token)
	if err != nil {
		return err
	}

	conn, resp, err := c.dialer.DialContext(ctx, endpoint, http.Header{})
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to dial socket: %w", err)
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to read open packet: %w", err)
	}
	if len(msg) == 0 || msg[0] != eioOpen {
		conn.Close()
		return fmt.Errorf("unexpected handshake packet %q", msg)
	}
	var open openPacket
	if err := json.Unmarshal(msg[1:], &open); err != nil {
		conn.Close()
		return fmt.Errorf("failed to parse open packet: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte{eioMessage, sioConnect}); err != nil {
		conn.Close()
		return fmt.Errorf("failed to send namespace connect: %w", err)
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.conn = conn
	c.done = done
	c.mu.Unlock()

	go c.read(conn, done)
	return nil
}

// Emit sends an event with JSON-encoded args
func (c *Client) Emit(name string, args ...any) error {
	frame, err := json.Marshal(append([]any{name}, args...))
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return c.write(append([]byte{eioMessage, sioEvent}, frame...))
}

// Close disconnects and waits for the reader to stop
func (c *Client) Close() error {
	c.mu.Lock()
	conn, done := c.conn, c.done
	c.conn = nil
	c.id = ""
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	_ = conn.WriteMessage(websocket.TextMessage, []byte{eioMessage, sioDisconnect})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()

	err := conn.Close()
	<-done
	return err
}

func (c *Client) write(frame []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) read(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	defer c.dispatch(Event{Name: EventDisconnect})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && c.current(conn) {
				log.Printf("warning: socket read failed: %v", err)
			}
			c.drop(conn)
			return
		}
		if len(msg) == 0 {
			continue
		}

		switch msg[0] {
		case eioPing:
			if err := c.write([]byte{eioPong}); err != nil {
				log.Printf("warning: failed to answer ping: %v", err)
			}
		case eioClose:
			c.drop(conn)
			conn.Close()
			return
		case eioMessage:
			c.handleMessage(string(msg[1:]))
		}
	}
}

func (c *Client) handleMessage(packet string) {
	if packet == "" {
		return
	}

	kind, body := packet[0], packet[1:]
	switch kind {
	case sioConnect:
		var ack struct {
			SID string `json:"sid"`
		}
		_ = json.Unmarshal([]byte(body), &ack)
		c.mu.Lock()
		c.id = ack.SID
		c.mu.Unlock()
		c.dispatch(Event{Name: EventConnect, Args: []json.RawMessage{json.RawMessage(quote(ack.SID))}, Raw: packet})
	case sioConnectError:
		c.dispatch(Event{Name: EventConnectError, Args: []json.RawMessage{json.RawMessage(body)}, Raw: packet})
	case sioDisconnect:
		c.dispatch(Event{Name: EventDisconnect, Raw: packet})
	case sioEvent:
		ev, err := parseEvent(body)
		if err != nil {
			log.Printf("warning: dropping malformed socket event: %v", err)
			return
		}
		ev.Raw = packet
		c.dispatch(ev)
	}
}

func parseEvent(body string) (Event, error) {
	// Event frames may carry a namespace prefix ("/admin,") and an ack id
	if i := strings.IndexByte(body, '['); i > 0 {
		body = body[i:]
	}
	var parts []json.RawMessage
	if err := json.Unmarshal([]byte(body), &parts); err != nil {
		return Event{}, err
	}
	if len(parts) == 0 {
		return Event{}, errors.New("empty event frame")
	}
	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return Event{}, fmt.Errorf("event name: %w", err)
	}
	return Event{Name: name, Args: parts[1:]}, nil
}

func (c *Client) dispatch(ev Event) {
	c.mu.Lock()
	fns := append([]func(Event){}, c.handlers[ev.Name]...)
	fns = append(fns, c.any...)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (c *Client) current(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn == conn
}

func (c *Client) drop(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.id = ""
	}
	c.mu.Unlock()
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/shortplay/shortplay/log"
)

// observed lists the mpv properties whose changes are turned into events.
var observed = []string{"paused-for-cache"}

// EventListener keeps a persistent IPC connection open and translates mpv events into sink events.
// Property observers are registered on that same connection, since mpv scopes them per client.
type EventListener struct {
	socketPath string
	emit       func(Event)

	mu        sync.Mutex
	conn      net.Conn
	listening bool
	done      chan struct{}
}

// NewEventListener creates a listener for the mpv instance behind socketPath.
func NewEventListener(socketPath string, emit func(Event)) *EventListener {
	return &EventListener{
		socketPath: socketPath,
		emit:       emit,
	}
}

// Start connects, registers observers and begins the read loop.
func (el *EventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	for i, name := range observed {
		if err := writeCommand(conn, requestIDs.Add(1), []any{"observe_property", i + 1, name}); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	el.conn = conn
	el.listening = true
	el.done = make(chan struct{})
	go el.readLoop(conn, el.done)

	log.Infof("mpv event listener started on %s", el.socketPath)
	return nil
}

// Stop closes the connection and waits for the read loop to exit.
func (el *EventListener) Stop() {
	el.mu.Lock()
	if !el.listening {
		el.mu.Unlock()
		return
	}
	el.listening = false
	conn, done := el.conn, el.done
	el.mu.Unlock()

	_ = conn.Close()
	<-done
}

func (el *EventListener) readLoop(conn net.Conn, done chan struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		if event, ok := translate(scanner.Bytes()); ok {
			el.emit(event)
		}
	}

	el.mu.Lock()
	stopped := !el.listening
	el.mu.Unlock()

	if err := scanner.Err(); err != nil && !stopped {
		log.Warnf("event listener read error: %v", err)
	}
}

// translate maps one mpv IPC line to a sink event. Replies and uninteresting events yield false.
func translate(line []byte) (Event, bool) {
	var msg ipcMessage
	if err := json.Unmarshal(line, &msg); err != nil || msg.Event == "" {
		return Event{}, false
	}

	switch msg.Event {
	case "playback-restart":
		return Event{Kind: Ready}, true
	case "end-file":
		switch msg.Reason {
		case "eof":
			return Event{Kind: Ended}, true
		case "error":
			detail := msg.FileError
			if detail == "" {
				detail = "playback failed"
			}
			return Event{Kind: Error, Detail: detail}, true
		}
	case "property-change":
		if msg.Name == "paused-for-cache" {
			if buffering, _ := msg.Data.(bool); buffering {
				return Event{Kind: Waiting}, true
			}
			return Event{Kind: Ready}, true
		}
	case "shutdown":
		return Event{Kind: Closed}, true
	}

	return Event{}, false
}

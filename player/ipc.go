package player

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/shortplay/shortplay/retry"
)

// ipcCommand is the JSON structure sent to mpv's IPC socket.
type ipcCommand struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// ipcMessage is any line mpv writes: a reply (request_id set) or an event (event set).
type ipcMessage struct {
	RequestID *int64 `json:"request_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Data      any    `json:"data,omitempty"`

	Event     string `json:"event,omitempty"`
	Name      string `json:"name,omitempty"`
	Reason    string `json:"reason,omitempty"`
	FileError string `json:"file_error,omitempty"`
}

// ipcPolicy retries transient socket failures: 3 tries, 100ms apart, 1s each.
var ipcPolicy = retry.Policy{
	MaxAttempts:    3,
	BaseDelay:      100 * time.Millisecond,
	AttemptTimeout: time.Second,
}

var requestIDs atomic.Int64

// sendCommand sends a JSON-IPC command to mpv and returns the reply data.
func (m *MPV) sendCommand(command ...any) (any, error) {
	m.mu.Lock()
	socket := m.socketPath
	m.mu.Unlock()

	m.ipcMu.Lock()
	defer m.ipcMu.Unlock()

	data, err := retry.Do(context.Background(), ipcPolicy, func(ctx context.Context) (any, error) {
		return doSendCommand(ctx, socket, command)
	})
	if err != nil {
		return nil, fmt.Errorf("ipc %v: %w", command[0], err)
	}
	return data, nil
}

// doSendCommand performs a single request/reply exchange on a fresh connection.
// Event lines broadcast on the same connection are skipped.
func doSendCommand(ctx context.Context, socketPath string, command []any) (any, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("set deadline: %w", err)
		}
	}

	id := requestIDs.Add(1)
	if err := writeCommand(conn, id, command); err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.RequestID == nil || *msg.RequestID != id {
			continue
		}
		if msg.Error != "" && msg.Error != "success" {
			return nil, fmt.Errorf("mpv error: %s", msg.Error)
		}
		return msg.Data, nil
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return nil, fmt.Errorf("read: connection closed before reply")
}

func writeCommand(conn net.Conn, id int64, command []any) error {
	payload, err := json.Marshal(ipcCommand{Command: command, RequestID: id})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	// mpv requires newline-delimited JSON
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

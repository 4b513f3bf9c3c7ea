package player

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shortplay/shortplay/log"
	"github.com/shortplay/shortplay/where"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitTimeout       = 3 * time.Second
)

// MPV is a Sink backed by a single idle mpv process driven over JSON-IPC.
// The process is started on the first SetSource and reused for every later source.
type MPV struct {
	title string
	hub   hub

	mu         sync.Mutex // guards process lifecycle
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	listener   *EventListener
	disposed   bool

	ipcMu sync.Mutex // serialises IPC requests
}

// NewMPV creates an mpv sink. Nothing is started until a source is set.
func NewMPV(title string) *MPV {
	return &MPV{title: sanitizeTitle(title)}
}

// SetSource loads rawURL into mpv, replacing the current file.
func (m *MPV) SetSource(rawURL, mimeType string) error {
	safeURL, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	if err := m.ensureRunning(); err != nil {
		return err
	}

	log.Debugf("mpv: loading %s (%s)", safeURL, mimeType)
	if _, err := m.sendCommand("loadfile", safeURL, "replace"); err != nil {
		return fmt.Errorf("load source: %w", err)
	}
	return nil
}

// Play clears mpv's pause flag.
func (m *MPV) Play() error {
	return m.setPause(false)
}

// Pause sets mpv's pause flag.
func (m *MPV) Pause() error {
	return m.setPause(true)
}

func (m *MPV) setPause(paused bool) error {
	if !m.running() {
		return ErrNotRunning
	}
	_, err := m.sendCommand("set_property", "pause", paused)
	return err
}

// Subscribe registers fn for sink events.
func (m *MPV) Subscribe(fn func(Event)) func() {
	return m.hub.subscribe(fn)
}

// ErrNotRunning is returned by Play and Pause before any source was set.
var ErrNotRunning = errors.New("mpv is not running")

// Wait returns a channel closed when the mpv process exits, or nil if it never started.
func (m *MPV) Wait() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exited
}

// Dispose quits mpv and releases the IPC socket.
func (m *MPV) Dispose() error {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return nil
	}
	m.disposed = true
	listener, cmd, exited, socket := m.listener, m.cmd, m.exited, m.socketPath
	m.mu.Unlock()

	m.hub.clear()

	if listener != nil {
		listener.Stop()
	}
	if cmd == nil {
		return nil
	}

	_, _ = m.sendCommand("quit")

	select {
	case <-exited:
	case <-time.After(quitTimeout):
		log.Warnf("mpv did not quit in %s, killing it", quitTimeout)
		_ = killProcess(cmd)
	}

	_ = os.Remove(socket)
	return nil
}

func (m *MPV) running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cmd == nil {
		return false
	}
	select {
	case <-m.exited:
		return false
	default:
		return true
	}
}

// ensureRunning starts the idle mpv process and its event listener once.
func (m *MPV) ensureRunning() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return ErrDisposed
	}
	if m.cmd != nil {
		select {
		case <-m.exited:
			return errors.New("mpv has exited")
		default:
			return nil
		}
	}

	m.socketPath = filepath.Join(where.Temp(), fmt.Sprintf("mpv-%s.sock", uuid.NewString()[:8]))

	// Only the socket, title and idle flags are passed so the user's mpv.conf stays in charge.
	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		fmt.Sprintf("--force-media-title=%s", m.title),
		fmt.Sprintf("--title=%s", m.title),
		"--force-window=yes",
		"--idle=yes",
	}

	cmd := exec.Command("mpv", args...)
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stdout, cmd.Stderr, cmd.Stdin = nil, nil, nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	if err := waitForSocket(m.socketPath, exited); err != nil {
		select {
		case <-exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = killProcess(cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	listener := NewEventListener(m.socketPath, m.hub.emit)
	if err := listener.Start(); err != nil {
		_ = killProcess(cmd)
		return err
	}

	m.cmd, m.exited, m.listener = cmd, exited, listener

	go func() {
		<-exited
		m.mu.Lock()
		disposed := m.disposed
		m.mu.Unlock()
		if !disposed {
			m.hub.emit(Event{Kind: Closed})
		}
	}()

	return nil
}

// waitForSocket polls until the mpv IPC socket is accepting connections.
func waitForSocket(socketPath string, exited <-chan struct{}) error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-exited:
			return errors.New("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", socketPath, socketWaitRetries)
}

// sanitizeMediaTarget validates that a URL is safe to hand to mpv.
// Backend-provided strings must never be interpreted as mpv flags.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", errors.New("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", errors.New("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", errors.New("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

// sanitizeTitle flattens a title for use as an mpv window title.
func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}

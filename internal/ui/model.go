// Package ui holds the transient notification line shown at the bottom of the screen.
package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Lifetime is how long a notification stays visible.
const Lifetime = 3 * time.Second

// Model displays one short message at a time.
type Model struct {
	notification string
	notifiedAt   time.Time
}

// NotificationMsg carries the text of a notification.
type NotificationMsg string

// ClearNotificationMsg removes the notification if it is older than Lifetime.
type ClearNotificationMsg struct{}

// Notify returns a command that shows text.
func Notify(text string) tea.Cmd {
	return func() tea.Msg {
		return NotificationMsg(text)
	}
}

// ClearNotification returns a command that clears the notification after Lifetime.
func ClearNotification() tea.Cmd {
	return tea.Tick(Lifetime, func(time.Time) tea.Msg {
		return ClearNotificationMsg{}
	})
}

// Update handles notification messages and ignores everything else.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case NotificationMsg:
		m.notification = string(msg)
		m.notifiedAt = time.Now()
		return ClearNotification()
	case ClearNotificationMsg:
		// a newer notification restarts the clock
		if time.Since(m.notifiedAt) >= Lifetime {
			m.notification = ""
		}
		return nil
	}
	return nil
}

// Current returns the visible notification.
func (m *Model) Current() string {
	return m.notification
}

// View appends the notification to the last line of mainContent.
func (m *Model) View(mainContent string) string {
	if m.notification == "" {
		return mainContent
	}

	lines := strings.Split(mainContent, "\n")
	notifier := "\033[90m" + m.notification + "\033[0m"
	lines[len(lines)-1] = lines[len(lines)-1] + "  " + notifier
	return strings.Join(lines, "\n")
}

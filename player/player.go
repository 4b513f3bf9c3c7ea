// Package player defines the sink the playback session drives and its mpv implementation.
package player

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// EventKind identifies a renderer lifecycle event.
type EventKind int

const (
	// Ready means the loaded source started rendering.
	Ready EventKind = iota
	// Waiting means playback stalled on buffering.
	Waiting
	// Ended means the source played to its end.
	Ended
	// Error means the renderer could not play the source. Event.Detail says why.
	Error
	// Closed means the renderer went away, e.g. the user closed the player window.
	Closed
)

func (k EventKind) String() string {
	switch k {
	case Ready:
		return "ready"
	case Waiting:
		return "waiting"
	case Ended:
		return "ended"
	case Error:
		return "error"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is emitted by a Sink.
type Event struct {
	Kind   EventKind
	Detail string
}

// Sink is an opaque video renderer. SetSource may be called again at any time to retarget it.
// Implementations never promise readiness synchronously; they report it with a Ready event.
type Sink interface {
	// SetSource loads url, replacing whatever was playing.
	SetSource(url, mimeType string) error
	// Play resumes playback.
	Play() error
	// Pause suspends playback.
	Pause() error
	// Dispose releases the renderer. The sink is unusable afterwards.
	Dispose() error
	// Subscribe registers fn for every future event and returns a function that removes it.
	Subscribe(fn func(Event)) (unsubscribe func())
}

// Mime types handed to SetSource.
const (
	MimeHLS  = "application/x-mpegURL"
	MimeMP4  = "video/mp4"
	MimeDASH = "application/dash+xml"
	MimeAny  = ""
)

// MimeTypeOf derives a mime type from the extension of a media URL's path.
// Query strings are ignored. Unknown extensions yield MimeAny.
func MimeTypeOf(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}

	switch strings.ToLower(path.Ext(p)) {
	case ".m3u8":
		return MimeHLS
	case ".mp4", ".m4v":
		return MimeMP4
	case ".mpd":
		return MimeDASH
	default:
		return MimeAny
	}
}

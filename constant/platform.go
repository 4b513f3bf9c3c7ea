package constant

// Player backends selectable with player.default. PlayerNone keeps the session headless.
const (
	PlayerMPV  = "mpv"
	PlayerNone = "none"
)

// GOOS values that need their own opener or install hint.
const (
	Linux   = "linux"
	Darwin  = "darwin"
	Windows = "windows"
	Android = "android"
)

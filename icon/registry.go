package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Play
	Pause
	Episode
	Retry
	Timer
	Mark
	Search
	Link
	History
	Server
)

var icons = map[Icon]*iconDef{
	Success: {
		emoji:   "✅",
		nerd:    "\uf00c",
		plain:   "✓",
		kaomoji: "(ᵔ◡ᵔ)",
		squares: "🟩",
	},
	Fail: {
		emoji:   "❌",
		nerd:    "\uf00d",
		plain:   "✗",
		kaomoji: "(╥﹏╥)",
		squares: "🟥",
	},
	Progress: {
		emoji:   "⏳",
		nerd:    "\uf110",
		plain:   "…",
		kaomoji: "(・_・ヾ",
		squares: "🟧",
	},
	Play: {
		emoji:   "▶️",
		nerd:    "\uf04b",
		plain:   ">",
		kaomoji: "(⌐■_■)",
		squares: "🟦",
	},
	Pause: {
		emoji:   "⏸️",
		nerd:    "\uf04c",
		plain:   "||",
		kaomoji: "(－_－) zzZ",
		squares: "⬜",
	},
	Episode: {
		emoji:   "🎬",
		nerd:    "\uf008",
		plain:   "#",
		kaomoji: "(￣▽￣)ノ",
		squares: "🟪",
	},
	Retry: {
		emoji:   "🔁",
		nerd:    "\uf01e",
		plain:   "↻",
		kaomoji: "(ง'̀-'́)ง",
		squares: "🟨",
	},
	Timer: {
		emoji:   "⏱️",
		nerd:    "\uf017",
		plain:   "⧗",
		kaomoji: "(°ロ°)",
		squares: "🟫",
	},
	Mark: {
		emoji:   "📍",
		nerd:    "\uf041",
		plain:   "*",
		kaomoji: "(•̀ᴗ•́)و",
		squares: "🟩",
	},
	Search: {
		emoji:   "🔍",
		nerd:    "\uf002",
		plain:   "?",
		kaomoji: "(・・ )?",
		squares: "🟦",
	},
	Link: {
		emoji:   "🔗",
		nerd:    "\uf0c1",
		plain:   "&",
		kaomoji: "(づ｡◕‿‿◕｡)づ",
		squares: "🟪",
	},
	History: {
		emoji:   "🕘",
		nerd:    "\uf1da",
		plain:   "~",
		kaomoji: "(-_-)ゞ",
		squares: "⬛",
	},
	Server: {
		emoji:   "🛰️",
		nerd:    "\uf233",
		plain:   "@",
		kaomoji: "(⊙_⊙)",
		squares: "🟫",
	},
}

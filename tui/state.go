package tui

type state int

const (
	historyState state = iota
	loadingState
	playingState
	episodesState
	finishedState
	errorState
)

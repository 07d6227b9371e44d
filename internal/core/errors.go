package core

import "errors"

var (
	// ErrConfiguration marks fatal problems found before a match starts:
	// malformed maps, illegal goal counts or rosters that do not fit the map.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound marks references to unknown matches or players.
	// Callers log and drop the offending request.
	ErrNotFound = errors.New("not found")

	// ErrMatchFinished is returned when acting on a match that already ended.
	ErrMatchFinished = errors.New("match finished")
)

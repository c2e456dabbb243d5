// Package playground models one user's playground session: the selected
// example, the problem/solution toggle, the editor text, the explicit run
// action and what is currently displayed (rendered output or the latest
// failure, plus the console panel).
//
// A Session serializes every operation with a mutex, so transports may call
// it from several goroutines.
package playground

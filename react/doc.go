// Package react is the primitive library and render host for snippets.
//
// Library is the React object handed to synthesized code: createElement,
// Fragment, createContext and the hooks. Renderer mounts an entry-point
// component into a tree of host Nodes, runs effects after each commit,
// re-renders on state updates and delivers events. InstallHost provides
// the window, console and fetch globals snippets expect from a browser.
//
// Everything here runs on the goroutine that owns the goja runtime.
package react

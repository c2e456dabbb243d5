// Package main is the hooklab command line tool.
//
// It lists and prints the bundled React hooks examples and runs a JSX
// snippet, either an example or a file, through the same pipeline the MCP
// server uses, printing the rendered HTML and the console output.
package main

// Package main is the entry point for the hooklab MCP server.
//
// The server hosts one playground session: a catalog of React hooks
// examples, an editor buffer, and a live preview that compiles JSX with
// esbuild and renders it inside an embedded goja runtime. MCP clients drive
// the session through tools over stdio or HTTP.
//
// The application uses Uber's fx framework for dependency injection and lifecycle
// management, with zap for structured logging and viper for configuration.
package main

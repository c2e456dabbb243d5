// Package mcpserver exposes a playground session over the Model Context
// Protocol (MCP).
//
// It uses the mark3labs/mcp-go library for the protocol and registers one
// tool per playground action: list_examples, select_example,
// toggle_solution, edit_code, run_code, dispatch_event, resize_window and
// console_output. Every tool answers with the session state as JSON.
//
// The server supports both stdio and HTTP transports as configured by the
// application configuration.
//
// Usage:
//
//	server, err := mcpserver.New(config, logger, session)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = server.ServeStdio() // or server.ServeHTTP()
package mcpserver

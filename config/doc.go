// Package config provides application configuration management.
//
// The config package handles loading and validation of the application's
// configuration from YAML files and HOOKLAB_ environment variables. It
// covers server transport settings, the execution pipeline (entry point
// name, ambient primitives, render limits, window size, fetch) and logging.
//
// Usage:
//
//	cfg, err := config.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Entry point: %s\n", cfg.Sandbox.EntryPoint)
package config

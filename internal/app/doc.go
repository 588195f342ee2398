// Package app provides application initialization and lifecycle management
// for the SuiviStock service. It wires configuration, logging, observability,
// the WebSocket hub and the treatment service together and runs the HTTP
// server until interrupted.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from environment and files
//	2. Initialize logging and OpenTelemetry
//	3. Resolve and ensure the data directories
//	4. Initialize the hub and the services with their dependencies
//	5. Set up HTTP handlers and middleware
//	6. Configure and start the HTTP server
//	7. Set up graceful shutdown handlers
//
// # Usage
//
// The main entry point is typically:
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The package handles SIGINT and SIGTERM signals to ensure:
//
//	- Active requests are completed
//	- WebSocket connections are closed cleanly
//	- Final traces and metrics are flushed
//
// All initialization errors are returned to the caller; the package never
// calls os.Exit() itself.
package app

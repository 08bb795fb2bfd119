// Package commands defines the qlab CLI and wires dependencies for subcommands.
//
// Commands
//
//   - search     Plan and run a Grover search for a bit string
//   - run        Simulate an OpenQASM 2.0 file
//   - portfolio  Solve a random portfolio problem with QAOA and brute force
//   - serve      Start the HTTP API
//   - build      Open the interactive circuit builder
//
// # Implementation
//
// The root command loads configuration from .env and QLAB_* variables, applies
// flag overrides, and builds the logger, simulator and runner before any
// subcommand runs.
package commands

// Package app contains the application logic behind each gridsweep command.
// It owns the logger, the sweep loader and the executor, and dispatches a
// validated Config to the sweep, batch, runner and skeleton packages,
// decoupled from any specific entrypoint like a CLI.
package app

// Package service runs the optional process-scoped subsystems around a sweep
package service

// Service is a long-lived subsystem outside the capture path: the audio backend, the progress monitor
//
// Lifecycle:
//  1. Construction
//  2. Init(args...) - configuration resolved from the run config
//  3. Start() - acquire devices or listeners, launch goroutines
//  4. [sweep runs]
//  5. Stop() - release everything
//
// A service that cannot reach its backend degrades to a no-op instead of failing Init
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Init before this one
	Dependencies() []string

	// Init configures the service; args are service-specific
	Init(args ...any) error

	// Start begins service operation, called after every service initialized
	Start() error

	// Stop halts the service; must be idempotent
	Stop() error
}

// Enabler is implemented by services that may be switched off by configuration
// Disabled services are still registered so dependents resolve, but never started
type Enabler interface {
	Enabled() bool
}

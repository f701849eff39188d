// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO. They may use general-purpose libraries
// (validation, Unicode normalisation, errgroup) but never an adapter.
package services

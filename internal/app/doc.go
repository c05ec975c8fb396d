// Package app contains the host logic of the jsonform binary. It loads a field
// tree and a values document, drives a form store through the requested
// operations, and prints the resolved tree, decoupled from the CLI that
// builds its configuration.
package app

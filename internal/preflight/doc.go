// Package preflight verifies the local environment before a watch session
// starts: configured directories must be writable and the backend must be
// reachable with the configured credentials.
package preflight

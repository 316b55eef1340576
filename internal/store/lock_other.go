//go:build !unix

package store

// processAlive cannot check other processes here, so every lock counts as live.
func processAlive(int) bool { return true }

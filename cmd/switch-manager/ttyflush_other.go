//go:build !linux

package main

// flushTTYInput is a no-op where TCFLSH is unavailable.
func flushTTYInput() {}

//go:build windows

package robinx

func segfaulted(err error) bool { return false }

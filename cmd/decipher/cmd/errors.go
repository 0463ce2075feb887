package cmd

import (
	"fmt"
	"strings"
)

// isDBLockError returns true if the error chain contains a bbolt lock timeout.
// bbolt returns the string "timeout" when it cannot acquire the file lock
// within the configured deadline.
func isDBLockError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "timeout")
}

// diagnoseDBLock returns guidance for a history database held by another
// process, typically a decode running in --watch mode.
func diagnoseDBLock(dbPath string) string {
	return fmt.Sprintf("history database %s is locked by another decipher process\n"+
		"  → a 'decipher decode --watch' may be running; stop it first\n"+
		"  → or run this command with --no-history", dbPath)
}

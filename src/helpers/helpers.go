// Package helpers contains few helper functions which are used throughout
// the project.
package helpers

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// ProjectUserPath returns the directory in which the service stores its
// user-specific files such as the configuration and the logfile. It is
// created if it does not exist yet.
func ProjectUserPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding user home directory: %w", err)
	}

	path := filepath.Join(home, UserDir)
	if err := os.MkdirAll(path, 0750); err != nil {
		return "", fmt.Errorf("creating user directory: %w", err)
	}

	return path, nil
}

// SetLogsFile sets the logfile of the service.
func SetLogsFile(logFilePath string) error {
	logFile, err := os.OpenFile(
		logFilePath,
		os.O_APPEND|os.O_CREATE|os.O_WRONLY,
		0644,
	)
	if err != nil {
		return fmt.Errorf("could not open logfile %s: %w", logFilePath, err)
	}
	log.SetOutput(logFile)
	return nil
}

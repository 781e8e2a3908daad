package mcp

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DiagnosticLogger handles diagnostic output for the MCP server. While
// the stdio transport is up, stdout and stderr belong to the protocol
// stream, so everything goes to a file under the system temp directory.
// In CLI mode the same logger writes to stderr.
type DiagnosticLogger struct {
	mu       sync.Mutex
	file     *os.File
	logger   *log.Logger
	filePath string
}

// NewDiagnosticLogger creates a logger. With mcpMode set, output goes to
// a timestamped file; a failure to open one disables logging rather than
// dirtying stdio.
func NewDiagnosticLogger(mcpMode bool) *DiagnosticLogger {
	dl := &DiagnosticLogger{}

	if !mcpMode {
		dl.logger = log.New(os.Stderr, "[MCP] ", log.LstdFlags)
		return dl
	}

	logDir := filepath.Join(os.TempDir(), "wci-mcp-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		if homeDir, herr := os.UserHomeDir(); herr == nil {
			logDir = filepath.Join(homeDir, ".wci-mcp-logs")
			err = os.MkdirAll(logDir, 0755)
		}
		if err != nil {
			dl.logger = log.New(io.Discard, "", 0)
			return dl
		}
	}

	timestamp := time.Now().Format("2006-01-02T150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("mcp-%s.log", timestamp))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		dl.logger = log.New(io.Discard, "", 0)
		return dl
	}

	dl.file = file
	dl.filePath = logPath
	dl.logger = log.New(file, "[MCP] ", log.LstdFlags)
	return dl
}

// Printf logs a diagnostic message.
func (dl *DiagnosticLogger) Printf(format string, v ...interface{}) {
	if dl == nil || dl.logger == nil {
		return
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.logger.Printf(format, v...)
}

// Errorf logs an error-level diagnostic message.
func (dl *DiagnosticLogger) Errorf(format string, v ...interface{}) {
	if dl == nil || dl.logger == nil {
		return
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.logger.Printf("ERROR: "+format, v...)
}

// Path returns the log file location, empty when logging to stderr or
// disabled.
func (dl *DiagnosticLogger) Path() string {
	if dl == nil {
		return ""
	}
	return dl.filePath
}

// Close flushes and closes the log file if one is open.
func (dl *DiagnosticLogger) Close() error {
	if dl == nil {
		return nil
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.file == nil {
		return nil
	}
	err := dl.file.Close()
	dl.file = nil
	return err
}

// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/monadic/lendops/pkg/submit"
)

// SessionLogger logs one command run to a file
type SessionLogger struct {
	file      *os.File
	startTime time.Time
	command   string
}

// NewSessionLogger creates a logger under dir for command
func NewSessionLogger(dir, command string) (*SessionLogger, error) {
	if dir == "" {
		dir = filepath.Join(".lendops", "logs")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02-150405")
	logPath := filepath.Join(dir, fmt.Sprintf("%s-%s.log", slug.Make(command), timestamp))

	file, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	logger := &SessionLogger{
		file:      file,
		startTime: time.Now(),
		command:   command,
	}
	logger.writeHeader()
	return logger, nil
}

func (l *SessionLogger) writeHeader() {
	l.file.WriteString("=" + strings.Repeat("=", 79) + "\n")
	l.file.WriteString(fmt.Sprintf("lendops: %s\n", l.command))
	l.file.WriteString(fmt.Sprintf("Started: %s\n", l.startTime.Format(time.RFC3339)))
	l.file.WriteString("=" + strings.Repeat("=", 79) + "\n\n")
}

// Log writes a message to the log file
func (l *SessionLogger) Log(format string, args ...any) {
	if l == nil || l.file == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05")
	msg := fmt.Sprintf(format, args...)
	l.file.WriteString(fmt.Sprintf("[%s] %s\n", timestamp, msg))
}

// Section writes a section header
func (l *SessionLogger) Section(title string) {
	if l == nil || l.file == nil {
		return
	}
	l.file.WriteString(fmt.Sprintf("\n--- %s ---\n", title))
}

// LogPayload writes the update body about to be sent
func (l *SessionLogger) LogPayload(resource, recordID string, p submit.Payload) {
	if l == nil || l.file == nil {
		return
	}
	l.Section("PAYLOAD")
	l.Log("Target: %s/%s", resource, recordID)
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		l.Log("ERROR: encode payload: %v", err)
		return
	}
	l.file.Write(append(data, '\n'))
}

// LogResult writes the outcome of a submission
func (l *SessionLogger) LogResult(tab string, res *submit.Result, err error) {
	if l == nil || l.file == nil {
		return
	}
	l.Section("RESULT " + tab)
	if err != nil {
		l.Log("ERROR: %v", err)
		return
	}
	l.Log("Submitted: %s", res.Tab)
	if res.Next != "" && res.Next != res.Tab {
		l.Log("Next: %s", res.Next)
	}
	l.Log("Elapsed: %s", time.Since(l.startTime).Round(time.Millisecond))
}

// Close closes the log file and returns its path
func (l *SessionLogger) Close() string {
	if l == nil || l.file == nil {
		return ""
	}

	l.file.WriteString(fmt.Sprintf("\n\nCompleted: %s\n", time.Now().Format(time.RFC3339)))
	l.file.WriteString(fmt.Sprintf("Duration: %s\n", time.Since(l.startTime).Round(time.Millisecond)))

	path := l.file.Name()
	l.file.Close()
	return path
}

// openSessionLog opens a session log in the configured directory. Failure
// to log never stops a command; a nil logger is returned instead.
func openSessionLog(command string) *SessionLogger {
	dir := ""
	if cfg != nil {
		dir = cfg.LogDir
	}
	l, err := NewSessionLogger(dir, command)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: session log disabled: %v\n", err)
		return nil
	}
	return l
}

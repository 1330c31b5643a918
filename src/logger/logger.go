// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/helper/gc"
)

// Logger defines the interface for logging operations.
// It provides methods for different log levels and formatted output.
//
// This interface supports the CLI, the HTTP API and the [MCP] server,
// allowing seamless switching between human-readable output and structured logging.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type Logger interface {
	// Printf formats and prints a log message.
	Printf(format string, v ...any)
	// Println prints a log message with a newline.
	Println(v ...any)
	// SetOutput sets the output destination for the logger.
	SetOutput(w io.Writer)
}

// CLILogger implements Logger using the standard log package.
// It writes to stderr so that stdout stays reserved for result documents.
type CLILogger struct{ logger *log.Logger }

// NewCLILogger creates a new CLI logger with timestamps disabled.
func NewCLILogger() *CLILogger {
	l := log.New(os.Stderr, "", 0)
	return &CLILogger{logger: l}
}

// Printf formats and prints a log message using fmt.Printf semantics.
func (c *CLILogger) Printf(format string, v ...any) { c.logger.Printf(format, v...) }

// Println prints a log message with a newline.
func (c *CLILogger) Println(v ...any) { c.logger.Println(v...) }

// SetOutput sets the output destination for the CLI logger.
func (c *CLILogger) SetOutput(w io.Writer) { c.logger.SetOutput(w) }

// Level is the severity written into each JSON log line.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// JSONLogger implements Logger by writing one JSON object per line:
//
//	{"time":"2025-01-02T15:04:05Z","level":"info","message":"..."}
//
// It is used by the HTTP API and the [MCP] server, where stdout either
// carries the protocol or is collected by a log shipper.
//
// JSONLogger is safe for concurrent use by multiple goroutines.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type JSONLogger struct {
	mu     sync.Mutex
	writer io.Writer
	silent bool
	now    func() time.Time
}

// NewJSONLogger creates a new structured logger. A nil writer discards output.
// Set silent=true to suppress all output, for example in tests.
func NewJSONLogger(writer io.Writer, silent bool) *JSONLogger {
	if writer == nil {
		writer = io.Discard
	}
	return &JSONLogger{
		writer: writer,
		silent: silent,
		now:    time.Now,
	}
}

// Printf formats and logs an info-level message.
func (j *JSONLogger) Printf(format string, v ...any) {
	j.write(LevelInfo, fmt.Sprintf(format, v...))
}

// Println logs an info-level message.
func (j *JSONLogger) Println(v ...any) { j.write(LevelInfo, fmt.Sprint(v...)) }

// Errorf formats and logs an error-level message.
func (j *JSONLogger) Errorf(format string, v ...any) {
	j.write(LevelError, fmt.Sprintf(format, v...))
}

// SetOutput sets the output destination for the JSON logger.
func (j *JSONLogger) SetOutput(w io.Writer) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if w == nil {
		j.writer = io.Discard
	} else {
		j.writer = w
	}
}

func (j *JSONLogger) write(level Level, msg string) {
	if j.silent {
		return
	}

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	// json.Marshal of a string cannot fail.
	ts, _ := json.Marshal(j.now().UTC().Format(time.RFC3339))
	text, _ := json.Marshal(msg)

	buf.WriteString(`{"time":`)
	buf.Write(ts)
	buf.WriteString(`,"level":"`)
	buf.WriteString(string(level))
	buf.WriteString(`","message":`)
	buf.Write(text)
	buf.WriteString("}\n")

	j.mu.Lock()
	buf.WriteTo(j.writer)
	j.mu.Unlock()
}

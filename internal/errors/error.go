package errors

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

// Category groups errors by the layer that produced them.
type Category string

const (
	CategoryCodec     Category = "codec"
	CategoryPacket    Category = "packet"
	CategoryTransport Category = "transport"
	CategoryConfig    Category = "config"
	CategoryCapture   Category = "capture"
	CategoryCLI       Category = "cli"
)

// Location points into a config or type definition file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as file:line[:column].
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Error is a structured error with a code, an optional file location and a
// hint for the operator.
type Error struct {
	// Code is a registered identifier such as "W001".
	Code string

	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation.
	Detail string

	Location *Location

	// Context holds the file lines around Location.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example shows a corrected input, such as a config snippet.
	Example string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithLocation attaches a file position and reads the lines around it.
func (e *Error) WithLocation(file string, line, column int) *Error {
	e.Location = &Location{File: file, Line: line, Column: column}
	if f, err := os.Open(file); err == nil {
		e.Context = snippet(f, line)
		f.Close()
	}
	return e
}

// WithOffset attaches the position of a byte offset within data, as reported
// by encoding/json syntax errors.
func (e *Error) WithOffset(file string, data []byte, offset int64) *Error {
	if offset < 0 || offset > int64(len(data)) {
		return e
	}
	head := data[:offset]
	line := bytes.Count(head, []byte("\n")) + 1
	column := int(offset) - bytes.LastIndexByte(head, '\n')
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = snippet(bytes.NewReader(data), line)
	return e
}

// WithSuggestion adds a fix suggestion.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithExample adds an example of correct input.
func (e *Error) WithExample(ex string) *Error {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// snippetRadius is how many lines Format shows on each side of an error.
const snippetRadius = 2

// snippet returns the lines of r within snippetRadius of line.
func snippet(r io.Reader, line int) []string {
	var out []string
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan() && n <= line+snippetRadius; n++ {
		if n >= line-snippetRadius {
			out = append(out, sc.Text())
		}
	}
	return out
}

// New creates an Error from a registered code.
func New(code string) *Error {
	e := &Error{Code: code, Message: "Unknown error"}
	if t, ok := registry[code]; ok {
		e.Category, e.Message, e.Detail = t.Category, t.Message, t.Detail
	}
	return e
}

// Newf creates an Error with a formatted message and no code.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err under code unless it already is an *Error.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return New(code).Wrap(err)
}

package config

import "fmt"

const tracerName = "entrydns-updater"

// ErrorKind classifies configuration failures.
type ErrorKind string

const (
	KindRead         ErrorKind = "read"
	KindParse        ErrorKind = "parse"
	KindInvalidValue ErrorKind = "invalid-value"
	KindSettings     ErrorKind = "settings"
)

// Error is returned for every hosts file and settings failure.
type Error struct {
	Kind ErrorKind
	Path string // file involved, if any
	Key  string // host name or setting name, if any
	Err  error
}

func (e *Error) Error() string {
	msg := "config: " + string(e.Kind)
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" (%s)", e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

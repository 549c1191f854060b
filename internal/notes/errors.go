package notes

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies controller failures for display.
type Kind string

const (
	KindNetwork Kind = "network"
	KindAuth    Kind = "auth"
	KindStorage Kind = "storage"
	KindAPI     Kind = "api"
)

// Error is returned by every controller operation that reached a collaborator.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf returns the kind of a controller error, or "" for other errors.
func KindOf(err error) Kind {
	var nerr *Error
	if errors.As(err, &nerr) {
		return nerr.Kind
	}
	return ""
}

// statusCoder is implemented by client errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

func wrapErr(op string, fallback Kind, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Op: op, Kind: classify(err, fallback), Err: err}
}

func classify(err error, fallback Kind) Kind {
	var sc statusCoder
	if errors.As(err, &sc) {
		switch sc.HTTPStatus() {
		case http.StatusUnauthorized, http.StatusForbidden:
			return KindAuth
		}
		return fallback
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	return fallback
}

package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoCredentials = errors.New("helix requires oauth token and client id")
	ErrNotFound      = errors.New("not found")
)

type StatusKind int

const (
	KindUnexpected StatusKind = iota
	KindNotFound
	KindUnauthorized
	KindRateLimited
	KindServer
)

func (k StatusKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	}
	return "unexpected"
}

// StatusError - ответ Helix с кодом вне 2xx.
type StatusError struct {
	Kind    StatusKind
	Status  int
	Message string
}

func newStatusError(status int, msg string) *StatusError {
	kind := KindUnexpected
	switch {
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindUnauthorized
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status >= 500:
		kind = KindServer
	}
	return &StatusError{Kind: kind, Status: status, Message: msg}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("helix: %d %s: %s", e.Status, e.Kind, e.Message)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Kind == KindNotFound
}

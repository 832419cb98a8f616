// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Service katmanı bu error'ları wrap ederek döner:
//
//	return fmt.Errorf("%w: group_id is required", pkg.ErrBadRequest)
//
// Handler katmanı errors.Is() ile HTTP status code'a çevirir.
package pkg

import "errors"

// Domain-level error'lar.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyExists   = errors.New("already exists")
	ErrBadRequest      = errors.New("bad request")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInternal        = errors.New("internal error")
)

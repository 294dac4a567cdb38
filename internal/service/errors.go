package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go-bar-manager/internal/cart"
	"go-bar-manager/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid identifier or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrProfileNotFound    = errors.New("no owner or employee profile for this account")
	ErrUnauthorized       = errors.New("not allowed to perform this action")
	ErrInsufficientStock  = cart.ErrInsufficientStock
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrRemoteUnavailable  = errors.New("store unavailable")
	ErrNotFound           = errors.New("not found")
	ErrAccountExists      = errors.New("an account already exists for this identifier")
	ErrBusy               = errors.New("a movement for this item is already in progress")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionRevoked     = errors.New("session expired (logged in on another device or logged out)")
)

// ValidationError carries one message per invalid field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// storeErr maps repository failures onto the service taxonomy.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case isDomainErr(err):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
}

func isDomainErr(err error) bool {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return true
	}
	for _, known := range []error{
		ErrInvalidCredentials, ErrAccountDisabled, ErrProfileNotFound, ErrUnauthorized,
		ErrInsufficientStock, ErrInvalidTransition, ErrRemoteUnavailable, ErrNotFound,
		ErrAccountExists, ErrBusy, ErrWrongPassword, ErrSessionRevoked,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}

// logFailure logs a failed workflow step with the action name and returns err unchanged.
func logFailure(logger *zap.Logger, action string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.String("action", action), zap.Error(err))
	if isDomainErr(err) && !errors.Is(err, ErrRemoteUnavailable) {
		logger.Info("action rejected", fields...)
	} else {
		logger.Error("action failed", fields...)
	}
	return err
}

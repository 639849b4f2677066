package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
)

// ErrDatabase marks store failures; handlers answer them with DATABASE_ERROR
var ErrDatabase = errors.New("database error")

// AppError is a business rule failure with its own status and code
type AppError struct {
	Status  int
	Code    string
	Message string
	Errors  interface{}
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

func badRequest(code, message string) *AppError {
	return NewAppError(http.StatusBadRequest, code, message)
}

// NotFoundError names the missing resource
type NotFoundError struct {
	Resource string
	ID       interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// Code is <RESOURCE>_NOT_FOUND
func (e *NotFoundError) Code() string {
	return policy.CodeName(e.Resource) + "_NOT_FOUND"
}

func notFound(resource string, id interface{}) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// DuplicateError is a unique constraint conflict
type DuplicateError struct {
	Code    string
	Message string
}

func (e *DuplicateError) Error() string {
	return e.Message
}

func duplicate(code, message string) *DuplicateError {
	return &DuplicateError{Code: code, Message: message}
}

// dbError wraps a store failure under ErrDatabase, keeping not-found and
// duplicate errors recognisable
func dbError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrDatabase, err)
}

// storeError maps a repository error for resource id: missing rows become
// NotFoundError and everything else ErrDatabase
func storeError(resource string, id interface{}, op string, err error) error {
	if repositories.IsNotFoundError(err) {
		return notFound(resource, id)
	}
	return dbError(op, err)
}

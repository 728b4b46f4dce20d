// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. Struct tag validation keeps
// request checks next to the field definitions.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs struct tag validation on a request DTO.
func Validate(v any) error {
	return validate.Struct(v)
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

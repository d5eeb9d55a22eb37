package services

import (
	"errors"
	"fmt"
	"strings"

	"library-circulation/internal/core/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateInput runs struct tag validation and wraps failures in
// domain.ErrValidation.
func validateInput(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(fields, ", "))
}

package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sagarc03/lockbox"
)

// ErrUnsupportedMediaType is returned for an upload body that is neither
// JSON nor a form.
var ErrUnsupportedMediaType = errors.New("unsupported content type")

// invalidInputMessage turns a wrapped ErrInvalidInput into the text after
// the sentinel, e.g. "upload: invalid input: filename is required" becomes
// "filename is required".
func invalidInputMessage(err error) string {
	msg := err.Error()
	marker := lockbox.ErrInvalidInput.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return "Invalid request"
}

// validationError converts validator field errors into ErrInvalidInput.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return wrapInvalid(field + " is required")
	case "max":
		return wrapInvalid(field + " is too long")
	default:
		return wrapInvalid("invalid " + field)
	}
}

func wrapInvalid(msg string) error {
	return fmt.Errorf("%w: %s", lockbox.ErrInvalidInput, msg)
}

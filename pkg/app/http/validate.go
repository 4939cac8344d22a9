package http

import (
	"github.com/go-playground/validator/v10"

	apperrors "github.com/LilFatFrank/scratch-off/pkg/app/errors"
)

var validate = validator.New()

// ValidateRequest enforces the validate tags on a decoded request body.
func ValidateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		return apperrors.BadRequestError(err, "invalid request: "+err.Error())
	}
	return nil
}

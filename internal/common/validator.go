package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// GenericEchoValidator plugs go-playground/validator into echo's Context.Validate.
type GenericEchoValidator struct {
	Validator *validator.Validate
}

func NewGenericEchoValidator() *GenericEchoValidator {
	return &GenericEchoValidator{Validator: validator.New()}
}

func (gv *GenericEchoValidator) Validate(i interface{}) error {
	if gv.Validator == nil {
		gv.Validator = validator.New()
	}
	if err := gv.Validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("received invalid request: %s", describe(err)))
	}
	return nil
}

// describe turns field errors into "field: tag" pairs.
func describe(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, ", ")
}

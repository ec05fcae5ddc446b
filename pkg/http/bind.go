package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_ONEOF"`
	Field   string                 `json:"field,omitempty" example:"Horizon"`
	Message string                 `json:"message,omitempty" example:"Horizon must be one of: all, primary, extended"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// BindQuery binds query parameters into req, fills `default` tags for
// anything left empty, then runs `validate` tags. A nil slice means the
// request is valid.
func BindQuery(c echo.Context, req interface{}) []ValidationError {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg = fmt.Sprint(he.Message)
		}
		return []ValidationError{{Code: "ERR_BIND", Message: msg}}
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		ve := ValidationError{
			Code:  "ERR_" + strings.ToUpper(fe.Tag()),
			Field: fe.Field(),
		}
		switch fe.Tag() {
		case "required":
			ve.Message = fe.Field() + " is required"
		case "oneof":
			opts := strings.Fields(fe.Param())
			ve.Message = fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.Join(opts, ", "))
			ve.Params = map[string]interface{}{"options": opts}
		case "gte", "min":
			ve.Message = fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
			ve.Params = map[string]interface{}{"min": fe.Param()}
		case "lte", "max":
			ve.Message = fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
			ve.Params = map[string]interface{}{"max": fe.Param()}
		default:
			ve.Message = fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
		}
		out = append(out, ve)
	}
	return out
}

package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate //nolint:gochecknoglobals // singleton caches struct info
	validateOnce sync.Once           //nolint:gochecknoglobals // guards validate
)

// getValidator returns the shared validator. Field names in errors use the
// json tag so messages match the request body.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

var messageTemplates = map[string]string{ //nolint:gochecknoglobals // constant lookup
	"required": "%s is required",
	"datetime": "%s must be an RFC3339 timestamp",
}

var messageWithParam = map[string]string{ //nolint:gochecknoglobals // constant lookup
	"oneof": "%s must be one of: %s",
	"max":   "%s must have at most %s items or characters",
	"min":   "%s must have at least %s items or characters",
}

// validateRequest checks v against its validate tags and returns an
// ErrValidation-kinded error naming every failing field.
func validateRequest(op string, v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return WrapKind(op, ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, translate(fe))
	}
	return WrapKind(op, ErrValidation, errors.New(strings.Join(msgs, "; ")))
}

func translate(fe validator.FieldError) string {
	field := fieldPath(fe)
	if tmpl, ok := messageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := messageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

// fieldPath drops the struct name: "scoreRequest.selectedTerpenes[2]" -> "selectedTerpenes[2]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

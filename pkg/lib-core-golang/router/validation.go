package router

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/go-playground/validator.v9"
)

type structValidator validator.Validate

// jsonFieldName reports fields by their json names so clients see
// the same names they have sent
func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	}
	return name
}

func newStructValidator(validations map[string]validator.Func) *structValidator {
	vdt := validator.New()
	vdt.RegisterTagNameFunc(jsonFieldName)
	for tag, fn := range validations {
		if err := vdt.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return (*structValidator)(vdt)
}

func (v *structValidator) validateStruct(ctx context.Context, target interface{}) error {
	err := (*validator.Validate)(v).Struct(target)
	if err == nil {
		return nil
	}
	logger.WithError(err).Info(ctx, "Failed to validate params")
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return BadRequestError("ValidationFailed: failed to validate params")
	}
	badFields := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		badFields = append(badFields, fieldErr.Field())
	}
	return BadRequestError(fmt.Sprint("ValidationFailed: params ", badFields, " are invalid"))
}

package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"stayfinder/shared/constant"
	"stayfinder/shared/failure"
	"strconv"
	"strings"

	val "github.com/go-playground/validator/v10"
)

const bytesPerMB = 1024 * 1024

var validate = newValidate()

func newValidate() *val.Validate {
	v := val.New(val.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}

		return name
	})

	for tag, fn := range map[string]val.Func{
		"notblank":    notBlank,
		"mimetypes":   mimeTypes,
		"maxfilesize": maxFileSize,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}

	return v
}

func notBlank(field val.FieldLevel) bool {
	return strings.TrimSpace(field.Field().String()) != constant.Empty
}

// mimeTypes ignores media type parameters such as "; charset=binary".
func mimeTypes(field val.FieldLevel) bool {
	contentType, _, _ := strings.Cut(field.Field().String(), ";")

	return slices.Contains(strings.Fields(field.Param()), strings.TrimSpace(contentType))
}

// maxFileSize takes its limit in megabytes, fractions allowed.
func maxFileSize(field val.FieldLevel) bool {
	var size int64

	switch value := field.Field().Interface().(type) {
	case []byte:
		size = int64(len(value))
	case string:
		size = int64(len(value))
	}

	limit, err := strconv.ParseFloat(field.Param(), 64)
	if err != nil {
		return false
	}

	return float64(size) <= limit*bytesPerMB
}

// Validate decodes a JSON body into data and validates the result.
func Validate[T any](r io.Reader, data *T) error {
	if err := json.NewDecoder(r).Decode(data); err != nil {
		if errors.Is(err, io.EOF) {
			return failure.BadRequestFromString("request body is empty") //nolint:wrapcheck
		}

		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

func ValidateStruct[T any](data *T) error {
	if err := validate.Struct(data); err != nil {
		return failure.BadRequestFromString(message(err)) //nolint:wrapcheck
	}

	return nil
}

func ValidateVar(field any, tag string) error {
	if err := validate.Var(field, tag); err != nil {
		return failure.BadRequestFromString(message(err)) //nolint:wrapcheck
	}

	return nil
}

package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	errors "github.com/frahmantamala/casetrack/internal"
)

// ValidatorFunc returns a field-level error, or nil when value passes.
type ValidatorFunc func(value string) *errors.ValidationError

type FieldValidator struct {
	FieldName  string
	Value      string
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{}
}

func (v *ValidationBuilder) Field(name string, value string) *FieldValidator {
	fv := &FieldValidator{FieldName: name, Value: value}
	v.fields = append(v.fields, fv)
	return fv
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value string) *errors.ValidationError {
		if strings.TrimSpace(value) == "" {
			return fv.fail(fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinLength(min int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value string) *errors.ValidationError {
		if utf8.RuneCountInString(value) < min {
			return fv.fail(fmt.Sprintf("%s must be at least %d characters", fv.FieldName, min), errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value string) *errors.ValidationError {
		if utf8.RuneCountInString(value) > max {
			return fv.fail(fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max), errors.ErrCodeTooLong)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Matches(pattern *regexp.Regexp, message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value string) *errors.ValidationError {
		if !pattern.MatchString(value) {
			return fv.fail(message, errors.ErrCodeInvalidFormat)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Custom(validator ValidatorFunc) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

func (fv *FieldValidator) fail(message string, code errors.ErrorCode) *errors.ValidationError {
	return &errors.ValidationError{Field: fv.FieldName, Message: message, Code: string(code)}
}

// Validate runs every field and reports the first failure of each field.
func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			if err := validator(field.Value); err != nil {
				validationErrors = append(validationErrors, *err)
				break
			}
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationFieldErrors(validationErrors)
	}

	return nil
}

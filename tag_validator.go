// tag_validator.go: Validators described by struct tags
//
// TagValidators turns `validate:"..."` expressions into validators using
// go-playground/validator. Custom tags are registered on the instance, never
// globally, so two configurations can carry different rule sets.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	goerrors "errors"
	"fmt"
	"reflect"

	"github.com/agilira/go-errors"
	"github.com/go-playground/validator/v10"
)

// TagValidators holds the validation rules available to tag expressions.
type TagValidators struct {
	validate *validator.Validate
}

// NewTagValidators returns a rule set with the library's built-in tags
// (min, max, gte, oneof, hostname, url, ...).
func NewTagValidators() *TagValidators {
	return &TagValidators{validate: validator.New()}
}

// Register adds a custom tag. fn receives the value being validated.
func (tv *TagValidators) Register(tag string, fn func(value interface{}) bool) error {
	err := tv.validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().Interface())
	})
	if err != nil {
		return errors.Wrap(err, ErrCodeInvalidOptions, fmt.Sprintf("cannot register validation tag %q", tag)).
			WithContext("tag", tag)
	}
	return nil
}

// Check validates x against a tag expression. Unknown tags yield an
// ErrCodeInvalidType error, rejected values an ErrCodeValidation error.
func (tv *TagValidators) Check(x interface{}, tag string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(ErrCodeInvalidType, fmt.Sprintf("invalid validation tag %q: %v", tag, r)).
				WithContext("tag", tag)
		}
	}()
	verr := tv.validate.Var(x, tag)
	if verr == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if goerrors.As(verr, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Param() != "" {
			return validationError("value %v violates %s=%s", x, fe.Tag(), fe.Param())
		}
		return validationError("value %v violates %s", x, fe.Tag())
	}
	return errors.Wrap(verr, ErrCodeInvalidType, fmt.Sprintf("cannot validate %T with %q", x, tag))
}

// compile returns a reflect-level validator for values of type t. Tags are
// tried once against the zero value so that unknown tags fail early.
func (tv *TagValidators) compile(t reflect.Type, tag string) (func(reflect.Value) error, error) {
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		if err := tv.Check(reflect.Zero(t).Interface(), tag); HasCode(err, ErrCodeInvalidType) {
			return nil, err
		}
	}
	return func(v reflect.Value) error {
		return tv.Check(v.Interface(), tag)
	}, nil
}

// TagValidator builds a Validator[T] from a tag expression such as
// "min=1,max=65535".
func TagValidator[T any](tv *TagValidators, tag string) (Validator[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	check, err := tv.compile(t, tag)
	if err != nil {
		return nil, err
	}
	return func(x T) error {
		return check(reflect.ValueOf(&x).Elem())
	}, nil
}

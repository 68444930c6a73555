// validator.go: Value constraints
//
// A Validator is a plain predicate returning a validation error. Validators
// compose with Of, which runs them in order and stops at the first failure.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"regexp"
	"unicode/utf8"
)

// Validator checks a value and returns an ErrCodeValidation error when the
// value is rejected.
type Validator[T any] func(T) error

// Of combines validators into one. They run in the given order and only the
// first failure is reported. Nil validators are skipped.
func Of[T any](validators ...Validator[T]) Validator[T] {
	active := make([]Validator[T], 0, len(validators))
	for _, v := range validators {
		if v != nil {
			active = append(active, v)
		}
	}
	return func(x T) error {
		for _, v := range active {
			if err := v(x); err != nil {
				return err
			}
		}
		return nil
	}
}

// Number covers every built-in numeric kind.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

func NotZero[T Number]() Validator[T] {
	return func(x T) error {
		if x == 0 {
			return validationError("value must not be zero")
		}
		return nil
	}
}

func Positive[T Number]() Validator[T] {
	return func(x T) error {
		if x <= 0 {
			return validationError("value %v must be positive", x)
		}
		return nil
	}
}

func PositiveOrZero[T Number]() Validator[T] {
	return func(x T) error {
		if x < 0 {
			return validationError("value %v must be positive or zero", x)
		}
		return nil
	}
}

func Negative[T Number]() Validator[T] {
	return func(x T) error {
		if x >= 0 {
			return validationError("value %v must be negative", x)
		}
		return nil
	}
}

func NegativeOrZero[T Number]() Validator[T] {
	return func(x T) error {
		if x > 0 {
			return validationError("value %v must be negative or zero", x)
		}
		return nil
	}
}

// Range accepts values in [lo, hi].
func Range[T Number](lo, hi T) Validator[T] {
	return func(x T) error {
		if x < lo || x > hi {
			return validationError("value %v must be between %v and %v", x, lo, hi)
		}
		return nil
	}
}

// NotEmpty rejects the empty string.
func NotEmpty() Validator[string] {
	return func(s string) error {
		if s == "" {
			return validationError("value must not be empty")
		}
		return nil
	}
}

// MinLength and MaxLength bound the number of characters (runes).
func MinLength(n int) Validator[string] {
	return func(s string) error {
		if l := utf8.RuneCountInString(s); l < n {
			return validationError("length %d is shorter than %d", l, n)
		}
		return nil
	}
}

func MaxLength(n int) Validator[string] {
	return func(s string) error {
		if l := utf8.RuneCountInString(s); l > n {
			return validationError("length %d is longer than %d", l, n)
		}
		return nil
	}
}

// Pattern requires the whole string to match re.
func Pattern(re *regexp.Regexp) Validator[string] {
	return func(s string) error {
		loc := re.FindStringIndex(s)
		if loc == nil || loc[0] != 0 || loc[1] != len(s) {
			return validationError("value %q does not match %s", s, re)
		}
		return nil
	}
}

func MinSize[E any](n int) Validator[[]E] {
	return func(xs []E) error {
		if len(xs) < n {
			return validationError("size %d is smaller than %d", len(xs), n)
		}
		return nil
	}
}

func MaxSize[E any](n int) Validator[[]E] {
	return func(xs []E) error {
		if len(xs) > n {
			return validationError("size %d is larger than %d", len(xs), n)
		}
		return nil
	}
}

func NotEmptySlice[E any]() Validator[[]E] {
	return MinSize[E](1)
}

func NotEmptyMap[K comparable, V any]() Validator[map[K]V] {
	return func(m map[K]V) error {
		if len(m) == 0 {
			return validationError("map must not be empty")
		}
		return nil
	}
}

// Predicate adapts a boolean check into a validator.
func Predicate[T any](ok func(T) bool, message string) Validator[T] {
	return func(x T) error {
		if !ok(x) {
			return validationError("%s", message)
		}
		return nil
	}
}

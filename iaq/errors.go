// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package iaq

import (
	"errors"
	"fmt"
)

type (
	// Input errors indicate a sensor reading the engine refuses to process.
	// They are recoverable; the caller simply retries on the next cycle.
	Input string

	// Argument errors indicate an invalid engine option.
	Argument struct {
		Name  string
		Value any
	}
)

var (
	ErrNotInitialized = errors.New("engine not initialized")
	ErrInput          = errors.New("invalid reading")
	ErrTimeout        = errors.New("state lock not acquired within bound")
	ErrNoStore        = errors.New("no store configured")
	ErrArgument       = errors.New("invalid argument")

	// ErrState indicates a saved calibration that cannot be applied.
	ErrState = errors.New("invalid saved state")
)

const (
	// GasInvalid indicates the sensor flagged the gas measurement unusable.
	GasInvalid Input = "gas measurement flagged invalid"

	// GasNotPositive indicates a zero or negative gas resistance.
	GasNotPositive Input = "gas resistance must be positive"
)

func (e Input) Error() string {
	return fmt.Sprintf("%s: %s", ErrInput, string(e))
}

func (Input) Unwrap() error {
	return ErrInput
}

func (e Argument) Error() string {
	return fmt.Sprintf("%s: %s=%v", ErrArgument, e.Name, e.Value)
}

func (Argument) Unwrap() error {
	return ErrArgument
}

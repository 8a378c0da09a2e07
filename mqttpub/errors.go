// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqttpub

import "fmt"

// ClientState indicates the current state of the client.
type ClientState byte

const (
	// The client has not yet been started.
	NotStarted ClientState = iota

	// The client has been started and has not yet been stopped by the user
	// or terminated due to a fatal error.
	Started

	// The client has been stopped by the user or terminated due to a fatal
	// error.
	ShutDown
)

// ClientStateError is returned when the operation cannot proceed due to the
// state of the client.
type ClientStateError struct {
	State ClientState
}

func (e *ClientStateError) Error() string {
	switch e.State {
	case NotStarted:
		return "the client has not yet been started"
	case Started:
		return "the client has already been started"
	case ShutDown:
		return "the client has been shut down"
	default:
		// It should not be possible to get here.
		return ""
	}
}

// NotConnectedError is returned when a publish is attempted while the client
// has no connection to the server. The message is dropped rather than queued
// so that periodic telemetry is never blocked on broker availability.
type NotConnectedError struct{}

func (*NotConnectedError) Error() string {
	return "the client is not connected"
}

// DisconnectError indicates that the client received a DISCONNECT packet from
// the server with a reason code that is not deemed to be fatal. It is
// primarily used for internal tracking and should not be expected by users
// except in rare cases in logs.
type DisconnectError struct {
	ReasonCode byte
}

func (e *DisconnectError) Error() string {
	return fmt.Sprintf(
		"received DISCONNECT packet with reason code %x",
		e.ReasonCode,
	)
}

// FatalDisconnectError indicates that the client has terminated due to
// receiving a DISCONNECT packet from the server with a reason code that is
// deemed to be fatal.
type FatalDisconnectError struct {
	ReasonCode byte
}

func (e *FatalDisconnectError) Error() string {
	return fmt.Sprintf(
		"received DISCONNECT packet with fatal reason code %x",
		e.ReasonCode,
	)
}

// ConnectionError indicates an issue opening the network connection to the
// MQTT server. It may wrap an underlying error using Go standard error
// wrapping.
type ConnectionError struct {
	wrapped error
	message string
}

func (e *ConnectionError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *ConnectionError) Unwrap() error {
	return e.wrapped
}

// ConnackError indicates that the client received a CONNACK with a reason
// code that indicates an error but is not deemed to be fatal. It may appear
// as a fatal error if it is the final error returned once the client has
// exhausted its connection retries.
type ConnackError struct {
	ReasonCode byte
}

func (e *ConnackError) Error() string {
	return fmt.Sprintf(
		"received CONNACK packet with error reason code %x",
		e.ReasonCode,
	)
}

// FatalConnackError indicates that the client has terminated due to receiving
// a CONNACK with a reason code that is deemed to be fatal.
type FatalConnackError struct {
	ReasonCode byte
}

func (e *FatalConnackError) Error() string {
	return fmt.Sprintf(
		"received CONNACK packet with fatal reason code %x",
		e.ReasonCode,
	)
}

// PubackError indicates that the server acknowledged a publish with an error
// reason code.
type PubackError struct {
	ReasonCode byte
}

func (e *PubackError) Error() string {
	return fmt.Sprintf(
		"received PUBACK packet with error reason code %x",
		e.ReasonCode,
	)
}

// SubackError indicates that the server rejected a subscription with an error
// reason code.
type SubackError struct {
	ReasonCode byte
}

func (e *SubackError) Error() string {
	return fmt.Sprintf(
		"received SUBACK packet with error reason code %x",
		e.ReasonCode,
	)
}

// UnsubackError indicates that the server rejected an unsubscribe with an
// error reason code.
type UnsubackError struct {
	ReasonCode byte
}

func (e *UnsubackError) Error() string {
	return fmt.Sprintf(
		"received UNSUBACK packet with error reason code %x",
		e.ReasonCode,
	)
}

// InvalidArgumentError indicates that the user has provided an invalid value
// for an option. It may wrap an underlying error using Go standard error
// wrapping.
type InvalidArgumentError struct {
	wrapped error
	message string
}

func (e *InvalidArgumentError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *InvalidArgumentError) Unwrap() error {
	return e.wrapped
}

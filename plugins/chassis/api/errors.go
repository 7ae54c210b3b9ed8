// Copyright (c) 2019 Cisco and/or its affiliates.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Code classifies errors returned by the chassis manager.
type Code int

const (
	// OK is the code of a nil error.
	OK Code = iota
	// InvalidParam - the request (usually the config) is malformed.
	InvalidParam
	// NotInitialized - no config was pushed yet.
	NotInitialized
	// EntryNotFound - unknown node or port.
	EntryNotFound
	// Internal - a backend call failed or an internal invariant is broken.
	Internal
	// Unimplemented - the request is valid but not supported.
	Unimplemented
	// RebootRequired - the config cannot be applied without restarting the switch.
	RebootRequired
	// AtLeastOneOperFailed - several operations of one request failed.
	AtLeastOneOperFailed
	// Cancelled - the operation was aborted by shutdown.
	Cancelled
)

var codeNames = map[Code]string{
	OK:                   "OK",
	InvalidParam:         "INVALID_PARAM",
	NotInitialized:       "NOT_INITIALIZED",
	EntryNotFound:        "ENTRY_NOT_FOUND",
	Internal:             "INTERNAL",
	Unimplemented:        "UNIMPLEMENTED",
	RebootRequired:       "REBOOT_REQUIRED",
	AtLeastOneOperFailed: "AT_LEAST_ONE_OPER_FAILED",
	Cancelled:            "CANCELLED",
}

func (c Code) String() string { return enumName(codeNames, c) }

// MarshalText encodes the code by name.
func (c Code) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText decodes the code from its name.
func (c *Code) UnmarshalText(text []byte) error { return parseEnum(codeNames, text, c) }

/*********************************** Error ************************************/

// Error is an error classified with a Code.
type Error struct {
	code    Code
	origErr error
}

// NewError is the constructor for Error.
func NewError(code Code, format string, args ...interface{}) error {
	return &Error{code: code, origErr: errors.Errorf(format, args...)}
}

// WrapError classifies err with the given code, prepending the message.
func WrapError(code Code, err error, format string, args ...interface{}) error {
	return &Error{code: code, origErr: errors.Wrapf(err, format, args...)}
}

// Error delegates the call to the underlying error.
func (e *Error) Error() string {
	return e.origErr.Error()
}

// Code returns the classification of the error.
func (e *Error) Code() Code {
	return e.code
}

// Cause returns the underlying error (see errors.Cause).
func (e *Error) Cause() error {
	return e.origErr
}

// CodeOf returns the code of the given error. Errors not classified by the
// chassis manager are reported as Internal.
func CodeOf(err error) Code {
	type coder interface {
		Code() Code
	}
	type causer interface {
		Cause() error
	}
	for err != nil {
		if c, ok := err.(coder); ok {
			return c.Code()
		}
		cause, ok := err.(causer)
		if !ok {
			break
		}
		err = cause.Cause()
	}
	if err == nil {
		return OK
	}
	return Internal
}

/********************************* Port Errors ********************************/

// PortError is a failure related to one port.
type PortError struct {
	NodeID uint64
	PortID uint64
	Err    error
}

func (e PortError) String() string {
	return fmt.Sprintf("node %d port %d: %v", e.NodeID, e.PortID, e.Err)
}

// PortErrors aggregates per-port failures of one request in the order
// in which they occurred.
type PortErrors struct {
	errs []PortError
}

// Add appends a failure, nil errors are ignored.
func (e *PortErrors) Add(nodeID, portID uint64, err error) {
	if err == nil {
		return
	}
	e.errs = append(e.errs, PortError{NodeID: nodeID, PortID: portID, Err: err})
}

// Len returns the number of collected failures.
func (e *PortErrors) Len() int {
	if e == nil {
		return 0
	}
	return len(e.errs)
}

// Errors returns the collected failures.
func (e *PortErrors) Errors() []PortError {
	if e == nil {
		return nil
	}
	return e.errs
}

// Code returns the code of the only failure, or AtLeastOneOperFailed
// if there are more.
func (e *PortErrors) Code() Code {
	switch e.Len() {
	case 0:
		return OK
	case 1:
		return CodeOf(e.errs[0].Err)
	default:
		return AtLeastOneOperFailed
	}
}

// Error returns a string representation of all collected failures.
func (e *PortErrors) Error() string {
	if e.Len() == 0 {
		return ""
	}
	var msgs []string
	for _, portErr := range e.errs {
		msgs = append(msgs, portErr.String())
	}
	if len(msgs) == 1 {
		return msgs[0]
	}
	return fmt.Sprintf("%d port operations failed: [%s]", len(msgs), strings.Join(msgs, "; "))
}

// ErrorOrNil returns nil if nothing failed.
func (e *PortErrors) ErrorOrNil() error {
	if e.Len() == 0 {
		return nil
	}
	return e
}

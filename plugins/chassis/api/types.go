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
	"strings"

	"github.com/pkg/errors"
)

// AdminState is the administrative state of a port.
type AdminState int

const (
	// AdminStateUnknown is recorded for ports whose last configuration attempt
	// failed (or which have not been configured yet).
	AdminStateUnknown AdminState = iota
	// AdminStateDisabled - port is added to the hardware but disabled.
	AdminStateDisabled
	// AdminStateEnabled - port is added and enabled.
	AdminStateEnabled
	// AdminStateDiag - diagnostic mode (not supported).
	AdminStateDiag
)

var adminStateNames = map[AdminState]string{
	AdminStateUnknown:  "UNKNOWN",
	AdminStateDisabled: "DISABLED",
	AdminStateEnabled:  "ENABLED",
	AdminStateDiag:     "DIAG",
}

func (s AdminState) String() string { return enumName(adminStateNames, s) }

// MarshalText encodes the state by name.
func (s AdminState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes the state from its name.
func (s *AdminState) UnmarshalText(text []byte) error { return parseEnum(adminStateNames, text, s) }

// PortState is the operational state of a port.
type PortState int

const (
	// PortStateUnknown until the state is observed.
	PortStateUnknown PortState = iota
	// PortStateUp - link is up.
	PortStateUp
	// PortStateDown - link is down.
	PortStateDown
)

var portStateNames = map[PortState]string{
	PortStateUnknown: "UNKNOWN",
	PortStateUp:      "UP",
	PortStateDown:    "DOWN",
}

func (s PortState) String() string { return enumName(portStateNames, s) }

// MarshalText encodes the state by name.
func (s PortState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes the state from its name.
func (s *PortState) UnmarshalText(text []byte) error { return parseEnum(portStateNames, text, s) }

// TriState is a boolean setting which may be left unspecified.
type TriState int

const (
	// TriStateUnknown - not specified, hardware default applies.
	TriStateUnknown TriState = iota
	// TriStateEnabled - setting turned on.
	TriStateEnabled
	// TriStateDisabled - setting turned off.
	TriStateDisabled
)

var triStateNames = map[TriState]string{
	TriStateUnknown:  "UNKNOWN",
	TriStateEnabled:  "ENABLED",
	TriStateDisabled: "DISABLED",
}

func (s TriState) String() string { return enumName(triStateNames, s) }

// MarshalText encodes the value by name.
func (s TriState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes the value from its name.
func (s *TriState) UnmarshalText(text []byte) error { return parseEnum(triStateNames, text, s) }

// FecMode is the forward error correction mode of a port.
type FecMode int

const (
	// FecModeUnknown - not specified.
	FecModeUnknown FecMode = iota
	// FecModeOn - FEC enabled.
	FecModeOn
	// FecModeOff - FEC disabled.
	FecModeOff
	// FecModeAuto - FEC negotiated.
	FecModeAuto
)

var fecModeNames = map[FecMode]string{
	FecModeUnknown: "UNKNOWN",
	FecModeOn:      "ON",
	FecModeOff:     "OFF",
	FecModeAuto:    "AUTO",
}

func (m FecMode) String() string { return enumName(fecModeNames, m) }

// MarshalText encodes the mode by name.
func (m FecMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText decodes the mode from its name.
func (m *FecMode) UnmarshalText(text []byte) error { return parseEnum(fecModeNames, text, m) }

// LoopbackMode is the loopback setting of a port.
type LoopbackMode int

const (
	// LoopbackModeUnknown - not specified.
	LoopbackModeUnknown LoopbackMode = iota
	// LoopbackModeNone - no loopback.
	LoopbackModeNone
	// LoopbackModeMac - loopback in the MAC.
	LoopbackModeMac
	// LoopbackModePhy - loopback in the PHY.
	LoopbackModePhy
)

var loopbackModeNames = map[LoopbackMode]string{
	LoopbackModeUnknown: "UNKNOWN",
	LoopbackModeNone:    "NONE",
	LoopbackModeMac:     "MAC",
	LoopbackModePhy:     "PHY",
}

func (m LoopbackMode) String() string { return enumName(loopbackModeNames, m) }

// MarshalText encodes the mode by name.
func (m LoopbackMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText decodes the mode from its name.
func (m *LoopbackMode) UnmarshalText(text []byte) error { return parseEnum(loopbackModeNames, text, m) }

// TransceiverState is the state of the pluggable module of a front-panel port.
type TransceiverState int

const (
	// TransceiverStateUnknown - nothing reported yet.
	TransceiverStateUnknown TransceiverState = iota
	// TransceiverStateNotPresent - module is removed.
	TransceiverStateNotPresent
	// TransceiverStatePresent - module is inserted, front panel info not read yet.
	TransceiverStatePresent
	// TransceiverStateReady - module is inserted and its front panel info is known.
	TransceiverStateReady
)

var transceiverStateNames = map[TransceiverState]string{
	TransceiverStateUnknown:    "UNKNOWN",
	TransceiverStateNotPresent: "NOT_PRESENT",
	TransceiverStatePresent:    "PRESENT",
	TransceiverStateReady:      "READY",
}

func (s TransceiverState) String() string { return enumName(transceiverStateNames, s) }

// MarshalText encodes the state by name.
func (s TransceiverState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes the state from its name.
func (s *TransceiverState) UnmarshalText(text []byte) error {
	return parseEnum(transceiverStateNames, text, s)
}

func enumName[T comparable](names map[T]string, value T) string {
	if name, ok := names[value]; ok {
		return name
	}
	return "INVALID"
}

// parseEnum decodes value by its (case-insensitive) name, empty text decodes
// into the zero value.
func parseEnum[T comparable](names map[T]string, text []byte, value *T) error {
	str := strings.ToUpper(strings.TrimSpace(string(text)))
	if str == "" {
		var zero T
		*value = zero
		return nil
	}
	for v, name := range names {
		if name == str {
			*value = v
			return nil
		}
	}
	return errors.Errorf("invalid value '%s'", string(text))
}

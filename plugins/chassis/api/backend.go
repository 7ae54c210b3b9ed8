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

// Backend is the narrow set of imperative per-port operations provided
// by a vendor SDK. Ports are addressed by the SDK unit and the SDK port id
// obtained from PortIDFromPortKey.
//
// A non-nil error returned by a mutator means that this one attribute
// failed to be applied; nothing else is implied about the port.
type Backend interface {
	// PortIDFromPortKey translates the location of a port into the SDK port id.
	PortIDFromPortKey(unit int, key PortKey) (uint32, error)

	PortAdd(unit int, port uint32, speedBps uint64, fec FecMode) error
	PortDelete(unit int, port uint32) error
	PortEnable(unit int, port uint32) error
	PortDisable(unit int, port uint32) error
	PortMtuSet(unit int, port uint32, mtu int32) error
	PortAutonegPolicySet(unit int, port uint32, autoneg TriState) error
	PortLoopbackModeSet(unit int, port uint32, mode LoopbackMode) error

	// PortIsValid returns true if the port exists in the hardware.
	PortIsValid(unit int, port uint32) bool
	PortOperStateGet(unit int, port uint32) (PortState, error)
	PortAllStatsGet(unit int, port uint32) (*PortCounters, error)

	// RegisterPortStatusEventWriter installs the (only) sink for port status
	// events. No event is written after UnregisterPortStatusEventWriter returns.
	RegisterPortStatusEventWriter(writer EventWriter[PortStatusEvent]) error
	UnregisterPortStatusEventWriter() error
}

// Phal is the platform hardware abstraction layer, the source of transceiver
// events and front panel port information.
type Phal interface {
	// RegisterTransceiverEventWriter adds a sink for transceiver events,
	// returns ID used to unregister it.
	RegisterTransceiverEventWriter(writer EventWriter[TransceiverEvent], priority int) (int, error)
	UnregisterTransceiverEventWriter(id int) error
	GetFrontPanelPortInfo(slot, port int32) (*FrontPanelPortInfo, error)
}

// TransceiverWriterPriorityHigh is the priority of the chassis manager among
// the transceiver event writers.
const TransceiverWriterPriorityHigh = 100

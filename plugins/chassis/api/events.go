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
	"time"
)

// PortStatusEvent is produced by a Backend when the operational state
// of a port changes.
type PortStatusEvent struct {
	Unit            int
	SDKPort         uint32
	State           PortState
	TimeLastChanged time.Time
}

func (e PortStatusEvent) String() string {
	return fmt.Sprintf("port-status <unit=%d, sdk-port=%d, state=%s>", e.Unit, e.SDKPort, e.State)
}

// TransceiverEvent is produced by the platform HAL when a pluggable module
// is inserted or removed.
type TransceiverEvent struct {
	Slot  int32
	Port  int32
	State TransceiverState
}

func (e TransceiverEvent) String() string {
	return fmt.Sprintf("transceiver <%d/%d, state=%s>", e.Slot, e.Port, e.State)
}

// PortOperStateChangedEvent is forwarded to the registered NotifyWriter
// for every port status change of a configured port.
type PortOperStateChangedEvent struct {
	NodeID          uint64    `json:"node_id"`
	PortID          uint64    `json:"port_id"`
	NewState        PortState `json:"new_state"`
	TimeLastChanged time.Time `json:"time_last_changed"`
}

func (e *PortOperStateChangedEvent) String() string {
	return fmt.Sprintf("oper-state-changed <node=%d, port=%d, state=%s>", e.NodeID, e.PortID, e.NewState)
}

// EventWriter is the producer end of an event queue handed to a hardware
// backend. Write blocks for at most timeout when the queue is full and
// returns an error if the event could not be enqueued.
type EventWriter[T any] interface {
	Write(event T, timeout time.Duration) error
}

// NotifyWriter receives outbound notifications. Write returns false once
// the writer is no longer operational, which unregisters it.
type NotifyWriter interface {
	Write(event *PortOperStateChangedEvent) bool
}

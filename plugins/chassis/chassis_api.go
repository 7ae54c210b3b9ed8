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

package chassis

import (
	"time"

	"github.com/contiv/chassis/plugins/chassis/api"
)

// API defines methods provided by the chassis manager.
//
// All queries return error with code api.NotInitialized before the first
// successful PushChassisConfig and api.EntryNotFound for unknown node/port.
type API interface {
	// PushChassisConfig reconciles the hardware with the given configuration.
	// The configuration should be verified by VerifyChassisConfig first.
	PushChassisConfig(config *api.ChassisConfig) error

	// VerifyChassisConfig checks if the configuration can be pushed.
	// Returns error with code api.RebootRequired if the port layout
	// differs from the applied configuration.
	VerifyChassisConfig(config *api.ChassisConfig) error

	// Shutdown stops event processing and forgets the applied configuration.
	Shutdown() error

	// ReplayPortsConfig re-applies the recorded configuration of all ports
	// of the node (e.g. after the ASIC was reset).
	ReplayPortsConfig(nodeID uint64) error

	// ResetPortsConfig forgets the recorded configuration of all ports
	// of the node, they will be re-added by the next push.
	ResetPortsConfig(nodeID uint64) error

	GetPortState(nodeID, portID uint64) (api.PortState, error)
	GetPortAdminState(nodeID, portID uint64) (api.AdminState, error)
	GetPortSpeed(nodeID, portID uint64) (uint64, error)
	GetNegotiatedPortSpeed(nodeID, portID uint64) (uint64, error)
	GetPortCounters(nodeID, portID uint64) (*api.PortCounters, error)
	GetPortAutoneg(nodeID, portID uint64) (api.TriState, error)
	GetPortFecMode(nodeID, portID uint64) (api.FecMode, error)
	GetPortLoopbackMode(nodeID, portID uint64) (api.LoopbackMode, error)
	GetFrontPanelPortInfo(nodeID, portID uint64) (*api.FrontPanelPortInfo, error)
	GetPortTimeLastChanged(nodeID, portID uint64) (time.Time, error)
	GetPortConfig(nodeID, portID uint64) (*api.PortConfig, error)

	// GetPortData returns one attribute of a port selected by request kind.
	GetPortData(request *api.DataRequest) (*api.DataResponse, error)

	GetNodeIDToUnitMap() (map[uint64]int, error)
	GetUnitFromNodeID(nodeID uint64) (int, error)
	GetTransceiverState(slot, port int32) (api.TransceiverState, error)

	// RegisterEventNotifyWriter sets the (only) receiver of port state
	// change notifications, replacing the previous one.
	RegisterEventNotifyWriter(writer api.NotifyWriter) error
	UnregisterEventNotifyWriter() error
}

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
	"reflect"

	"github.com/contiv/chassis/plugins/chassis/api"
)

// VerifyChassisConfig checks the configuration without touching the hardware.
func (m *Manager) VerifyChassisConfig(config *api.ChassisConfig) error {
	m.RLock()
	defer m.RUnlock()

	if config == nil {
		return api.NewError(api.InvalidParam, "chassis config is missing")
	}
	if len(config.TrunkPorts) > 0 {
		return api.NewError(api.InvalidParam, "trunk ports are not supported")
	}
	if len(config.PortGroups) > 0 {
		return api.NewError(api.InvalidParam, "port groups are not supported")
	}
	if len(config.Nodes) == 0 {
		return api.NewError(api.InvalidParam, "the config contains no nodes")
	}

	nodeIDToUnit := make(map[uint64]int)
	for unit, node := range config.Nodes {
		if node.ID == 0 {
			return api.NewError(api.InvalidParam, "invalid node ID 0 (node #%d)", unit)
		}
		if node.Slot <= 0 {
			return api.NewError(api.InvalidParam, "invalid slot %d of node %d", node.Slot, node.ID)
		}
		if _, duplicate := nodeIDToUnit[node.ID]; duplicate {
			return api.NewError(api.InvalidParam, "duplicate node ID %d", node.ID)
		}
		nodeIDToUnit[node.ID] = unit
	}

	portKeys := make(map[api.PortKey]uint64)
	layout := make(map[uint64]map[uint64]api.PortKey)
	sdkPorts := make(map[uint64]map[uint32]uint64)
	for nodeID := range nodeIDToUnit {
		layout[nodeID] = make(map[uint64]api.PortKey)
		sdkPorts[nodeID] = make(map[uint32]uint64)
	}
	for _, port := range config.SingletonPorts {
		if port.ID == 0 {
			return api.NewError(api.InvalidParam, "invalid port ID 0 (port %s)", port.Key())
		}
		if port.Slot <= 0 {
			return api.NewError(api.InvalidParam, "invalid slot %d of port %d", port.Slot, port.ID)
		}
		if port.Port <= 0 {
			return api.NewError(api.InvalidParam, "invalid port number %d of port %d", port.Port, port.ID)
		}
		if port.SpeedBps == 0 {
			return api.NewError(api.InvalidParam, "invalid speed of port %d", port.ID)
		}
		key := port.Key()
		if otherID, duplicate := portKeys[key]; duplicate {
			return api.NewError(api.InvalidParam, "ports %d and %d have the same location %s", otherID, port.ID, key)
		}
		portKeys[key] = port.ID

		if port.Node == 0 {
			return api.NewError(api.InvalidParam, "invalid node ID 0 of port %d", port.ID)
		}
		unit, known := nodeIDToUnit[port.Node]
		if !known {
			return api.NewError(api.InvalidParam, "port %d refers to unknown node %d", port.ID, port.Node)
		}
		if _, duplicate := layout[port.Node][port.ID]; duplicate {
			return api.NewError(api.InvalidParam, "duplicate port ID %d on node %d", port.ID, port.Node)
		}
		layout[port.Node][port.ID] = key

		sdkPort, err := m.Backend.PortIDFromPortKey(unit, key)
		if err != nil {
			return api.WrapError(api.InvalidParam, err, "port %d (%s) does not exist on node %d", port.ID, key, port.Node)
		}
		if otherID, duplicate := sdkPorts[port.Node][sdkPort]; duplicate {
			return api.NewError(api.InvalidParam, "ports %d and %d map to the same SDK port %d on node %d",
				otherID, port.ID, sdkPort, port.Node)
		}
		sdkPorts[port.Node][sdkPort] = port.ID
	}

	if !m.initialized {
		return nil
	}
	if !reflect.DeepEqual(nodeIDToUnit, m.state.nodeIDToUnit) {
		return api.NewError(api.RebootRequired, "the node to unit mapping has changed, reboot required")
	}
	if !reflect.DeepEqual(layout, m.state.portLayout()) {
		return api.NewError(api.RebootRequired, "the port layout has changed, reboot required")
	}
	return nil
}

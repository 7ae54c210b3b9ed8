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
	"github.com/contiv/chassis/plugins/chassis/api"
)

// PushChassisConfig reconciles the hardware with the given configuration.
// Per-port failures do not stop the reconciliation of other ports and are
// returned together as *api.PortErrors.
func (m *Manager) PushChassisConfig(config *api.ChassisConfig) error {
	m.Lock()
	defer m.Unlock()

	if config == nil {
		return api.NewError(api.InvalidParam, "chassis config is missing")
	}

	if !m.eventWritersRegistered() {
		if err := m.registerEventWriters(); err != nil {
			return err
		}
	}

	newState, err := m.buildState(config)
	if err != nil {
		return err
	}
	oldState := m.state

	errs := &api.PortErrors{}
	for _, port := range config.SingletonPorts {
		unit := newState.nodeIDToUnit[port.Node]
		sdkPort := newState.sdkPort[port.Node][port.ID]
		newConfig := newState.portConfig[port.Node][port.ID]

		var oldConfig *api.PortConfig
		if m.initialized {
			oldConfig = oldState.portConfig[port.Node][port.ID]
		}

		switch {
		case oldConfig == nil:
			err = m.addPortHelper(unit, sdkPort, port, newConfig)

		case !oldConfig.IsHealthy():
			// the previous attempt failed, the port is in unknown state
			oldUnit, oldSDKPort, _ := oldState.lookupPort(port.Node, port.ID)
			if m.Backend.PortIsValid(oldUnit, oldSDKPort) {
				if delErr := m.Backend.PortDelete(oldUnit, oldSDKPort); delErr != nil {
					m.Log.Warnf("Failed to delete port %d on node %d before re-adding it: %v",
						port.ID, port.Node, delErr)
				}
			}
			err = m.addPortHelper(unit, sdkPort, port, newConfig)

		case !oldConfig.SpeedBps.IsSet() || !oldConfig.FecMode.IsSet():
			err = api.NewError(api.Internal,
				"invalid internal state for port %d on node %d: admin state %s without speed or FEC",
				port.ID, port.Node, oldConfig.AdminState)
			m.Log.Error(err)

		default:
			err = m.updatePortHelper(unit, sdkPort, port, oldConfig, newConfig)
		}
		errs.Add(port.Node, port.ID, err)
	}

	// delete ports which are no longer configured
	if m.initialized {
		for _, nodeID := range oldState.nodeIDs() {
			for _, portID := range oldState.portIDs(nodeID) {
				if _, kept := newState.singletonPort[nodeID][portID]; kept {
					continue
				}
				oldUnit, oldSDKPort, _ := oldState.lookupPort(nodeID, portID)
				err = m.Backend.PortDelete(oldUnit, oldSDKPort)
				if err != nil {
					err = api.WrapError(api.Internal, err, "failed to delete port %d on node %d", portID, nodeID)
				} else {
					m.Log.Infof("Deleted port %d on node %d", portID, nodeID)
				}
				errs.Add(nodeID, portID, err)
			}
		}

		// transceiver state survives the push
		for key := range newState.xcvrState {
			if state, known := oldState.xcvrState[key]; known {
				newState.xcvrState[key] = state
			}
		}
	}

	m.state = newState
	m.initialized = true
	m.updateAdminStateMetrics()

	if errs.Len() > 0 {
		m.Log.Errorf("Chassis config pushed with %d failed port operations: %v", errs.Len(), errs)
	} else {
		m.Log.Infof("Chassis config pushed: %d nodes, %d singleton ports",
			len(config.Nodes), len(config.SingletonPorts))
	}
	return errs.ErrorOrNil()
}

// buildState translates the configuration into a fresh chassis state
// with all port configs set to UNKNOWN. Nothing is changed in the hardware.
func (m *Manager) buildState(config *api.ChassisConfig) (*chassisState, error) {
	state := newChassisState()
	state.config = config

	for unit, node := range config.Nodes {
		state.addNode(node.ID, unit)
	}
	for _, port := range config.SingletonPorts {
		unit, known := state.nodeIDToUnit[port.Node]
		if !known {
			return nil, api.NewError(api.InvalidParam,
				"port %d refers to unknown node %d", port.ID, port.Node)
		}
		sdkPort, err := m.Backend.PortIDFromPortKey(unit, port.Key())
		if err != nil {
			return nil, api.WrapError(api.InvalidParam, err,
				"failed to get SDK port for port %d (%s) on node %d", port.ID, port.Key(), port.Node)
		}
		if otherID, duplicate := state.sdkToPortID[port.Node][sdkPort]; duplicate {
			return nil, api.NewError(api.InvalidParam,
				"ports %d and %d map to the same SDK port %d on node %d", otherID, port.ID, sdkPort, port.Node)
		}
		state.addPort(port, sdkPort)
	}
	return state, nil
}

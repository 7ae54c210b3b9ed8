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

// GetPortState returns the last observed oper state of the port. If no
// port status event was received yet, the hardware is queried.
func (m *Manager) GetPortState(nodeID, portID uint64) (api.PortState, error) {
	m.RLock()
	defer m.RUnlock()
	return m.getPortState(nodeID, portID)
}

func (m *Manager) getPortState(nodeID, portID uint64) (api.PortState, error) {
	if err := m.checkInitialized(); err != nil {
		return api.PortStateUnknown, err
	}
	unit, sdkPort, err := m.state.lookupPort(nodeID, portID)
	if err != nil {
		return api.PortStateUnknown, err
	}
	if state := m.state.portState[nodeID][portID]; state != api.PortStateUnknown {
		return state, nil
	}
	state, err := m.Backend.PortOperStateGet(unit, sdkPort)
	if err != nil {
		return api.PortStateUnknown, api.WrapError(api.Internal, err,
			"failed to get oper state of port %d on node %d", portID, nodeID)
	}
	return state, nil
}

// getPortConfig returns the applied config of a known port.
// The chassis lock has to be held.
func (m *Manager) getPortConfig(nodeID, portID uint64) (*api.PortConfig, error) {
	if err := m.checkInitialized(); err != nil {
		return nil, err
	}
	if _, _, err := m.state.lookupPort(nodeID, portID); err != nil {
		return nil, err
	}
	return m.state.portConfig[nodeID][portID], nil
}

// GetPortConfig returns a copy of the configuration applied to the port.
func (m *Manager) GetPortConfig(nodeID, portID uint64) (*api.PortConfig, error) {
	m.RLock()
	defer m.RUnlock()
	config, err := m.getPortConfig(nodeID, portID)
	if err != nil {
		return nil, err
	}
	configCopy := *config
	return &configCopy, nil
}

// GetPortAdminState returns the admin state applied to the port.
func (m *Manager) GetPortAdminState(nodeID, portID uint64) (api.AdminState, error) {
	m.RLock()
	defer m.RUnlock()
	config, err := m.getPortConfig(nodeID, portID)
	if err != nil {
		return api.AdminStateUnknown, err
	}
	return config.AdminState, nil
}

// GetPortSpeed returns the speed applied to the port.
func (m *Manager) GetPortSpeed(nodeID, portID uint64) (uint64, error) {
	m.RLock()
	defer m.RUnlock()
	config, err := m.getPortConfig(nodeID, portID)
	if err != nil {
		return 0, err
	}
	speed, set := config.SpeedBps.Get()
	if !set {
		return 0, api.NewError(api.EntryNotFound, "speed of port %d on node %d is not configured", portID, nodeID)
	}
	return speed, nil
}

// GetNegotiatedPortSpeed returns the speed of the link, zero unless the port is UP.
func (m *Manager) GetNegotiatedPortSpeed(nodeID, portID uint64) (uint64, error) {
	m.RLock()
	defer m.RUnlock()
	state, err := m.getPortState(nodeID, portID)
	if err != nil {
		return 0, err
	}
	if state != api.PortStateUp {
		return 0, nil
	}
	return m.state.portConfig[nodeID][portID].SpeedBps.Value(), nil
}

// GetPortCounters reads the counters of the port from the hardware.
func (m *Manager) GetPortCounters(nodeID, portID uint64) (*api.PortCounters, error) {
	m.RLock()
	defer m.RUnlock()
	if err := m.checkInitialized(); err != nil {
		return nil, err
	}
	unit, sdkPort, err := m.state.lookupPort(nodeID, portID)
	if err != nil {
		return nil, err
	}
	counters, err := m.Backend.PortAllStatsGet(unit, sdkPort)
	if err != nil {
		return nil, api.WrapError(api.Internal, err, "failed to get counters of port %d on node %d", portID, nodeID)
	}
	return counters, nil
}

// GetPortAutoneg returns the autonegotiation policy applied to the port.
func (m *Manager) GetPortAutoneg(nodeID, portID uint64) (api.TriState, error) {
	m.RLock()
	defer m.RUnlock()
	config, err := m.getPortConfig(nodeID, portID)
	if err != nil {
		return api.TriStateUnknown, err
	}
	return config.Autoneg.Value(), nil
}

// GetPortFecMode returns the FEC mode applied to the port.
func (m *Manager) GetPortFecMode(nodeID, portID uint64) (api.FecMode, error) {
	m.RLock()
	defer m.RUnlock()
	config, err := m.getPortConfig(nodeID, portID)
	if err != nil {
		return api.FecModeUnknown, err
	}
	return config.FecMode.Value(), nil
}

// GetPortLoopbackMode returns the loopback mode applied to the port.
func (m *Manager) GetPortLoopbackMode(nodeID, portID uint64) (api.LoopbackMode, error) {
	m.RLock()
	defer m.RUnlock()
	config, err := m.getPortConfig(nodeID, portID)
	if err != nil {
		return api.LoopbackModeUnknown, err
	}
	return config.LoopbackMode.Value(), nil
}

// GetFrontPanelPortInfo reads the info about the module plugged into the port.
func (m *Manager) GetFrontPanelPortInfo(nodeID, portID uint64) (*api.FrontPanelPortInfo, error) {
	m.RLock()
	defer m.RUnlock()
	if err := m.checkInitialized(); err != nil {
		return nil, err
	}
	if _, _, err := m.state.lookupPort(nodeID, portID); err != nil {
		return nil, err
	}
	if m.Phal == nil {
		return nil, api.NewError(api.Unimplemented, "no PHAL available")
	}
	port := m.state.singletonPort[nodeID][portID]
	info, err := m.Phal.GetFrontPanelPortInfo(port.Slot, port.Port)
	if err != nil {
		return nil, api.WrapError(api.Internal, err, "failed to get front panel info of port %d on node %d", portID, nodeID)
	}
	return info, nil
}

// GetPortTimeLastChanged returns the time of the last oper state change
// (zero time if no change was observed).
func (m *Manager) GetPortTimeLastChanged(nodeID, portID uint64) (time.Time, error) {
	m.RLock()
	defer m.RUnlock()
	if err := m.checkInitialized(); err != nil {
		return time.Time{}, err
	}
	if _, _, err := m.state.lookupPort(nodeID, portID); err != nil {
		return time.Time{}, err
	}
	return m.state.timeLastChanged[nodeID][portID], nil
}

// GetNodeIDToUnitMap returns a copy of the node ID -> SDK unit mapping.
func (m *Manager) GetNodeIDToUnitMap() (map[uint64]int, error) {
	m.RLock()
	defer m.RUnlock()
	if err := m.checkInitialized(); err != nil {
		return nil, err
	}
	units := make(map[uint64]int, len(m.state.nodeIDToUnit))
	for nodeID, unit := range m.state.nodeIDToUnit {
		units[nodeID] = unit
	}
	return units, nil
}

// GetUnitFromNodeID returns the SDK unit driving the node.
func (m *Manager) GetUnitFromNodeID(nodeID uint64) (int, error) {
	m.RLock()
	defer m.RUnlock()
	if err := m.checkInitialized(); err != nil {
		return 0, err
	}
	unit, known := m.state.nodeIDToUnit[nodeID]
	if !known {
		return 0, api.NewError(api.EntryNotFound, "unknown node %d", nodeID)
	}
	return unit, nil
}

// GetPortData returns the attribute of a port selected by the request kind.
func (m *Manager) GetPortData(request *api.DataRequest) (*api.DataResponse, error) {
	if request == nil {
		return nil, api.NewError(api.InvalidParam, "data request is missing")
	}
	nodeID, portID := request.NodeID, request.PortID
	resp := &api.DataResponse{}

	switch request.Kind {
	case api.OperStatus:
		state, err := m.GetPortState(nodeID, portID)
		if err != nil {
			return nil, err
		}
		resp.OperStatus = &state
	case api.AdminStatus:
		state, err := m.GetPortAdminState(nodeID, portID)
		if err != nil {
			return nil, err
		}
		resp.AdminStatus = &state
	case api.PortSpeed:
		speed, err := m.GetPortSpeed(nodeID, portID)
		if err != nil {
			return nil, err
		}
		resp.SpeedBps = &speed
	case api.NegotiatedSpeed:
		speed, err := m.GetNegotiatedPortSpeed(nodeID, portID)
		if err != nil {
			return nil, err
		}
		resp.SpeedBps = &speed
	case api.PortCountersData:
		counters, err := m.GetPortCounters(nodeID, portID)
		if err != nil {
			return nil, err
		}
		resp.Counters = counters
	case api.AutonegStatus:
		autoneg, err := m.GetPortAutoneg(nodeID, portID)
		if err != nil {
			return nil, err
		}
		resp.Autoneg = &autoneg
	case api.FecStatus:
		fec, err := m.GetPortFecMode(nodeID, portID)
		if err != nil {
			return nil, err
		}
		resp.FecMode = &fec
	case api.LoopbackStatus:
		loopback, err := m.GetPortLoopbackMode(nodeID, portID)
		if err != nil {
			return nil, err
		}
		resp.LoopbackMode = &loopback
	case api.FrontPanelInfo:
		info, err := m.GetFrontPanelPortInfo(nodeID, portID)
		if err != nil {
			return nil, err
		}
		resp.FrontPanelInfo = info
	case api.TimeLastChanged:
		changed, err := m.GetPortTimeLastChanged(nodeID, portID)
		if err != nil {
			return nil, err
		}
		resp.TimeLastChanged = &changed
	case api.PortConfiguration:
		config, err := m.GetPortConfig(nodeID, portID)
		if err != nil {
			return nil, err
		}
		resp.Config = config
	default:
		return nil, api.NewError(api.Unimplemented, "unsupported data request kind '%s'", request.Kind)
	}
	return resp, nil
}

// ReplayPortsConfig re-applies the recorded configuration of every healthy
// port of the node. Oper states are reset to UNKNOWN.
func (m *Manager) ReplayPortsConfig(nodeID uint64) error {
	m.Lock()
	defer m.Unlock()
	if err := m.checkInitialized(); err != nil {
		return err
	}
	unit, known := m.state.nodeIDToUnit[nodeID]
	if !known {
		return api.NewError(api.EntryNotFound, "unknown node %d", nodeID)
	}

	errs := &api.PortErrors{}
	for _, portID := range m.state.portIDs(nodeID) {
		m.state.portState[nodeID][portID] = api.PortStateUnknown
		config := m.state.portConfig[nodeID][portID]
		if !config.IsHealthy() {
			m.Log.Warnf("Not replaying config of port %d on node %d, its state is unknown", portID, nodeID)
			continue
		}
		port := singletonPortFromConfig(m.state.singletonPort[nodeID][portID], config)
		errs.Add(nodeID, portID, m.addPortHelper(unit, m.state.sdkPort[nodeID][portID], port, config))
	}
	m.updateAdminStateMetrics()
	m.Log.Infof("Replayed config of %d ports on node %d (%d failed)",
		len(m.state.portIDs(nodeID)), nodeID, errs.Len())
	return errs.ErrorOrNil()
}

// ResetPortsConfig marks all ports of the node as not configured, the next
// push adds them again.
func (m *Manager) ResetPortsConfig(nodeID uint64) error {
	m.Lock()
	defer m.Unlock()
	if err := m.checkInitialized(); err != nil {
		return err
	}
	if _, known := m.state.nodeIDToUnit[nodeID]; !known {
		return api.NewError(api.EntryNotFound, "unknown node %d", nodeID)
	}
	for _, portID := range m.state.portIDs(nodeID) {
		m.state.portConfig[nodeID][portID] = &api.PortConfig{}
		m.state.portState[nodeID][portID] = api.PortStateUnknown
	}
	m.updateAdminStateMetrics()
	m.Log.Infof("Reset config of ports on node %d", nodeID)
	return nil
}

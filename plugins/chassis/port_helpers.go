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

// validateAdminState rejects admin states which cannot be applied.
func validateAdminState(port *api.SingletonPort) error {
	switch port.ConfigParams.AdminState {
	case api.AdminStateUnknown:
		return api.NewError(api.InvalidParam,
			"invalid admin state for port %d on node %d", port.ID, port.Node)
	case api.AdminStateDiag:
		return api.NewError(api.Unimplemented,
			"unsupported DIAG admin state for port %d on node %d", port.ID, port.Node)
	}
	return nil
}

// addPortHelper adds the port into the hardware and applies its settings.
// <config> records what was applied successfully: it is reset first and
// every field is set only after the corresponding operation succeeded.
// The first failure stops the procedure, nothing is reverted.
func (m *Manager) addPortHelper(unit int, sdkPort uint32, port *api.SingletonPort, config *api.PortConfig) error {
	*config = api.PortConfig{}
	params := port.ConfigParams

	if err := validateAdminState(port); err != nil {
		return err
	}

	m.Log.Infof("Adding port %d on node %d (SDK port %d): speed=%d, FEC=%s",
		port.ID, port.Node, sdkPort, port.SpeedBps, params.FecMode)
	if err := m.Backend.PortAdd(unit, sdkPort, port.SpeedBps, params.FecMode); err != nil {
		return api.WrapError(api.Internal, err, "failed to add port %d on node %d", port.ID, port.Node)
	}
	config.SpeedBps.Set(port.SpeedBps)
	config.FecMode.Set(params.FecMode)
	config.AdminState = api.AdminStateDisabled

	if params.MTU != 0 {
		if err := m.Backend.PortMtuSet(unit, sdkPort, params.MTU); err != nil {
			return api.WrapError(api.Internal, err,
				"failed to set MTU %d for port %d on node %d", params.MTU, port.ID, port.Node)
		}
	}
	config.MTU.Set(params.MTU)

	if params.Autoneg != api.TriStateUnknown {
		if err := m.Backend.PortAutonegPolicySet(unit, sdkPort, params.Autoneg); err != nil {
			return api.WrapError(api.Internal, err,
				"failed to set autoneg policy for port %d on node %d", port.ID, port.Node)
		}
	}
	config.Autoneg.Set(params.Autoneg)

	if params.LoopbackMode != api.LoopbackModeUnknown {
		if err := m.Backend.PortLoopbackModeSet(unit, sdkPort, params.LoopbackMode); err != nil {
			return api.WrapError(api.Internal, err,
				"failed to set loopback mode for port %d on node %d", port.ID, port.Node)
		}
	}
	config.LoopbackMode.Set(params.LoopbackMode)

	if params.AdminState == api.AdminStateEnabled {
		if err := m.Backend.PortEnable(unit, sdkPort); err != nil {
			return api.WrapError(api.Internal, err, "failed to enable port %d on node %d", port.ID, port.Node)
		}
		config.AdminState = api.AdminStateEnabled
	}
	return nil
}

// updatePortHelper applies the difference between the previously applied
// configuration <oldConfig> and the requested one. <config> starts
// as a copy of <oldConfig> and tracks what is actually applied.
func (m *Manager) updatePortHelper(unit int, sdkPort uint32, port *api.SingletonPort,
	oldConfig, config *api.PortConfig) error {

	*config = *oldConfig
	params := port.ConfigParams

	if err := validateAdminState(port); err != nil {
		return err
	}

	if !m.Backend.PortIsValid(unit, sdkPort) {
		config.AdminState = api.AdminStateUnknown
		config.SpeedBps.Reset()
		config.FecMode.Reset()
		return api.NewError(api.Internal,
			"port %d on node %d is configured but not valid in the hardware", port.ID, port.Node)
	}

	if !oldConfig.SpeedBps.Is(port.SpeedBps) {
		return m.changePortSpeed(unit, sdkPort, port, oldConfig, config)
	}

	if !oldConfig.FecMode.Is(params.FecMode) {
		return api.NewError(api.Unimplemented,
			"FEC mode of port %d on node %d cannot be changed from %s to %s",
			port.ID, port.Node, oldConfig.FecMode, params.FecMode)
	}

	configChanged := false

	if !oldConfig.MTU.Is(params.MTU) {
		m.Log.Debugf("MTU of port %d on node %d changed: %s -> %d", port.ID, port.Node, oldConfig.MTU, params.MTU)
		config.MTU.Reset()
		if err := m.Backend.PortMtuSet(unit, sdkPort, params.MTU); err != nil {
			return api.WrapError(api.Internal, err,
				"failed to set MTU %d for port %d on node %d", params.MTU, port.ID, port.Node)
		}
		config.MTU.Set(params.MTU)
		configChanged = true
	}

	if !oldConfig.Autoneg.Is(params.Autoneg) {
		m.Log.Debugf("Autoneg of port %d on node %d changed: %s -> %s", port.ID, port.Node, oldConfig.Autoneg, params.Autoneg)
		config.Autoneg.Reset()
		if params.Autoneg != api.TriStateUnknown {
			if err := m.Backend.PortAutonegPolicySet(unit, sdkPort, params.Autoneg); err != nil {
				return api.WrapError(api.Internal, err,
					"failed to set autoneg policy for port %d on node %d", port.ID, port.Node)
			}
		}
		config.Autoneg.Set(params.Autoneg)
		configChanged = true
	}

	if !oldConfig.LoopbackMode.Is(params.LoopbackMode) {
		m.Log.Debugf("Loopback of port %d on node %d changed: %s -> %s",
			port.ID, port.Node, oldConfig.LoopbackMode, params.LoopbackMode)
		config.LoopbackMode.Reset()
		if params.LoopbackMode != api.LoopbackModeUnknown {
			if err := m.Backend.PortLoopbackModeSet(unit, sdkPort, params.LoopbackMode); err != nil {
				return api.WrapError(api.Internal, err,
					"failed to set loopback mode for port %d on node %d", port.ID, port.Node)
			}
		}
		config.LoopbackMode.Set(params.LoopbackMode)
		configChanged = true
	}

	var needDisable, needEnable bool
	switch params.AdminState {
	case api.AdminStateDisabled:
		needDisable = oldConfig.AdminState != api.AdminStateDisabled
	case api.AdminStateEnabled:
		if oldConfig.AdminState != api.AdminStateEnabled {
			needEnable = true
		} else if configChanged {
			// bounce the port to activate the new settings
			needDisable, needEnable = true, true
		}
	}

	if needDisable {
		m.Log.Infof("Disabling port %d on node %d", port.ID, port.Node)
		if err := m.Backend.PortDisable(unit, sdkPort); err != nil {
			return api.WrapError(api.Internal, err, "failed to disable port %d on node %d", port.ID, port.Node)
		}
		config.AdminState = api.AdminStateDisabled
	}
	if needEnable {
		m.Log.Infof("Enabling port %d on node %d", port.ID, port.Node)
		if err := m.Backend.PortEnable(unit, sdkPort); err != nil {
			return api.WrapError(api.Internal, err, "failed to enable port %d on node %d", port.ID, port.Node)
		}
		config.AdminState = api.AdminStateEnabled
	}
	return nil
}

// changePortSpeed re-creates the port with the new speed. If the port cannot
// be added with the new configuration, the old one is restored.
func (m *Manager) changePortSpeed(unit int, sdkPort uint32, port *api.SingletonPort,
	oldConfig, config *api.PortConfig) error {

	m.Log.Infof("Speed of port %d on node %d changed: %s -> %d, re-adding the port",
		port.ID, port.Node, oldConfig.SpeedBps, port.SpeedBps)

	if err := m.Backend.PortDisable(unit, sdkPort); err != nil {
		return api.WrapError(api.Internal, err, "failed to disable port %d on node %d", port.ID, port.Node)
	}
	config.AdminState = api.AdminStateDisabled

	if err := m.Backend.PortDelete(unit, sdkPort); err != nil {
		return api.WrapError(api.Internal, err, "failed to delete port %d on node %d", port.ID, port.Node)
	}
	*config = api.PortConfig{}

	err := m.addPortHelper(unit, sdkPort, port, config)
	if err == nil {
		return nil
	}

	m.Log.Warnf("Failed to add port %d on node %d with the new speed, restoring the old config: %v",
		port.ID, port.Node, err)
	if restoreErr := m.addPortHelper(unit, sdkPort, singletonPortFromConfig(port, oldConfig), config); restoreErr != nil {
		m.Log.Errorf("Failed to restore the old config of port %d on node %d: %v", port.ID, port.Node, restoreErr)
	}
	return api.WrapError(api.CodeOf(err), err,
		"failed to change speed of port %d on node %d to %d", port.ID, port.Node, port.SpeedBps)
}

// singletonPortFromConfig returns a copy of <port> requesting the settings
// recorded in <config>.
func singletonPortFromConfig(port *api.SingletonPort, config *api.PortConfig) *api.SingletonPort {
	portCopy := *port
	portCopy.SpeedBps = config.SpeedBps.Value()
	portCopy.ConfigParams = api.PortConfigParams{
		AdminState:   config.AdminState,
		MTU:          config.MTU.Value(),
		Autoneg:      config.Autoneg.Value(),
		FecMode:      config.FecMode.Value(),
		LoopbackMode: config.LoopbackMode.Value(),
	}
	return &portCopy
}

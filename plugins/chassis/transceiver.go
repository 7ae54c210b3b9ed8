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
	"github.com/pkg/errors"

	"github.com/contiv/chassis/plugins/chassis/api"
)

// nextTransceiverState returns the state of a transceiver after the reported
// event. Only PRESENT and NOT_PRESENT can be reported; READY->PRESENT
// and UNKNOWN->NOT_PRESENT are rejected. PRESENT becomes READY once the front
// panel info is read (see handleTransceiverEvent).
// Errors leave the state unchanged.
func nextTransceiverState(current, reported api.TransceiverState) (api.TransceiverState, error) {
	switch reported {
	case api.TransceiverStatePresent:
		if current == api.TransceiverStateReady {
			return current, errors.New("transceiver is already READY")
		}
	case api.TransceiverStateNotPresent:
		if current == api.TransceiverStateUnknown {
			return current, errors.New("transceiver in UNKNOWN state cannot be removed")
		}
	default:
		return current, errors.Errorf("invalid reported transceiver state %s", reported)
	}
	return reported, nil
}

// handleTransceiverEvent updates the state of the transceiver and reads the
// front panel info of newly inserted modules.
func (m *Manager) handleTransceiverEvent(event api.TransceiverEvent) {
	m.Lock()
	defer m.Unlock()

	if !m.initialized {
		m.Log.Debugf("Ignoring %v, chassis manager is not initialized", event)
		return
	}

	key := api.NewGroupKey(event.Slot, event.Port)
	current, known := m.state.xcvrState[key]
	if !known {
		m.Log.Errorf("Received %v for unknown front panel port %s", event, key)
		return
	}

	next, err := nextTransceiverState(current, event.State)
	if err != nil {
		m.Log.Errorf("Rejected %v in state %s: %v", event, current, err)
		return
	}
	m.state.xcvrState[key] = next
	m.Log.Debugf("Transceiver %s: %s -> %s", key, current, next)

	if next != api.TransceiverStatePresent {
		return
	}
	if m.Phal == nil {
		m.Log.Errorf("No PHAL to read front panel info of transceiver %s", key)
		return
	}
	info, err := m.Phal.GetFrontPanelPortInfo(event.Slot, event.Port)
	if err != nil {
		m.Log.Errorf("Failed to read front panel info of transceiver %s: %v", key, err)
		return
	}
	m.state.xcvrState[key] = api.TransceiverStateReady
	m.Log.Infof("Transceiver %s is ready: %+v", key, *info)
}

// GetTransceiverState returns the state of the transceiver plugged
// into the given front-panel port.
func (m *Manager) GetTransceiverState(slot, port int32) (api.TransceiverState, error) {
	m.RLock()
	defer m.RUnlock()
	if err := m.checkInitialized(); err != nil {
		return api.TransceiverStateUnknown, err
	}
	state, known := m.state.xcvrState[api.NewGroupKey(slot, port)]
	if !known {
		return api.TransceiverStateUnknown, api.NewError(api.EntryNotFound, "unknown front panel port %d/%d", slot, port)
	}
	return state, nil
}

// getTransceiverStates returns a copy of all transceiver states.
func (m *Manager) getTransceiverStates() (map[api.PortKey]api.TransceiverState, error) {
	m.RLock()
	defer m.RUnlock()
	if err := m.checkInitialized(); err != nil {
		return nil, err
	}
	states := make(map[api.PortKey]api.TransceiverState, len(m.state.xcvrState))
	for key, state := range m.state.xcvrState {
		states[key] = state
	}
	return states, nil
}

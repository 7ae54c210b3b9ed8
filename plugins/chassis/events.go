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
	"github.com/contiv/chassis/plugins/chassis/channel"
)

// eventWritersRegistered returns true if the event channels exist.
func (m *Manager) eventWritersRegistered() bool {
	m.eventsLock.Lock()
	defer m.eventsLock.Unlock()
	return m.portStatusCh != nil
}

// registerEventWriters creates the event channels, hands their writer ends
// over to the backend and PHAL and starts one reader goroutine per channel.
func (m *Manager) registerEventWriters() error {
	m.eventsLock.Lock()
	defer m.eventsLock.Unlock()

	if m.initialized || m.portStatusCh != nil {
		return api.NewError(api.Internal, "event writers are already registered")
	}

	portStatusCh := channel.New[api.PortStatusEvent](m.config.PortStatusEventDepth)
	if err := m.Backend.RegisterPortStatusEventWriter(portStatusCh.Writer()); err != nil {
		portStatusCh.Close()
		return api.WrapError(api.Internal, err, "failed to register port status event writer")
	}

	var xcvrCh *channel.Channel[api.TransceiverEvent]
	if m.Phal != nil {
		xcvrCh = channel.New[api.TransceiverEvent](m.config.TransceiverEventDepth)
		id, err := m.Phal.RegisterTransceiverEventWriter(xcvrCh.Writer(), api.TransceiverWriterPriorityHigh)
		if err != nil {
			portStatusCh.Close()
			xcvrCh.Close()
			if unregErr := m.Backend.UnregisterPortStatusEventWriter(); unregErr != nil {
				m.Log.Warnf("Failed to unregister port status event writer: %v", unregErr)
			}
			return api.WrapError(api.Internal, err, "failed to register transceiver event writer")
		}
		m.xcvrWriterID = id
	}

	m.portStatusCh = portStatusCh
	m.wg.Add(1)
	go m.readPortStatusEvents(portStatusCh.Reader())

	if xcvrCh != nil {
		m.xcvrCh = xcvrCh
		m.wg.Add(1)
		go m.readTransceiverEvents(xcvrCh.Reader())
	}
	m.Log.Debug("Event writers registered")
	return nil
}

// unregisterEventWriters closes the channels (unblocking the readers),
// unregisters the writers from the backend and PHAL and waits until
// the reader goroutines finish. Must be called without the chassis lock.
func (m *Manager) unregisterEventWriters() error {
	m.eventsLock.Lock()
	portStatusCh, xcvrCh, xcvrWriterID := m.portStatusCh, m.xcvrCh, m.xcvrWriterID
	m.portStatusCh = nil
	m.xcvrCh = nil
	m.xcvrWriterID = 0
	m.eventsLock.Unlock()

	errs := &api.PortErrors{}
	if portStatusCh != nil {
		portStatusCh.Close()
		if err := m.Backend.UnregisterPortStatusEventWriter(); err != nil {
			errs.Add(0, 0, api.WrapError(api.Internal, err, "failed to unregister port status event writer"))
		}
	}
	if xcvrCh != nil {
		xcvrCh.Close()
		if err := m.Phal.UnregisterTransceiverEventWriter(xcvrWriterID); err != nil {
			errs.Add(0, 0, api.WrapError(api.Internal, err, "failed to unregister transceiver event writer"))
		}
	}
	m.wg.Wait()
	m.Log.Debug("Event writers unregistered")
	return errs.ErrorOrNil()
}

// readPortStatusEvents processes port status events until the channel is closed.
func (m *Manager) readPortStatusEvents(reader *channel.Reader[api.PortStatusEvent]) {
	defer m.wg.Done()
	for {
		event, err := reader.Read(-1)
		if err == channel.ErrClosed {
			m.Log.Debug("Port status event channel closed")
			return
		}
		if err != nil {
			m.Log.Errorf("Failed to read port status event: %v", err)
			continue
		}
		m.handlePortStatusEvent(event)
	}
}

// readTransceiverEvents processes transceiver events until the channel is closed.
func (m *Manager) readTransceiverEvents(reader *channel.Reader[api.TransceiverEvent]) {
	defer m.wg.Done()
	for {
		event, err := reader.Read(-1)
		if err == channel.ErrClosed {
			m.Log.Debug("Transceiver event channel closed")
			return
		}
		if err != nil {
			m.Log.Errorf("Failed to read transceiver event: %v", err)
			continue
		}
		m.handleTransceiverEvent(event)
	}
}

// handlePortStatusEvent records the new oper state of the port and notifies
// the subscriber.
func (m *Manager) handlePortStatusEvent(event api.PortStatusEvent) {
	// notified with the chassis lock released
	if notification := m.applyPortStatusEvent(event); notification != nil {
		m.sendNotification(notification)
	}
}

// applyPortStatusEvent records the new oper state of the port and returns
// the notification to send, nil if the event was ignored.
func (m *Manager) applyPortStatusEvent(event api.PortStatusEvent) *api.PortOperStateChangedEvent {
	m.Lock()
	defer m.Unlock()

	if !m.initialized {
		m.Log.Debugf("Ignoring %v, chassis manager is not initialized", event)
		return nil
	}
	nodeID, known := m.state.unitToNodeID[event.Unit]
	if !known {
		m.Log.Errorf("Received %v for unknown unit", event)
		return nil
	}
	portID, known := m.state.sdkToPortID[nodeID][event.SDKPort]
	if !known {
		// ports unknown to the config are managed elsewhere (e.g. CPU port)
		m.Log.Debugf("Ignoring %v for unconfigured port", event)
		return nil
	}

	changed := event.TimeLastChanged
	if changed.IsZero() {
		changed = time.Now()
	}
	m.state.portState[nodeID][portID] = event.State
	m.state.timeLastChanged[nodeID][portID] = changed
	m.Log.Infof("Oper state of port %d on node %d changed to %s", portID, nodeID, event.State)
	m.updateOperStateMetric(nodeID, portID, event.State)

	return &api.PortOperStateChangedEvent{
		NodeID:          nodeID,
		PortID:          portID,
		NewState:        event.State,
		TimeLastChanged: changed,
	}
}

// Shutdown stops event processing and forgets the applied configuration.
// The hardware is left as it is.
func (m *Manager) Shutdown() error {
	m.RLock()
	initialized := m.initialized
	m.RUnlock()

	// unregister with the chassis lock released, the readers may be waiting for it
	var err error
	if initialized || m.eventWritersRegistered() {
		err = m.unregisterEventWriters()
	}

	m.Lock()
	defer m.Unlock()
	m.initialized = false
	m.state = newChassisState()
	m.resetMetrics()
	if initialized {
		m.Log.Info("Chassis manager shut down")
	}
	return err
}

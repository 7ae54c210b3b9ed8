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

// RegisterEventNotifyWriter sets the receiver of port state change
// notifications. The previous writer (if any) is replaced.
func (m *Manager) RegisterEventNotifyWriter(writer api.NotifyWriter) error {
	if writer == nil {
		return api.NewError(api.InvalidParam, "notify writer is nil")
	}
	m.notifyLock.Lock()
	defer m.notifyLock.Unlock()
	m.notifyWriter = writer
	return nil
}

// UnregisterEventNotifyWriter removes the receiver of notifications.
func (m *Manager) UnregisterEventNotifyWriter() error {
	m.notifyLock.Lock()
	defer m.notifyLock.Unlock()
	m.notifyWriter = nil
	return nil
}

// sendNotification delivers the event to the registered writer (if any).
// A writer which fails to accept the event is unregistered.
func (m *Manager) sendNotification(event *api.PortOperStateChangedEvent) {
	m.notifyLock.Lock()
	defer m.notifyLock.Unlock()
	if m.notifyWriter == nil {
		return
	}
	if !m.notifyWriter.Write(event) {
		m.Log.Warnf("Notify writer is not operational, unregistering it (lost %v)", event)
		m.notifyWriter = nil
	}
}

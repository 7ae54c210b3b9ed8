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

package notifier

import (
	"sync"

	"github.com/contiv/chassis/plugins/chassis/api"
)

// MockNotifyWriter records notifications and can simulate a broken subscriber.
type MockNotifyWriter struct {
	sync.Mutex
	events []*api.PortOperStateChangedEvent
	broken bool
	writes int
	gate   chan struct{}
}

// NewMockNotifyWriter is a constructor for MockNotifyWriter.
func NewMockNotifyWriter() *MockNotifyWriter {
	return &MockNotifyWriter{}
}

// Write records the event, returns false if the writer was broken.
// While the writer is blocked, Write waits for Unblock.
func (m *MockNotifyWriter) Write(event *api.PortOperStateChangedEvent) bool {
	m.Lock()
	m.writes++
	gate := m.gate
	m.Unlock()
	if gate != nil {
		<-gate
	}

	m.Lock()
	defer m.Unlock()
	if m.broken {
		return false
	}
	m.events = append(m.events, event)
	return true
}

// Break makes all subsequent writes fail.
func (m *MockNotifyWriter) Break() {
	m.Lock()
	defer m.Unlock()
	m.broken = true
}

// Block makes subsequent writes wait until Unblock is called.
func (m *MockNotifyWriter) Block() {
	m.Lock()
	defer m.Unlock()
	if m.gate == nil {
		m.gate = make(chan struct{})
	}
}

// Unblock releases all waiting writes.
func (m *MockNotifyWriter) Unblock() {
	m.Lock()
	defer m.Unlock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
}

// Events returns the recorded notifications.
func (m *MockNotifyWriter) Events() []*api.PortOperStateChangedEvent {
	m.Lock()
	defer m.Unlock()
	events := make([]*api.PortOperStateChangedEvent, len(m.events))
	copy(events, m.events)
	return events
}

// Writes returns the number of Write calls (including the failed ones).
func (m *MockNotifyWriter) Writes() int {
	m.Lock()
	defer m.Unlock()
	return m.writes
}

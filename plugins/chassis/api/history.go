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
	"sync"
)

// EventRecord is one notification stored by EventHistory.
type EventRecord struct {
	SeqNum uint64                     `json:"seq_num"`
	Event  *PortOperStateChangedEvent `json:"event"`
}

// EventHistory is a NotifyWriter keeping the last <size> notifications
// in memory.
type EventHistory struct {
	sync.Mutex
	size    int
	seqNum  uint64
	records []*EventRecord
	closed  bool
}

// NewEventHistory is the constructor for EventHistory.
func NewEventHistory(size int) *EventHistory {
	if size <= 0 {
		size = 1
	}
	return &EventHistory{size: size}
}

// Write records the event. Returns false once the history was closed.
func (h *EventHistory) Write(event *PortOperStateChangedEvent) bool {
	h.Lock()
	defer h.Unlock()
	if h.closed {
		return false
	}
	evCopy := *event
	h.records = append(h.records, &EventRecord{SeqNum: h.seqNum, Event: &evCopy})
	h.seqNum++
	if len(h.records) > h.size {
		h.records = h.records[len(h.records)-h.size:]
	}
	return true
}

// Records returns the recorded notifications, oldest first.
func (h *EventHistory) Records() []*EventRecord {
	h.Lock()
	defer h.Unlock()
	records := make([]*EventRecord, len(h.records))
	copy(records, h.records)
	return records
}

// Close makes the history refuse further events.
func (h *EventHistory) Close() {
	h.Lock()
	defer h.Unlock()
	h.closed = true
}

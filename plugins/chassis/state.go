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
	"sort"
	"time"

	"github.com/contiv/chassis/plugins/chassis/api"
)

// chassisState is everything the chassis manager knows about the applied
// configuration. Every push builds a new instance.
type chassisState struct {
	config *api.ChassisConfig

	nodeIDToUnit map[uint64]int
	unitToNodeID map[int]uint64

	// node ID -> port ID -> ...
	portState       map[uint64]map[uint64]api.PortState
	timeLastChanged map[uint64]map[uint64]time.Time
	portConfig      map[uint64]map[uint64]*api.PortConfig
	singletonPort   map[uint64]map[uint64]*api.SingletonPort
	sdkPort         map[uint64]map[uint64]uint32

	// node ID -> SDK port -> port ID
	sdkToPortID map[uint64]map[uint32]uint64

	// front-panel port (PortKey with api.ChannelAll) -> transceiver
	xcvrState map[api.PortKey]api.TransceiverState
}

func newChassisState() *chassisState {
	return &chassisState{
		nodeIDToUnit:    make(map[uint64]int),
		unitToNodeID:    make(map[int]uint64),
		portState:       make(map[uint64]map[uint64]api.PortState),
		timeLastChanged: make(map[uint64]map[uint64]time.Time),
		portConfig:      make(map[uint64]map[uint64]*api.PortConfig),
		singletonPort:   make(map[uint64]map[uint64]*api.SingletonPort),
		sdkPort:         make(map[uint64]map[uint64]uint32),
		sdkToPortID:     make(map[uint64]map[uint32]uint64),
		xcvrState:       make(map[api.PortKey]api.TransceiverState),
	}
}

// addNode records node with the given unit.
func (s *chassisState) addNode(nodeID uint64, unit int) {
	s.nodeIDToUnit[nodeID] = unit
	s.unitToNodeID[unit] = nodeID
	s.portState[nodeID] = make(map[uint64]api.PortState)
	s.timeLastChanged[nodeID] = make(map[uint64]time.Time)
	s.portConfig[nodeID] = make(map[uint64]*api.PortConfig)
	s.singletonPort[nodeID] = make(map[uint64]*api.SingletonPort)
	s.sdkPort[nodeID] = make(map[uint64]uint32)
	s.sdkToPortID[nodeID] = make(map[uint32]uint64)
}

// addPort records a singleton port of a node added by addNode.
func (s *chassisState) addPort(port *api.SingletonPort, sdkPort uint32) {
	portCopy := *port
	s.portState[port.Node][port.ID] = api.PortStateUnknown
	s.timeLastChanged[port.Node][port.ID] = time.Time{}
	s.portConfig[port.Node][port.ID] = &api.PortConfig{}
	s.singletonPort[port.Node][port.ID] = &portCopy
	s.sdkPort[port.Node][port.ID] = sdkPort
	s.sdkToPortID[port.Node][sdkPort] = port.ID
	s.xcvrState[port.Key().Group()] = api.TransceiverStateUnknown
}

// lookupPort returns unit and SDK port of a known port.
func (s *chassisState) lookupPort(nodeID, portID uint64) (unit int, sdkPort uint32, err error) {
	unit, known := s.nodeIDToUnit[nodeID]
	if !known {
		return 0, 0, api.NewError(api.EntryNotFound, "unknown node %d", nodeID)
	}
	sdkPort, known = s.sdkPort[nodeID][portID]
	if !known {
		return 0, 0, api.NewError(api.EntryNotFound, "unknown port %d on node %d", portID, nodeID)
	}
	return unit, sdkPort, nil
}

// portIDs returns IDs of all ports of the node in ascending order.
func (s *chassisState) portIDs(nodeID uint64) []uint64 {
	var ids []uint64
	for portID := range s.singletonPort[nodeID] {
		ids = append(ids, portID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// nodeIDs returns IDs of all nodes in ascending order.
func (s *chassisState) nodeIDs() []uint64 {
	var ids []uint64
	for nodeID := range s.nodeIDToUnit {
		ids = append(ids, nodeID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// portLayout returns node ID -> port ID -> port key.
func (s *chassisState) portLayout() map[uint64]map[uint64]api.PortKey {
	layout := make(map[uint64]map[uint64]api.PortKey)
	for nodeID, ports := range s.singletonPort {
		layout[nodeID] = make(map[uint64]api.PortKey)
		for portID, port := range ports {
			layout[nodeID][portID] = port.Key()
		}
	}
	return layout
}

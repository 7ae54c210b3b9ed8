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

// Package sim implements a simulated switch ASIC with pluggable transceivers.
//
// A port of the simulated ASIC has its link UP when it is enabled and either
// a transceiver is inserted into its front-panel port or MAC/PHY loopback
// is configured. Port status and transceiver events are written into
// the registered writers synchronously, from within the call that caused them.
package sim

import (
	"sort"
	"sync"
	"time"

	"github.com/ligato/cn-infra/logging"
	"github.com/pkg/errors"

	"github.com/contiv/chassis/plugins/chassis/api"
)

const (
	// MaxPortsPerSlot is the number of front-panel ports in one slot.
	MaxPortsPerSlot = 64

	// MaxChannels is the number of channels a front-panel port can be split into.
	MaxChannels = 4

	// MaxUnits is the number of simulated ASICs.
	MaxUnits = 8
)

const (
	slotPortRange = 1000
	groupPortBase = 500
)

type unitPort struct {
	unit int
	port uint32
}

type simPort struct {
	key       api.PortKey
	speedBps  uint64
	fec       api.FecMode
	enabled   bool
	mtu       int32
	autoneg   api.TriState
	loopback  api.LoopbackMode
	operState api.PortState
	counters  api.PortCounters
}

type xcvrWriter struct {
	id       int
	priority int
	writer   api.EventWriter[api.TransceiverEvent]
}

// Backend simulates the SDK of a switch ASIC (api.Backend) and the platform
// HAL (api.Phal).
type Backend struct {
	sync.Mutex

	log          logging.Logger
	writeTimeout time.Duration

	ports        map[unitPort]*simPort
	statusWriter api.EventWriter[api.PortStatusEvent]

	xcvrWriters  []*xcvrWriter
	nextWriterID int
	transceivers map[api.PortKey]*api.FrontPanelPortInfo
}

// NewBackend is a constructor for Backend.
func NewBackend(log logging.Logger, writeTimeout time.Duration) *Backend {
	return &Backend{
		log:          log,
		writeTimeout: writeTimeout,
		ports:        make(map[unitPort]*simPort),
		transceivers: make(map[api.PortKey]*api.FrontPanelPortInfo),
	}
}

// PortIDFromPortKey computes SDK port ID as slot*1000 + (port-1)*MaxChannels + channel.
// A key of the whole (non-channelized) port gets slot*1000 + groupPortBase + port-1.
func (b *Backend) PortIDFromPortKey(unit int, key api.PortKey) (uint32, error) {
	if unit < 0 || unit >= MaxUnits {
		return 0, errors.Errorf("invalid unit %d", unit)
	}
	if key.Slot <= 0 || key.Port <= 0 || key.Port > MaxPortsPerSlot {
		return 0, errors.Errorf("port %s does not exist", key)
	}
	if key.Channel == api.ChannelAll {
		return uint32(key.Slot)*slotPortRange + groupPortBase + uint32(key.Port-1), nil
	}
	if key.Channel < 0 || key.Channel >= MaxChannels {
		return 0, errors.Errorf("invalid channel of port %s", key)
	}
	return uint32(key.Slot)*slotPortRange + uint32(key.Port-1)*MaxChannels + uint32(key.Channel), nil
}

// keyFromPortID is the inverse of PortIDFromPortKey.
func keyFromPortID(port uint32) api.PortKey {
	slot, offset := int32(port/slotPortRange), port%slotPortRange
	if offset >= groupPortBase {
		return api.NewGroupKey(slot, int32(offset-groupPortBase)+1)
	}
	return api.NewPortKey(slot, int32(offset/MaxChannels)+1, int32(offset%MaxChannels))
}

func (b *Backend) getPort(unit int, port uint32) (*simPort, error) {
	p, exists := b.ports[unitPort{unit, port}]
	if !exists {
		return nil, errors.Errorf("port %d does not exist on unit %d", port, unit)
	}
	return p, nil
}

// PortAdd creates the port.
func (b *Backend) PortAdd(unit int, port uint32, speedBps uint64, fec api.FecMode) error {
	b.Lock()
	defer b.Unlock()
	if _, exists := b.ports[unitPort{unit, port}]; exists {
		return errors.Errorf("port %d already exists on unit %d", port, unit)
	}
	if speedBps == 0 {
		return errors.Errorf("invalid speed for port %d", port)
	}
	b.ports[unitPort{unit, port}] = &simPort{
		key:       keyFromPortID(port),
		speedBps:  speedBps,
		fec:       fec,
		operState: api.PortStateDown,
	}
	b.log.Debugf("Added port %d on unit %d (%d bps)", port, unit, speedBps)
	return nil
}

// PortDelete removes the port.
func (b *Backend) PortDelete(unit int, port uint32) error {
	b.Lock()
	defer b.Unlock()
	p, err := b.getPort(unit, port)
	if err != nil {
		return err
	}
	p.enabled = false
	b.refreshOperState(unit, port, p)
	delete(b.ports, unitPort{unit, port})
	b.log.Debugf("Deleted port %d on unit %d", port, unit)
	return nil
}

// PortEnable enables the port.
func (b *Backend) PortEnable(unit int, port uint32) error {
	return b.modifyPort(unit, port, func(p *simPort) { p.enabled = true })
}

// PortDisable disables the port.
func (b *Backend) PortDisable(unit int, port uint32) error {
	return b.modifyPort(unit, port, func(p *simPort) { p.enabled = false })
}

// PortMtuSet sets MTU of the port.
func (b *Backend) PortMtuSet(unit int, port uint32, mtu int32) error {
	if mtu < 0 {
		return errors.Errorf("invalid MTU %d", mtu)
	}
	return b.modifyPort(unit, port, func(p *simPort) { p.mtu = mtu })
}

// PortAutonegPolicySet sets the autonegotiation policy of the port.
func (b *Backend) PortAutonegPolicySet(unit int, port uint32, autoneg api.TriState) error {
	return b.modifyPort(unit, port, func(p *simPort) { p.autoneg = autoneg })
}

// PortLoopbackModeSet sets the loopback mode of the port.
func (b *Backend) PortLoopbackModeSet(unit int, port uint32, mode api.LoopbackMode) error {
	return b.modifyPort(unit, port, func(p *simPort) { p.loopback = mode })
}

func (b *Backend) modifyPort(unit int, port uint32, modify func(p *simPort)) error {
	b.Lock()
	defer b.Unlock()
	p, err := b.getPort(unit, port)
	if err != nil {
		return err
	}
	modify(p)
	b.refreshOperState(unit, port, p)
	return nil
}

// PortIsValid returns true if the port exists.
func (b *Backend) PortIsValid(unit int, port uint32) bool {
	b.Lock()
	defer b.Unlock()
	_, exists := b.ports[unitPort{unit, port}]
	return exists
}

// PortOperStateGet returns the link state of the port.
func (b *Backend) PortOperStateGet(unit int, port uint32) (api.PortState, error) {
	b.Lock()
	defer b.Unlock()
	p, err := b.getPort(unit, port)
	if err != nil {
		return api.PortStateUnknown, err
	}
	return p.operState, nil
}

// PortAllStatsGet returns the counters of the port.
func (b *Backend) PortAllStatsGet(unit int, port uint32) (*api.PortCounters, error) {
	b.Lock()
	defer b.Unlock()
	p, err := b.getPort(unit, port)
	if err != nil {
		return nil, err
	}
	counters := p.counters
	return &counters, nil
}

// AddTraffic increments counters of the port (used to simulate traffic).
func (b *Backend) AddTraffic(unit int, port uint32, packets, octets uint64) error {
	b.Lock()
	defer b.Unlock()
	p, err := b.getPort(unit, port)
	if err != nil {
		return err
	}
	if p.operState != api.PortStateUp {
		p.counters.OutDiscards += packets
		return nil
	}
	p.counters.InUnicastPkts += packets
	p.counters.OutUnicastPkts += packets
	p.counters.InOctets += octets
	p.counters.OutOctets += octets
	return nil
}

// RegisterPortStatusEventWriter sets the receiver of port status events.
func (b *Backend) RegisterPortStatusEventWriter(writer api.EventWriter[api.PortStatusEvent]) error {
	b.Lock()
	defer b.Unlock()
	if b.statusWriter != nil {
		return errors.New("port status event writer is already registered")
	}
	b.statusWriter = writer
	return nil
}

// UnregisterPortStatusEventWriter removes the receiver of port status events.
func (b *Backend) UnregisterPortStatusEventWriter() error {
	b.Lock()
	defer b.Unlock()
	b.statusWriter = nil
	return nil
}

// refreshOperState recomputes the link state and emits event on change.
// The backend lock has to be held.
func (b *Backend) refreshOperState(unit int, port uint32, p *simPort) {
	state := api.PortStateDown
	if p.enabled {
		_, present := b.transceivers[p.key.Group()]
		if present || p.loopback == api.LoopbackModeMac || p.loopback == api.LoopbackModePhy {
			state = api.PortStateUp
		}
	}
	if state == p.operState {
		return
	}
	p.operState = state
	if b.statusWriter == nil {
		return
	}
	event := api.PortStatusEvent{Unit: unit, SDKPort: port, State: state, TimeLastChanged: time.Now()}
	if err := b.statusWriter.Write(event, b.writeTimeout); err != nil {
		b.log.Warnf("Failed to write %v: %v", event, err)
	}
}

/*********************************** PHAL ***********************************/

// RegisterTransceiverEventWriter adds a receiver of transceiver events.
// Writers with higher priority receive events first.
func (b *Backend) RegisterTransceiverEventWriter(writer api.EventWriter[api.TransceiverEvent], priority int) (int, error) {
	b.Lock()
	defer b.Unlock()
	b.nextWriterID++
	b.xcvrWriters = append(b.xcvrWriters, &xcvrWriter{id: b.nextWriterID, priority: priority, writer: writer})
	sort.SliceStable(b.xcvrWriters, func(i, j int) bool {
		return b.xcvrWriters[i].priority > b.xcvrWriters[j].priority
	})
	return b.nextWriterID, nil
}

// UnregisterTransceiverEventWriter removes a receiver of transceiver events.
func (b *Backend) UnregisterTransceiverEventWriter(id int) error {
	b.Lock()
	defer b.Unlock()
	for i, w := range b.xcvrWriters {
		if w.id == id {
			b.xcvrWriters = append(b.xcvrWriters[:i], b.xcvrWriters[i+1:]...)
			return nil
		}
	}
	return errors.Errorf("transceiver event writer %d is not registered", id)
}

// GetFrontPanelPortInfo returns info about the inserted transceiver.
func (b *Backend) GetFrontPanelPortInfo(slot, port int32) (*api.FrontPanelPortInfo, error) {
	b.Lock()
	defer b.Unlock()
	info, present := b.transceivers[api.NewGroupKey(slot, port)]
	if !present {
		return &api.FrontPanelPortInfo{HwState: "NOT_PRESENT"}, nil
	}
	infoCopy := *info
	return &infoCopy, nil
}

// InsertTransceiver simulates insertion of a pluggable module.
func (b *Backend) InsertTransceiver(slot, port int32, info *api.FrontPanelPortInfo) error {
	b.Lock()
	defer b.Unlock()
	key := api.NewGroupKey(slot, port)
	if _, present := b.transceivers[key]; present {
		return errors.Errorf("transceiver already inserted into %s", key)
	}
	infoCopy := api.FrontPanelPortInfo{}
	if info != nil {
		infoCopy = *info
	}
	infoCopy.HwState = "PRESENT"
	b.transceivers[key] = &infoCopy
	b.emitTransceiverEvent(api.TransceiverEvent{Slot: slot, Port: port, State: api.TransceiverStatePresent})
	b.refreshGroup(key)
	return nil
}

// RemoveTransceiver simulates removal of a pluggable module.
func (b *Backend) RemoveTransceiver(slot, port int32) error {
	b.Lock()
	defer b.Unlock()
	key := api.NewGroupKey(slot, port)
	if _, present := b.transceivers[key]; !present {
		return errors.Errorf("no transceiver inserted into %s", key)
	}
	delete(b.transceivers, key)
	b.emitTransceiverEvent(api.TransceiverEvent{Slot: slot, Port: port, State: api.TransceiverStateNotPresent})
	b.refreshGroup(key)
	return nil
}

// refreshGroup recomputes the link state of all channels of a front-panel port.
// The backend lock has to be held.
func (b *Backend) refreshGroup(group api.PortKey) {
	for up, p := range b.ports {
		if p.key.Group() == group {
			b.refreshOperState(up.unit, up.port, p)
		}
	}
}

// emitTransceiverEvent writes the event into all writers.
// The backend lock has to be held.
func (b *Backend) emitTransceiverEvent(event api.TransceiverEvent) {
	for _, w := range b.xcvrWriters {
		if err := w.writer.Write(event, b.writeTimeout); err != nil {
			b.log.Warnf("Failed to write %v into writer %d: %v", event, w.id, err)
		}
	}
}

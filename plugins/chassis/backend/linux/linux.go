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

// Package linux implements chassis backend driving Linux network interfaces.
// Every configured port key is mapped to one interface, the SDK port ID
// is the interface index. Link state changes are received from netlink,
// the front panel info is read with ethtool and from the PCI sysfs.
package linux

import (
	"sort"
	"sync"
	"time"

	"github.com/ligato/cn-infra/logging"
	"github.com/pkg/errors"
	"github.com/vishvananda/netlink"

	"github.com/contiv/chassis/pkg/pci"
	"github.com/contiv/chassis/plugins/chassis/api"
)

// MTU restored when zero MTU is requested.
const defaultMTU = 1500

type linuxPort struct {
	ifName    string
	key       api.PortKey
	speedBps  uint64
	added     bool
	operState api.PortState
}

// Backend drives Linux interfaces through netlink.
type Backend struct {
	sync.Mutex

	log          logging.Logger
	writeTimeout time.Duration
	link         LinkCalls
	openEthtool  func() (NicInfo, error)
	pciDevices   PciDevices

	portNames map[api.PortKey]string
	ports     map[uint32]*linuxPort // by interface index

	statusWriter api.EventWriter[api.PortStatusEvent]
	subscribed   chan struct{}
	watchWg      sync.WaitGroup

	xcvrWriters  map[int]api.EventWriter[api.TransceiverEvent]
	nextWriterID int
}

// NewBackend is a constructor for Backend. <ports> maps port keys
// to interface names.
func NewBackend(log logging.Logger, ports map[api.PortKey]string, writeTimeout time.Duration) *Backend {
	return newBackend(log, ports, writeTimeout, netlinkCalls{}, newEthtool, pci.Sysfs{Root: pci.DefaultSysfsRoot})
}

func newBackend(log logging.Logger, ports map[api.PortKey]string, writeTimeout time.Duration,
	link LinkCalls, openEthtool func() (NicInfo, error), pciDevices PciDevices) *Backend {
	portNames := make(map[api.PortKey]string, len(ports))
	for key, name := range ports {
		portNames[key] = name
	}
	return &Backend{
		log:          log,
		writeTimeout: writeTimeout,
		link:         link,
		openEthtool:  openEthtool,
		pciDevices:   pciDevices,
		portNames:    portNames,
		ports:        make(map[uint32]*linuxPort),
		xcvrWriters:  make(map[int]api.EventWriter[api.TransceiverEvent]),
	}
}

// PortIDFromPortKey returns the index of the interface mapped to the key.
func (b *Backend) PortIDFromPortKey(unit int, key api.PortKey) (uint32, error) {
	if unit != 0 {
		return 0, errors.Errorf("invalid unit %d, linux backend has only unit 0", unit)
	}
	b.Lock()
	defer b.Unlock()
	ifName, mapped := b.portNames[key]
	if !mapped {
		return 0, errors.Errorf("port %s is not mapped to any interface", key)
	}
	link, err := b.link.LinkByName(ifName)
	if err != nil {
		return 0, errors.Wrapf(err, "interface %s of port %s not found", ifName, key)
	}
	index := uint32(link.Attrs().Index)
	if _, known := b.ports[index]; !known {
		b.ports[index] = &linuxPort{ifName: ifName, key: key, operState: api.PortStateUnknown}
	}
	return index, nil
}

// getLink returns the port and its current netlink link.
// The backend lock has to be held.
func (b *Backend) getLink(unit int, port uint32, mustBeAdded bool) (*linuxPort, netlink.Link, error) {
	p, known := b.ports[port]
	if unit != 0 || !known {
		return nil, nil, errors.Errorf("unknown port %d on unit %d", port, unit)
	}
	if mustBeAdded && !p.added {
		return nil, nil, errors.Errorf("port %d (%s) was not added", port, p.ifName)
	}
	link, err := b.link.LinkByName(p.ifName)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "interface %s not found", p.ifName)
	}
	return p, link, nil
}

// PortAdd takes over the interface. Only FEC OFF is supported,
// the speed is given by the interface.
func (b *Backend) PortAdd(unit int, port uint32, speedBps uint64, fec api.FecMode) error {
	b.Lock()
	defer b.Unlock()
	p, link, err := b.getLink(unit, port, false)
	if err != nil {
		return err
	}
	if p.added {
		return errors.Errorf("port %d (%s) already added", port, p.ifName)
	}
	if fec != api.FecModeUnknown && fec != api.FecModeOff {
		return errors.Errorf("FEC mode %s is not supported for %s", fec, p.ifName)
	}
	if err := b.link.LinkSetDown(link); err != nil {
		return errors.Wrapf(err, "failed to set %s down", p.ifName)
	}
	p.added = true
	p.speedBps = speedBps
	p.operState = api.PortStateDown
	b.log.Debugf("Added port %d (%s)", port, p.ifName)
	return nil
}

// PortDelete sets the interface down and releases it.
func (b *Backend) PortDelete(unit int, port uint32) error {
	b.Lock()
	defer b.Unlock()
	p, link, err := b.getLink(unit, port, true)
	if err != nil {
		return err
	}
	if err := b.link.LinkSetDown(link); err != nil {
		return errors.Wrapf(err, "failed to set %s down", p.ifName)
	}
	p.added = false
	return nil
}

// PortEnable sets the interface up.
func (b *Backend) PortEnable(unit int, port uint32) error {
	b.Lock()
	defer b.Unlock()
	p, link, err := b.getLink(unit, port, true)
	if err != nil {
		return err
	}
	return errors.Wrapf(b.link.LinkSetUp(link), "failed to set %s up", p.ifName)
}

// PortDisable sets the interface down.
func (b *Backend) PortDisable(unit int, port uint32) error {
	b.Lock()
	defer b.Unlock()
	p, link, err := b.getLink(unit, port, true)
	if err != nil {
		return err
	}
	return errors.Wrapf(b.link.LinkSetDown(link), "failed to set %s down", p.ifName)
}

// PortMtuSet sets MTU of the interface, zero restores the default.
func (b *Backend) PortMtuSet(unit int, port uint32, mtu int32) error {
	b.Lock()
	defer b.Unlock()
	p, link, err := b.getLink(unit, port, true)
	if err != nil {
		return err
	}
	if mtu == 0 {
		mtu = defaultMTU
	}
	return errors.Wrapf(b.link.LinkSetMTU(link, int(mtu)), "failed to set MTU of %s", p.ifName)
}

// PortAutonegPolicySet is not supported.
func (b *Backend) PortAutonegPolicySet(unit int, port uint32, autoneg api.TriState) error {
	return errors.Errorf("autonegotiation cannot be configured by the linux backend")
}

// PortLoopbackModeSet supports only NONE.
func (b *Backend) PortLoopbackModeSet(unit int, port uint32, mode api.LoopbackMode) error {
	if mode == api.LoopbackModeNone {
		return nil
	}
	return errors.Errorf("loopback mode %s is not supported by the linux backend", mode)
}

// PortIsValid returns true if the port was added and its interface exists.
func (b *Backend) PortIsValid(unit int, port uint32) bool {
	b.Lock()
	defer b.Unlock()
	_, _, err := b.getLink(unit, port, true)
	return err == nil
}

// PortOperStateGet returns the oper state of the interface.
func (b *Backend) PortOperStateGet(unit int, port uint32) (api.PortState, error) {
	b.Lock()
	defer b.Unlock()
	_, link, err := b.getLink(unit, port, true)
	if err != nil {
		return api.PortStateUnknown, err
	}
	return operState(link.Attrs()), nil
}

// PortAllStatsGet returns the interface statistics.
func (b *Backend) PortAllStatsGet(unit int, port uint32) (*api.PortCounters, error) {
	b.Lock()
	defer b.Unlock()
	p, link, err := b.getLink(unit, port, true)
	if err != nil {
		return nil, err
	}
	stats := link.Attrs().Statistics
	if stats == nil {
		return nil, errors.Errorf("no statistics available for %s", p.ifName)
	}
	return &api.PortCounters{
		InOctets:        stats.RxBytes,
		OutOctets:       stats.TxBytes,
		InUnicastPkts:   stats.RxPackets - stats.Multicast,
		OutUnicastPkts:  stats.TxPackets,
		InMulticastPkts: stats.Multicast,
		InDiscards:      stats.RxDropped,
		OutDiscards:     stats.TxDropped,
		InErrors:        stats.RxErrors,
		OutErrors:       stats.TxErrors,
		InFcsErrors:     stats.RxCrcErrors,
	}, nil
}

func operState(attrs *netlink.LinkAttrs) api.PortState {
	if attrs.OperState == netlink.OperUp {
		return api.PortStateUp
	}
	return api.PortStateDown
}

// RegisterPortStatusEventWriter starts watching link updates.
func (b *Backend) RegisterPortStatusEventWriter(writer api.EventWriter[api.PortStatusEvent]) error {
	b.Lock()
	defer b.Unlock()
	if b.statusWriter != nil {
		return errors.New("port status event writer is already registered")
	}
	updates := make(chan netlink.LinkUpdate, 64)
	done := make(chan struct{})
	if err := b.link.LinkSubscribe(updates, done); err != nil {
		return errors.Wrap(err, "failed to subscribe for link updates")
	}
	b.statusWriter = writer
	b.subscribed = done
	b.watchWg.Add(1)
	go b.watchLinks(updates, done)
	return nil
}

// UnregisterPortStatusEventWriter stops watching link updates.
func (b *Backend) UnregisterPortStatusEventWriter() error {
	b.Lock()
	if b.subscribed != nil {
		close(b.subscribed)
		b.subscribed = nil
	}
	b.statusWriter = nil
	b.Unlock()
	b.watchWg.Wait()
	return nil
}

// watchLinks translates link updates of added ports into port status events.
func (b *Backend) watchLinks(updates <-chan netlink.LinkUpdate, done <-chan struct{}) {
	defer b.watchWg.Done()
	for {
		select {
		case <-done:
			// netlink closes the channel after its receiver notices the closed socket
			for range updates {
			}
			return
		case update, ok := <-updates:
			if !ok {
				b.log.Warn("Link update subscription closed")
				return
			}
			b.handleLinkUpdate(update)
		}
	}
}

func (b *Backend) handleLinkUpdate(update netlink.LinkUpdate) {
	b.Lock()
	defer b.Unlock()
	attrs := update.Attrs()
	p, known := b.ports[uint32(attrs.Index)]
	if !known || !p.added || b.statusWriter == nil {
		return
	}
	state := operState(attrs)
	if state == p.operState {
		return
	}
	p.operState = state
	event := api.PortStatusEvent{Unit: 0, SDKPort: uint32(attrs.Index), State: state, TimeLastChanged: time.Now()}
	if err := b.statusWriter.Write(event, b.writeTimeout); err != nil {
		b.log.Warnf("Failed to write %v: %v", event, err)
	}
}

/*********************************** PHAL ***********************************/

// RegisterTransceiverEventWriter adds a receiver of transceiver events.
// Every front-panel port with an existing interface is reported as PRESENT
// right away (interfaces do not report module insertion).
func (b *Backend) RegisterTransceiverEventWriter(writer api.EventWriter[api.TransceiverEvent], priority int) (int, error) {
	b.Lock()
	b.nextWriterID++
	id := b.nextWriterID
	b.xcvrWriters[id] = writer

	groups := make(map[api.PortKey]bool)
	for key, ifName := range b.portNames {
		if _, err := b.link.LinkByName(ifName); err == nil {
			groups[key.Group()] = true
		}
	}
	b.Unlock()

	var present []api.PortKey
	for group := range groups {
		present = append(present, group)
	}
	sort.Slice(present, func(i, j int) bool { return present[i].Less(present[j]) })
	for _, group := range present {
		event := api.TransceiverEvent{Slot: group.Slot, Port: group.Port, State: api.TransceiverStatePresent}
		if err := writer.Write(event, b.writeTimeout); err != nil {
			b.log.Warnf("Failed to write %v: %v", event, err)
		}
	}
	return id, nil
}

// UnregisterTransceiverEventWriter removes a receiver of transceiver events.
func (b *Backend) UnregisterTransceiverEventWriter(id int) error {
	b.Lock()
	defer b.Unlock()
	if _, registered := b.xcvrWriters[id]; !registered {
		return errors.Errorf("transceiver event writer %d is not registered", id)
	}
	delete(b.xcvrWriters, id)
	return nil
}

// GetFrontPanelPortInfo describes the NIC behind the front-panel port.
func (b *Backend) GetFrontPanelPortInfo(slot, port int32) (*api.FrontPanelPortInfo, error) {
	b.Lock()
	var ifName string
	var keys []api.PortKey
	group := api.NewGroupKey(slot, port)
	for key := range b.portNames {
		if key.Group() == group {
			keys = append(keys, key)
		}
	}
	if len(keys) > 0 {
		sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
		ifName = b.portNames[keys[0]]
	}
	b.Unlock()

	if ifName == "" {
		return nil, errors.Errorf("front panel port %s is not mapped to any interface", group)
	}
	tool, err := b.openEthtool()
	if err != nil {
		return nil, errors.Wrap(err, "failed to init ethtool")
	}
	defer tool.Close()

	driver, err := tool.DriverName(ifName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get driver of %s", ifName)
	}
	busInfo, err := tool.BusInfo(ifName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get bus info of %s", ifName)
	}
	info := &api.FrontPanelPortInfo{
		PhysicalPortType: "ETHERNET",
		MediaType:        "NIC",
		VendorName:       driver,
		PartNumber:       busInfo,
		SerialNumber:     ifName,
		HwState:          "PRESENT",
	}
	if pci.IsValidAddress(busInfo) {
		device, err := b.pciDevices.ReadDevice(busInfo)
		if err != nil {
			b.log.Warnf("Failed to read PCI device %s of %s: %v", busInfo, ifName, err)
		} else {
			info.PartNumber = device.ID()
		}
	}
	return info, nil
}

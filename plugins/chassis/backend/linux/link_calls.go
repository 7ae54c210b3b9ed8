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

package linux

import (
	"github.com/safchain/ethtool"
	"github.com/vishvananda/netlink"

	"github.com/contiv/chassis/pkg/pci"
)

// LinkCalls lists the netlink operations used by the backend.
type LinkCalls interface {
	LinkByName(name string) (netlink.Link, error)
	LinkSetUp(link netlink.Link) error
	LinkSetDown(link netlink.Link) error
	LinkSetMTU(link netlink.Link, mtu int) error
	LinkSubscribe(ch chan<- netlink.LinkUpdate, done <-chan struct{}) error
}

// NicInfo lists the ethtool operations used by the backend.
type NicInfo interface {
	DriverName(intf string) (string, error)
	BusInfo(intf string) (string, error)
	Close()
}

// PciDevices reads the identity of the PCI device behind an interface.
type PciDevices interface {
	ReadDevice(pciAddr string) (*pci.Device, error)
}

// netlinkCalls implements LinkCalls with the netlink package.
type netlinkCalls struct{}

func (netlinkCalls) LinkByName(name string) (netlink.Link, error) {
	return netlink.LinkByName(name)
}

func (netlinkCalls) LinkSetUp(link netlink.Link) error {
	return netlink.LinkSetUp(link)
}

func (netlinkCalls) LinkSetDown(link netlink.Link) error {
	return netlink.LinkSetDown(link)
}

func (netlinkCalls) LinkSetMTU(link netlink.Link, mtu int) error {
	return netlink.LinkSetMTU(link, mtu)
}

func (netlinkCalls) LinkSubscribe(ch chan<- netlink.LinkUpdate, done <-chan struct{}) error {
	return netlink.LinkSubscribe(ch, done)
}

// newEthtool opens the ethtool socket.
func newEthtool() (NicInfo, error) {
	return ethtool.NewEthtool()
}

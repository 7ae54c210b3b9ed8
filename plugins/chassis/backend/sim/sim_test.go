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

package sim

import (
	"testing"
	"time"

	"github.com/ligato/cn-infra/logging/logrus"
	. "github.com/onsi/gomega"

	"github.com/contiv/chassis/plugins/chassis/api"
	"github.com/contiv/chassis/plugins/chassis/channel"
)

func TestPortIDMapping(t *testing.T) {
	RegisterTestingT(t)
	b := NewBackend(logrus.DefaultLogger(), time.Second)

	id, err := b.PortIDFromPortKey(0, api.NewPortKey(1, 1, 0))
	Expect(err).To(BeNil())
	Expect(id).To(BeEquivalentTo(1000))

	id, err = b.PortIDFromPortKey(0, api.NewPortKey(2, 3, 1))
	Expect(err).To(BeNil())
	Expect(id).To(BeEquivalentTo(2009))
	Expect(keyFromPortID(id)).To(Equal(api.NewPortKey(2, 3, 1)))

	// the whole port and its first channel are distinct SDK ports
	groupID, err := b.PortIDFromPortKey(0, api.NewGroupKey(1, 1))
	Expect(err).To(BeNil())
	Expect(groupID).To(BeEquivalentTo(1500))
	Expect(keyFromPortID(groupID)).To(Equal(api.NewGroupKey(1, 1)))
	groupID, err = b.PortIDFromPortKey(0, api.NewGroupKey(2, MaxPortsPerSlot))
	Expect(err).To(BeNil())
	Expect(groupID).To(BeEquivalentTo(2563))
	Expect(keyFromPortID(groupID)).To(Equal(api.NewGroupKey(2, MaxPortsPerSlot)))
	id, err = b.PortIDFromPortKey(0, api.NewPortKey(1, MaxPortsPerSlot, MaxChannels-1))
	Expect(err).To(BeNil())
	Expect(id).To(BeNumerically("<", 1500))

	_, err = b.PortIDFromPortKey(0, api.NewPortKey(1, MaxPortsPerSlot+1, 0))
	Expect(err).ToNot(BeNil())
	_, err = b.PortIDFromPortKey(0, api.NewPortKey(1, 1, MaxChannels))
	Expect(err).ToNot(BeNil())
	_, err = b.PortIDFromPortKey(MaxUnits, api.NewPortKey(1, 1, 0))
	Expect(err).ToNot(BeNil())
}

func TestPortLifecycle(t *testing.T) {
	RegisterTestingT(t)
	b := NewBackend(logrus.DefaultLogger(), time.Second)

	Expect(b.PortIsValid(0, 1000)).To(BeFalse())
	Expect(b.PortEnable(0, 1000)).ToNot(Succeed())

	Expect(b.PortAdd(0, 1000, 100000000000, api.FecModeOn)).To(Succeed())
	Expect(b.PortAdd(0, 1000, 100000000000, api.FecModeOn)).ToNot(Succeed())
	Expect(b.PortIsValid(0, 1000)).To(BeTrue())
	Expect(b.PortMtuSet(0, 1000, 9000)).To(Succeed())
	Expect(b.PortEnable(0, 1000)).To(Succeed())

	state, err := b.PortOperStateGet(0, 1000)
	Expect(err).To(BeNil())
	Expect(state).To(Equal(api.PortStateDown))

	Expect(b.PortDelete(0, 1000)).To(Succeed())
	Expect(b.PortIsValid(0, 1000)).To(BeFalse())
	Expect(b.PortDelete(0, 1000)).ToNot(Succeed())
}

func TestLinkFollowsTransceiver(t *testing.T) {
	RegisterTestingT(t)
	b := NewBackend(logrus.DefaultLogger(), time.Second)
	statusCh := channel.New[api.PortStatusEvent](10)
	xcvrCh := channel.New[api.TransceiverEvent](10)
	Expect(b.RegisterPortStatusEventWriter(statusCh.Writer())).To(Succeed())
	Expect(b.RegisterPortStatusEventWriter(statusCh.Writer())).ToNot(Succeed())
	id, err := b.RegisterTransceiverEventWriter(xcvrCh.Writer(), api.TransceiverWriterPriorityHigh)
	Expect(err).To(BeNil())

	Expect(b.PortAdd(0, 1000, 25000000000, api.FecModeOff)).To(Succeed())
	Expect(b.PortEnable(0, 1000)).To(Succeed())
	Expect(statusCh.Len()).To(Equal(0))

	Expect(b.InsertTransceiver(1, 1, &api.FrontPanelPortInfo{VendorName: "ACME"})).To(Succeed())
	xcvrEvent, err := xcvrCh.Read(0)
	Expect(err).To(BeNil())
	Expect(xcvrEvent).To(Equal(api.TransceiverEvent{Slot: 1, Port: 1, State: api.TransceiverStatePresent}))
	statusEvent, err := statusCh.Read(0)
	Expect(err).To(BeNil())
	Expect(statusEvent.SDKPort).To(BeEquivalentTo(1000))
	Expect(statusEvent.State).To(Equal(api.PortStateUp))

	info, err := b.GetFrontPanelPortInfo(1, 1)
	Expect(err).To(BeNil())
	Expect(info.VendorName).To(Equal("ACME"))
	Expect(info.HwState).To(Equal("PRESENT"))

	Expect(b.AddTraffic(0, 1000, 10, 1500)).To(Succeed())
	counters, err := b.PortAllStatsGet(0, 1000)
	Expect(err).To(BeNil())
	Expect(counters.InUnicastPkts).To(BeEquivalentTo(10))
	Expect(counters.InOctets).To(BeEquivalentTo(1500))

	Expect(b.PortDisable(0, 1000)).To(Succeed())
	statusEvent, err = statusCh.Read(0)
	Expect(err).To(BeNil())
	Expect(statusEvent.State).To(Equal(api.PortStateDown))

	Expect(b.RemoveTransceiver(1, 1)).To(Succeed())
	xcvrEvent, err = xcvrCh.Read(0)
	Expect(err).To(BeNil())
	Expect(xcvrEvent.State).To(Equal(api.TransceiverStateNotPresent))
	Expect(b.RemoveTransceiver(1, 1)).ToNot(Succeed())

	Expect(b.UnregisterTransceiverEventWriter(id)).To(Succeed())
	Expect(b.UnregisterTransceiverEventWriter(id)).ToNot(Succeed())
	Expect(b.UnregisterPortStatusEventWriter()).To(Succeed())
}

func TestLoopbackBringsLinkUp(t *testing.T) {
	RegisterTestingT(t)
	b := NewBackend(logrus.DefaultLogger(), time.Second)

	Expect(b.PortAdd(0, 1004, 10000000000, api.FecModeOff)).To(Succeed())
	Expect(b.PortLoopbackModeSet(0, 1004, api.LoopbackModeMac)).To(Succeed())
	Expect(b.PortEnable(0, 1004)).To(Succeed())
	state, err := b.PortOperStateGet(0, 1004)
	Expect(err).To(BeNil())
	Expect(state).To(Equal(api.PortStateUp))
}

func TestClosedWriterDoesNotBlock(t *testing.T) {
	RegisterTestingT(t)
	b := NewBackend(logrus.DefaultLogger(), time.Hour)
	statusCh := channel.New[api.PortStatusEvent](1)
	Expect(b.RegisterPortStatusEventWriter(statusCh.Writer())).To(Succeed())
	statusCh.Close()

	Expect(b.PortAdd(0, 1000, 10000000000, api.FecModeOff)).To(Succeed())
	Expect(b.PortLoopbackModeSet(0, 1000, api.LoopbackModePhy)).To(Succeed())
	done := make(chan error, 1)
	go func() { done <- b.PortEnable(0, 1000) }()
	Eventually(done).Should(Receive(BeNil()))
}

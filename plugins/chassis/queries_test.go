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
	"errors"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/contiv/chassis/mock/hwbackend"
	"github.com/contiv/chassis/plugins/chassis/api"
)

func TestGetPortData(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	_, err := f.manager.GetPortData(&api.DataRequest{Kind: api.OperStatus, NodeID: testNodeID, PortID: port1ID})
	Expect(api.CodeOf(err)).To(Equal(api.NotInitialized))

	Expect(f.manager.PushChassisConfig(testConfig())).To(Succeed())
	f.backend.SetCounters(testUnit, port1SDK, &api.PortCounters{InOctets: 1500, InUnicastPkts: 10})
	f.backend.SetFrontPanelInfo(1, 1, &api.FrontPanelPortInfo{VendorName: "ACME", HwState: "PRESENT"})

	request := func(kind api.DataKind) *api.DataResponse {
		resp, err := f.manager.GetPortData(&api.DataRequest{Kind: kind, NodeID: testNodeID, PortID: port1ID})
		Expect(err).To(BeNil(), string(kind))
		return resp
	}

	Expect(*request(api.OperStatus).OperStatus).To(Equal(api.PortStateDown))
	Expect(*request(api.AdminStatus).AdminStatus).To(Equal(api.AdminStateEnabled))
	Expect(*request(api.PortSpeed).SpeedBps).To(BeEquivalentTo(speed100G))
	Expect(*request(api.NegotiatedSpeed).SpeedBps).To(BeZero())
	Expect(request(api.PortCountersData).Counters.InOctets).To(BeEquivalentTo(1500))
	Expect(*request(api.AutonegStatus).Autoneg).To(Equal(api.TriStateUnknown))
	Expect(*request(api.FecStatus).FecMode).To(Equal(api.FecModeOn))
	Expect(*request(api.LoopbackStatus).LoopbackMode).To(Equal(api.LoopbackModeUnknown))
	Expect(request(api.FrontPanelInfo).FrontPanelInfo.VendorName).To(Equal("ACME"))
	Expect(request(api.TimeLastChanged).TimeLastChanged.IsZero()).To(BeTrue())
	Expect(request(api.PortConfiguration).Config.SpeedBps).To(Equal(api.Some[uint64](speed100G)))

	_, err = f.manager.GetPortData(&api.DataRequest{Kind: "lacp_state", NodeID: testNodeID, PortID: port1ID})
	Expect(api.CodeOf(err)).To(Equal(api.Unimplemented))
	_, err = f.manager.GetPortData(&api.DataRequest{Kind: api.AdminStatus, NodeID: testNodeID, PortID: 42})
	Expect(api.CodeOf(err)).To(Equal(api.EntryNotFound))
	_, err = f.manager.GetPortData(&api.DataRequest{Kind: api.AdminStatus, NodeID: 42, PortID: port1ID})
	Expect(api.CodeOf(err)).To(Equal(api.EntryNotFound))
	_, err = f.manager.GetPortData(nil)
	Expect(api.CodeOf(err)).To(Equal(api.InvalidParam))
}

func TestQueriesReturnCopies(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	Expect(f.manager.PushChassisConfig(testConfig())).To(Succeed())
	config, err := f.manager.GetPortConfig(testNodeID, port1ID)
	Expect(err).To(BeNil())
	config.AdminState = api.AdminStateDisabled

	adminState, err := f.manager.GetPortAdminState(testNodeID, port1ID)
	Expect(err).To(BeNil())
	Expect(adminState).To(Equal(api.AdminStateEnabled))

	units, err := f.manager.GetNodeIDToUnitMap()
	Expect(err).To(BeNil())
	units[testNodeID] = 5
	unit, err := f.manager.GetUnitFromNodeID(testNodeID)
	Expect(err).To(BeNil())
	Expect(unit).To(Equal(testUnit))
	_, err = f.manager.GetUnitFromNodeID(42)
	Expect(api.CodeOf(err)).To(Equal(api.EntryNotFound))
}

func TestHardwareQueryFailures(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	Expect(f.manager.PushChassisConfig(testConfig())).To(Succeed())
	f.backend.InjectError(hwbackend.OpPortAllStatsGet, port1SDK, errors.New("DMA error"))
	_, err := f.manager.GetPortCounters(testNodeID, port1ID)
	Expect(api.CodeOf(err)).To(Equal(api.Internal))

	f.backend.SetFrontPanelError(errors.New("EEPROM read failed"))
	_, err = f.manager.GetFrontPanelPortInfo(testNodeID, port1ID)
	Expect(api.CodeOf(err)).To(Equal(api.Internal))
}

func TestReplayPortsConfig(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	Expect(api.CodeOf(f.manager.ReplayPortsConfig(testNodeID))).To(Equal(api.NotInitialized))

	f.backend.InjectError(hwbackend.OpPortAdd, port2SDK, errors.New("no such port"))
	Expect(f.manager.PushChassisConfig(testConfig())).ToNot(Succeed())
	f.backend.ClearErrors()
	Expect(f.backend.SendPortStatus(api.PortStatusEvent{Unit: testUnit, SDKPort: port1SDK, State: api.PortStateUp})).To(Succeed())
	Eventually(portStateGetter(f.manager, port1ID)).Should(Equal(api.PortStateUp))

	// port 2 failed, only port 1 is replayed
	f.backend.ResetCalls()
	Expect(f.manager.ReplayPortsConfig(testNodeID)).To(Succeed())
	Expect(f.backend.Mutations()).To(Equal([]hwbackend.Call{
		call(hwbackend.OpPortAdd, port1SDK, "100000000000/ON"),
		call(hwbackend.OpPortEnable, port1SDK, nil),
	}))
	Expect(f.manager.state.portState[testNodeID][port1ID]).To(Equal(api.PortStateUnknown))

	Expect(api.CodeOf(f.manager.ReplayPortsConfig(42))).To(Equal(api.EntryNotFound))

	f.backend.InjectError(hwbackend.OpPortEnable, port1SDK, errors.New("link training failed"))
	Expect(api.CodeOf(f.manager.ReplayPortsConfig(testNodeID))).To(Equal(api.Internal))
}

func TestResetPortsConfig(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	Expect(api.CodeOf(f.manager.ResetPortsConfig(testNodeID))).To(Equal(api.NotInitialized))
	Expect(f.manager.PushChassisConfig(testConfig())).To(Succeed())

	Expect(f.manager.ResetPortsConfig(testNodeID)).To(Succeed())
	Expect(api.CodeOf(f.manager.ResetPortsConfig(42))).To(Equal(api.EntryNotFound))
	adminState, err := f.manager.GetPortAdminState(testNodeID, port1ID)
	Expect(err).To(BeNil())
	Expect(adminState).To(Equal(api.AdminStateUnknown))
	_, err = f.manager.GetPortSpeed(testNodeID, port1ID)
	Expect(api.CodeOf(err)).To(Equal(api.EntryNotFound))

	// the next push re-creates all ports
	f.backend.ResetCalls()
	Expect(f.manager.PushChassisConfig(testConfig())).To(Succeed())
	Expect(f.backend.Mutations()).To(Equal([]hwbackend.Call{
		call(hwbackend.OpPortDelete, port1SDK, nil),
		call(hwbackend.OpPortAdd, port1SDK, "100000000000/ON"),
		call(hwbackend.OpPortEnable, port1SDK, nil),
		call(hwbackend.OpPortDelete, port2SDK, nil),
		call(hwbackend.OpPortAdd, port2SDK, "40000000000/OFF"),
	}))
}

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

package hwbackend

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/contiv/chassis/plugins/chassis/api"
)

// Names of the recorded operations.
const (
	OpPortAdd          = "PortAdd"
	OpPortDelete       = "PortDelete"
	OpPortEnable       = "PortEnable"
	OpPortDisable      = "PortDisable"
	OpPortMtuSet       = "PortMtuSet"
	OpPortAutonegSet   = "PortAutonegPolicySet"
	OpPortLoopbackSet  = "PortLoopbackModeSet"
	OpPortOperStateGet = "PortOperStateGet"
	OpPortAllStatsGet  = "PortAllStatsGet"
)

var mutators = map[string]bool{
	OpPortAdd:         true,
	OpPortDelete:      true,
	OpPortEnable:      true,
	OpPortDisable:     true,
	OpPortMtuSet:      true,
	OpPortAutonegSet:  true,
	OpPortLoopbackSet: true,
}

// Call is one recorded backend operation.
type Call struct {
	Op   string
	Unit int
	Port uint32
	Arg  interface{}
}

func (c Call) String() string {
	if c.Arg == nil {
		return fmt.Sprintf("%s(%d, %d)", c.Op, c.Unit, c.Port)
	}
	return fmt.Sprintf("%s(%d, %d, %v)", c.Op, c.Unit, c.Port, c.Arg)
}

type injectedErr struct {
	op   string
	port uint32
}

type unitPort struct {
	unit int
	port uint32
}

// MockBackend is a recording implementation of api.Backend and api.Phal.
type MockBackend struct {
	sync.Mutex

	calls          []Call
	errs           map[injectedErr]error
	unmappedKeys   map[api.PortKey]bool
	aliasedKeys    map[api.PortKey]api.PortKey
	validOverrides map[unitPort]bool
	ports          map[unitPort]bool
	operStates     map[unitPort]api.PortState
	counters       map[unitPort]*api.PortCounters

	statusWriter    api.EventWriter[api.PortStatusEvent]
	registerErr     error
	xcvrWriters     map[int]api.EventWriter[api.TransceiverEvent]
	xcvrWriterID    int
	frontPanelInfo  map[api.PortKey]*api.FrontPanelPortInfo
	frontPanelErr   error
	unregisterCalls int
}

// NewMockBackend is a constructor for MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		errs:           make(map[injectedErr]error),
		unmappedKeys:   make(map[api.PortKey]bool),
		aliasedKeys:    make(map[api.PortKey]api.PortKey),
		validOverrides: make(map[unitPort]bool),
		ports:          make(map[unitPort]bool),
		operStates:     make(map[unitPort]api.PortState),
		counters:       make(map[unitPort]*api.PortCounters),
		xcvrWriters:    make(map[int]api.EventWriter[api.TransceiverEvent]),
		frontPanelInfo: make(map[api.PortKey]*api.FrontPanelPortInfo),
	}
}

// SDKPort returns the SDK port id the mock assigns to the given key.
func SDKPort(key api.PortKey) uint32 {
	return uint32(key.Slot)*10000 + uint32(key.Port)*10 + uint32(key.Channel+1)
}

/****************************** Test helpers ******************************/

// Calls returns all recorded operations.
func (m *MockBackend) Calls() []Call {
	m.Lock()
	defer m.Unlock()
	calls := make([]Call, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Mutations returns recorded operations that modify the hardware.
func (m *MockBackend) Mutations() []Call {
	var calls []Call
	for _, call := range m.Calls() {
		if mutators[call.Op] {
			calls = append(calls, call)
		}
	}
	return calls
}

// CallsTo returns recorded calls of the given operation.
func (m *MockBackend) CallsTo(op string) []Call {
	var calls []Call
	for _, call := range m.Calls() {
		if call.Op == op {
			calls = append(calls, call)
		}
	}
	return calls
}

// ResetCalls forgets recorded operations.
func (m *MockBackend) ResetCalls() {
	m.Lock()
	defer m.Unlock()
	m.calls = nil
}

// InjectError makes every call of <op> on <port> fail with <err>
// (nil err removes the injected failure).
func (m *MockBackend) InjectError(op string, port uint32, err error) {
	m.Lock()
	defer m.Unlock()
	if err == nil {
		delete(m.errs, injectedErr{op: op, port: port})
		return
	}
	m.errs[injectedErr{op: op, port: port}] = err
}

// ClearErrors removes all injected failures.
func (m *MockBackend) ClearErrors() {
	m.Lock()
	defer m.Unlock()
	m.errs = make(map[injectedErr]error)
}

// SetUnmapped makes PortIDFromPortKey fail for the given key.
func (m *MockBackend) SetUnmapped(key api.PortKey) {
	m.Lock()
	defer m.Unlock()
	m.unmappedKeys[key] = true
}

// SetAlias makes PortIDFromPortKey return the SDK port of <target> for <key>.
func (m *MockBackend) SetAlias(key, target api.PortKey) {
	m.Lock()
	defer m.Unlock()
	m.aliasedKeys[key] = target
}

// SetPortValid overrides the result of PortIsValid.
func (m *MockBackend) SetPortValid(unit int, port uint32, valid bool) {
	m.Lock()
	defer m.Unlock()
	m.validOverrides[unitPort{unit, port}] = valid
}

// SetOperState sets the state returned by PortOperStateGet.
func (m *MockBackend) SetOperState(unit int, port uint32, state api.PortState) {
	m.Lock()
	defer m.Unlock()
	m.operStates[unitPort{unit, port}] = state
}

// SetCounters sets the counters returned by PortAllStatsGet.
func (m *MockBackend) SetCounters(unit int, port uint32, counters *api.PortCounters) {
	m.Lock()
	defer m.Unlock()
	m.counters[unitPort{unit, port}] = counters
}

// SetRegisterError makes RegisterPortStatusEventWriter fail.
func (m *MockBackend) SetRegisterError(err error) {
	m.Lock()
	defer m.Unlock()
	m.registerErr = err
}

// SetFrontPanelInfo sets the info returned by GetFrontPanelPortInfo.
func (m *MockBackend) SetFrontPanelInfo(slot, port int32, info *api.FrontPanelPortInfo) {
	m.Lock()
	defer m.Unlock()
	m.frontPanelInfo[api.NewGroupKey(slot, port)] = info
}

// SetFrontPanelError makes GetFrontPanelPortInfo fail.
func (m *MockBackend) SetFrontPanelError(err error) {
	m.Lock()
	defer m.Unlock()
	m.frontPanelErr = err
}

// HasStatusWriter returns true while a port status writer is registered.
func (m *MockBackend) HasStatusWriter() bool {
	m.Lock()
	defer m.Unlock()
	return m.statusWriter != nil
}

// UnregisterCalls returns how many times UnregisterPortStatusEventWriter was called.
func (m *MockBackend) UnregisterCalls() int {
	m.Lock()
	defer m.Unlock()
	return m.unregisterCalls
}

// TransceiverWriters returns the number of registered transceiver writers.
func (m *MockBackend) TransceiverWriters() int {
	m.Lock()
	defer m.Unlock()
	return len(m.xcvrWriters)
}

// SendPortStatus pushes the event into the registered writer.
func (m *MockBackend) SendPortStatus(event api.PortStatusEvent) error {
	m.Lock()
	writer := m.statusWriter
	m.Unlock()
	if writer == nil {
		return errors.New("no port status writer registered")
	}
	return writer.Write(event, time.Second)
}

// SendTransceiver pushes the event into all registered writers.
func (m *MockBackend) SendTransceiver(event api.TransceiverEvent) error {
	m.Lock()
	var writers []api.EventWriter[api.TransceiverEvent]
	for _, writer := range m.xcvrWriters {
		writers = append(writers, writer)
	}
	m.Unlock()
	if len(writers) == 0 {
		return errors.New("no transceiver writer registered")
	}
	for _, writer := range writers {
		if err := writer.Write(event, time.Second); err != nil {
			return err
		}
	}
	return nil
}

/********************************* Backend *********************************/

func (m *MockBackend) record(op string, unit int, port uint32, arg interface{}) error {
	m.Lock()
	defer m.Unlock()
	m.calls = append(m.calls, Call{Op: op, Unit: unit, Port: port, Arg: arg})
	return m.errs[injectedErr{op: op, port: port}]
}

// PortIDFromPortKey returns SDKPort(key) unless the key was marked as unmapped or aliased.
func (m *MockBackend) PortIDFromPortKey(unit int, key api.PortKey) (uint32, error) {
	m.Lock()
	defer m.Unlock()
	if m.unmappedKeys[key] {
		return 0, errors.Errorf("port %s does not exist on unit %d", key, unit)
	}
	if target, aliased := m.aliasedKeys[key]; aliased {
		return SDKPort(target), nil
	}
	return SDKPort(key), nil
}

// PortAdd records the call and marks the port as valid.
func (m *MockBackend) PortAdd(unit int, port uint32, speedBps uint64, fec api.FecMode) error {
	err := m.record(OpPortAdd, unit, port, fmt.Sprintf("%d/%s", speedBps, fec))
	if err == nil {
		m.Lock()
		m.ports[unitPort{unit, port}] = true
		m.Unlock()
	}
	return err
}

// PortDelete records the call and removes the port.
func (m *MockBackend) PortDelete(unit int, port uint32) error {
	err := m.record(OpPortDelete, unit, port, nil)
	if err == nil {
		m.Lock()
		delete(m.ports, unitPort{unit, port})
		m.Unlock()
	}
	return err
}

// PortEnable records the call.
func (m *MockBackend) PortEnable(unit int, port uint32) error {
	return m.record(OpPortEnable, unit, port, nil)
}

// PortDisable records the call.
func (m *MockBackend) PortDisable(unit int, port uint32) error {
	return m.record(OpPortDisable, unit, port, nil)
}

// PortMtuSet records the call.
func (m *MockBackend) PortMtuSet(unit int, port uint32, mtu int32) error {
	return m.record(OpPortMtuSet, unit, port, mtu)
}

// PortAutonegPolicySet records the call.
func (m *MockBackend) PortAutonegPolicySet(unit int, port uint32, autoneg api.TriState) error {
	return m.record(OpPortAutonegSet, unit, port, autoneg)
}

// PortLoopbackModeSet records the call.
func (m *MockBackend) PortLoopbackModeSet(unit int, port uint32, mode api.LoopbackMode) error {
	return m.record(OpPortLoopbackSet, unit, port, mode)
}

// PortIsValid returns true for added ports (unless overridden).
func (m *MockBackend) PortIsValid(unit int, port uint32) bool {
	m.Lock()
	defer m.Unlock()
	if valid, overridden := m.validOverrides[unitPort{unit, port}]; overridden {
		return valid
	}
	return m.ports[unitPort{unit, port}]
}

// PortOperStateGet returns the state set by SetOperState (DOWN by default).
func (m *MockBackend) PortOperStateGet(unit int, port uint32) (api.PortState, error) {
	if err := m.record(OpPortOperStateGet, unit, port, nil); err != nil {
		return api.PortStateUnknown, err
	}
	m.Lock()
	defer m.Unlock()
	if state, ok := m.operStates[unitPort{unit, port}]; ok {
		return state, nil
	}
	return api.PortStateDown, nil
}

// PortAllStatsGet returns the counters set by SetCounters.
func (m *MockBackend) PortAllStatsGet(unit int, port uint32) (*api.PortCounters, error) {
	if err := m.record(OpPortAllStatsGet, unit, port, nil); err != nil {
		return nil, err
	}
	m.Lock()
	defer m.Unlock()
	counters := &api.PortCounters{}
	if c, ok := m.counters[unitPort{unit, port}]; ok {
		*counters = *c
	}
	return counters, nil
}

// RegisterPortStatusEventWriter stores the writer.
func (m *MockBackend) RegisterPortStatusEventWriter(writer api.EventWriter[api.PortStatusEvent]) error {
	m.Lock()
	defer m.Unlock()
	if m.registerErr != nil {
		return m.registerErr
	}
	if m.statusWriter != nil {
		return errors.New("port status writer already registered")
	}
	m.statusWriter = writer
	return nil
}

// UnregisterPortStatusEventWriter removes the writer.
func (m *MockBackend) UnregisterPortStatusEventWriter() error {
	m.Lock()
	defer m.Unlock()
	m.unregisterCalls++
	m.statusWriter = nil
	return nil
}

/*********************************** Phal ***********************************/

// RegisterTransceiverEventWriter stores the writer.
func (m *MockBackend) RegisterTransceiverEventWriter(writer api.EventWriter[api.TransceiverEvent], priority int) (int, error) {
	m.Lock()
	defer m.Unlock()
	m.xcvrWriterID++
	m.xcvrWriters[m.xcvrWriterID] = writer
	return m.xcvrWriterID, nil
}

// UnregisterTransceiverEventWriter removes the writer.
func (m *MockBackend) UnregisterTransceiverEventWriter(id int) error {
	m.Lock()
	defer m.Unlock()
	if _, ok := m.xcvrWriters[id]; !ok {
		return errors.Errorf("transceiver writer %d is not registered", id)
	}
	delete(m.xcvrWriters, id)
	return nil
}

// GetFrontPanelPortInfo returns info set by SetFrontPanelInfo.
func (m *MockBackend) GetFrontPanelPortInfo(slot, port int32) (*api.FrontPanelPortInfo, error) {
	m.Lock()
	defer m.Unlock()
	if m.frontPanelErr != nil {
		return nil, m.frontPanelErr
	}
	if info, ok := m.frontPanelInfo[api.NewGroupKey(slot, port)]; ok {
		infoCopy := *info
		return &infoCopy, nil
	}
	return &api.FrontPanelPortInfo{HwState: "PRESENT"}, nil
}

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

	"github.com/contiv/chassis/plugins/chassis/api"
)

func TestNextTransceiverState(t *testing.T) {
	RegisterTestingT(t)

	const (
		unknown    = api.TransceiverStateUnknown
		notPresent = api.TransceiverStateNotPresent
		present    = api.TransceiverStatePresent
		ready      = api.TransceiverStateReady
	)
	transitions := []struct {
		current  api.TransceiverState
		reported api.TransceiverState
		next     api.TransceiverState
		valid    bool
	}{
		{unknown, present, present, true},
		{notPresent, present, present, true},
		{present, present, present, true},
		{ready, present, ready, false},
		{unknown, notPresent, unknown, false},
		{notPresent, notPresent, notPresent, true},
		{present, notPresent, notPresent, true},
		{ready, notPresent, notPresent, true},
		{present, ready, present, false},
		{notPresent, unknown, notPresent, false},
	}
	for _, tr := range transitions {
		next, err := nextTransceiverState(tr.current, tr.reported)
		Expect(next).To(Equal(tr.next), "%s + %s", tr.current, tr.reported)
		Expect(err == nil).To(Equal(tr.valid), "%s + %s", tr.current, tr.reported)
	}
}

func TestTransceiverEvents(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	xcvrState := func() api.TransceiverState {
		state, _ := f.manager.GetTransceiverState(1, 1)
		return state
	}
	send := func(slot, port int32, state api.TransceiverState) {
		Expect(f.backend.SendTransceiver(api.TransceiverEvent{Slot: slot, Port: port, State: state})).To(Succeed())
	}

	_, err := f.manager.GetTransceiverState(1, 1)
	Expect(api.CodeOf(err)).To(Equal(api.NotInitialized))

	Expect(f.manager.PushChassisConfig(testConfig())).To(Succeed())
	Expect(xcvrState()).To(Equal(api.TransceiverStateUnknown))
	_, err = f.manager.GetTransceiverState(3, 1)
	Expect(api.CodeOf(err)).To(Equal(api.EntryNotFound))

	// removal in UNKNOWN state is rejected, the port 1/2 event is processed after it
	send(1, 1, api.TransceiverStateNotPresent)
	send(1, 2, api.TransceiverStatePresent)
	Eventually(func() api.TransceiverState {
		state, _ := f.manager.GetTransceiverState(1, 2)
		return state
	}).Should(Equal(api.TransceiverStateReady))
	Expect(xcvrState()).To(Equal(api.TransceiverStateUnknown))

	// insertion: front panel info is read and the transceiver becomes READY
	send(1, 1, api.TransceiverStatePresent)
	Eventually(xcvrState).Should(Equal(api.TransceiverStateReady))

	// unknown front panel ports are ignored
	send(3, 1, api.TransceiverStatePresent)

	send(1, 1, api.TransceiverStateNotPresent)
	Eventually(xcvrState).Should(Equal(api.TransceiverStateNotPresent))

	// front panel info not available, the transceiver stays PRESENT
	f.backend.SetFrontPanelError(errors.New("EEPROM read failed"))
	send(1, 1, api.TransceiverStatePresent)
	Eventually(xcvrState).Should(Equal(api.TransceiverStatePresent))

	states, err := f.manager.getTransceiverStates()
	Expect(err).To(BeNil())
	Expect(states).To(HaveLen(2))
	Expect(states[api.NewGroupKey(1, 1)]).To(Equal(api.TransceiverStatePresent))
}

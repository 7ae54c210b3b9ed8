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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ghodss/yaml"
	. "github.com/onsi/gomega"
	"github.com/unrolled/render"

	"github.com/contiv/chassis/plugins/chassis/api"
)

// serve runs the handler and returns the recorded response.
func serve(handler func(*render.Render) http.HandlerFunc, method, url, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(render.New()).ServeHTTP(rec, req)
	return rec
}

func decodeError(rec *httptest.ResponseRecorder) errorString {
	var reply errorString
	Expect(json.Unmarshal(rec.Body.Bytes(), &reply)).To(Succeed())
	return reply
}

func testConfigYaml() string {
	data, err := yaml.Marshal(testConfig())
	Expect(err).To(BeNil())
	return string(data)
}

func TestHTTPStatus(t *testing.T) {
	RegisterTestingT(t)

	Expect(httpStatus(nil)).To(Equal(http.StatusOK))
	Expect(httpStatus(api.NewError(api.InvalidParam, "bad"))).To(Equal(http.StatusBadRequest))
	Expect(httpStatus(api.NewError(api.NotInitialized, "not yet"))).To(Equal(http.StatusServiceUnavailable))
	Expect(httpStatus(api.NewError(api.EntryNotFound, "who"))).To(Equal(http.StatusNotFound))
	Expect(httpStatus(api.NewError(api.RebootRequired, "reboot"))).To(Equal(http.StatusConflict))
	Expect(httpStatus(api.NewError(api.Unimplemented, "later"))).To(Equal(http.StatusNotImplemented))
	Expect(httpStatus(api.NewError(api.Internal, "broken"))).To(Equal(http.StatusInternalServerError))
}

func TestRESTConfig(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	rec := serve(f.manager.portsGetHandler, "GET", PortsURL, "")
	Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
	Expect(decodeError(rec).Code).To(Equal(api.NotInitialized))

	rec = serve(f.manager.verifyPostHandler, "POST", VerifyURL, "nodes: [")
	Expect(rec.Code).To(Equal(http.StatusBadRequest))

	rec = serve(f.manager.verifyPostHandler, "POST", VerifyURL, testConfigYaml())
	Expect(rec.Code).To(Equal(http.StatusOK))
	Expect(f.backend.HasStatusWriter()).To(BeFalse())

	rec = serve(f.manager.configPostHandler, "POST", ConfigURL, testConfigYaml())
	Expect(rec.Code).To(Equal(http.StatusOK))
	Expect(f.backend.Mutations()).To(HaveLen(3))

	rec = serve(f.manager.configGetHandler, "GET", ConfigURL, "")
	Expect(rec.Code).To(Equal(http.StatusOK))
	config, err := api.ParseChassisConfig(rec.Body.Bytes())
	Expect(err).To(BeNil())
	Expect(config.SingletonPorts).To(HaveLen(2))
	Expect(config.SingletonPorts[0].ConfigParams.FecMode).To(Equal(api.FecModeOn))

	// moving a port is refused over REST
	moved := testConfig()
	moved.SingletonPorts[0].Port = 3
	data, err := yaml.Marshal(moved)
	Expect(err).To(BeNil())
	rec = serve(f.manager.configPostHandler, "POST", ConfigURL, string(data))
	Expect(rec.Code).To(Equal(http.StatusConflict))
	Expect(decodeError(rec).Code).To(Equal(api.RebootRequired))
}

func TestRESTPorts(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	Expect(f.manager.PushChassisConfig(testConfig())).To(Succeed())

	rec := serve(f.manager.portsGetHandler, "GET", PortsURL, "")
	Expect(rec.Code).To(Equal(http.StatusOK))
	var ports []*PortSummary
	Expect(json.Unmarshal(rec.Body.Bytes(), &ports)).To(Succeed())
	Expect(ports).To(HaveLen(2))
	Expect(ports[0].PortID).To(BeEquivalentTo(port1ID))
	Expect(ports[0].Key).To(Equal(port1Key))
	Expect(ports[0].Config.AdminState).To(Equal(api.AdminStateEnabled))
	Expect(ports[1].Config.SpeedBps).To(Equal(api.Some[uint64](speed40G)))

	rec = serve(f.manager.portDataGetHandler, "GET", PortDataURL+"?node=1&port=1&kind=fec_status", "")
	Expect(rec.Code).To(Equal(http.StatusOK))
	var resp api.DataResponse
	Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
	Expect(*resp.FecMode).To(Equal(api.FecModeOn))

	rec = serve(f.manager.portDataGetHandler, "GET", PortDataURL+"?node=1&port=2", "")
	Expect(rec.Code).To(Equal(http.StatusOK))
	resp = api.DataResponse{}
	Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
	Expect(resp.Config.AdminState).To(Equal(api.AdminStateDisabled))

	rec = serve(f.manager.portDataGetHandler, "GET", PortDataURL+"?node=1", "")
	Expect(rec.Code).To(Equal(http.StatusBadRequest))
	rec = serve(f.manager.portDataGetHandler, "GET", PortDataURL+"?node=1&port=x", "")
	Expect(rec.Code).To(Equal(http.StatusBadRequest))
	rec = serve(f.manager.portDataGetHandler, "GET", PortDataURL+"?node=1&port=9", "")
	Expect(rec.Code).To(Equal(http.StatusNotFound))

	rec = serve(f.manager.transceiversGetHandler, "GET", TransceiversURL, "")
	Expect(rec.Code).To(Equal(http.StatusOK))
	var xcvrs map[string]api.TransceiverState
	Expect(json.Unmarshal(rec.Body.Bytes(), &xcvrs)).To(Succeed())
	Expect(xcvrs).To(HaveKeyWithValue("1/1", api.TransceiverStateUnknown))
	Expect(xcvrs).To(HaveKeyWithValue("1/2", api.TransceiverStateUnknown))
}

func TestRESTEventsAndReplay(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	rec := serve(f.manager.replayPostHandler, "POST", ReplayURL+"?node=1", "")
	Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))

	Expect(f.manager.PushChassisConfig(testConfig())).To(Succeed())
	Expect(f.backend.SendPortStatus(api.PortStatusEvent{Unit: testUnit, SDKPort: port2SDK, State: api.PortStateUp})).To(Succeed())
	Eventually(f.manager.history.Records).Should(HaveLen(1))

	rec = serve(f.manager.eventHistoryGetHandler, "GET", EventHistoryURL, "")
	Expect(rec.Code).To(Equal(http.StatusOK))
	var records []*api.EventRecord
	Expect(json.Unmarshal(rec.Body.Bytes(), &records)).To(Succeed())
	Expect(records).To(HaveLen(1))
	Expect(records[0].Event.PortID).To(BeEquivalentTo(port2ID))
	Expect(records[0].Event.NewState).To(Equal(api.PortStateUp))

	f.backend.ResetCalls()
	rec = serve(f.manager.replayPostHandler, "POST", ReplayURL+"?node=1", "")
	Expect(rec.Code).To(Equal(http.StatusOK))
	Expect(f.backend.CallsTo("PortAdd")).To(HaveLen(2))

	rec = serve(f.manager.replayPostHandler, "POST", ReplayURL+"?node=3", "")
	Expect(rec.Code).To(Equal(http.StatusNotFound))
}

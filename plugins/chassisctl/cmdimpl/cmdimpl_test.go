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

package cmdimpl

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/contiv/chassis/plugins/chassis"
	"github.com/contiv/chassis/plugins/chassis/api"
	"github.com/contiv/chassis/plugins/chassisctl/remote"
)

const testChassisConfig = `
nodes:
  - id: 1
    slot: 1
singleton_ports:
  - id: 1
    name: uplink-1
    node: 1
    slot: 1
    port: 1
    speed_bps: 100000000000
    config_params:
      admin_state: ENABLED
      mtu: 9000
  - id: 2
    name: uplink-2
    node: 1
    slot: 1
    port: 2
    speed_bps: 40000000000
    config_params:
      admin_state: DISABLED
`

// agent is a fake chassis agent REST API.
type agent struct {
	server  *httptest.Server
	client  *remote.HTTPClient
	host    string
	posted  map[string][]byte
	failure map[string]int
}

func newAgent(t *testing.T) *agent {
	a := &agent{
		posted:  make(map[string][]byte),
		failure: make(map[string]int),
	}
	mux := http.NewServeMux()
	reply := func(path string, content interface{}) {
		mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
			if status, fail := a.failure[path]; fail {
				w.WriteHeader(status)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"Error": "request failed",
					"Code":  api.InvalidParam,
				})
				return
			}
			if req.Method == "POST" {
				body, _ := ioutil.ReadAll(req.Body)
				a.posted[path+"?"+req.URL.RawQuery] = body
			}
			json.NewEncoder(w).Encode(content)
		})
	}

	config := &api.PortConfig{
		AdminState: api.AdminStateEnabled,
		SpeedBps:   api.Some(uint64(100000000000)),
		MTU:        api.Some(int32(9000)),
	}
	reply(chassis.PortsURL, []*chassis.PortSummary{
		{NodeID: 1, PortID: 1, Name: "uplink-1", Key: api.NewPortKey(1, 1, 0),
			OperState: api.PortStateUp, Config: config},
	})
	up := api.PortStateUp
	reply(chassis.PortDataURL, &api.DataResponse{OperStatus: &up})
	reply(chassis.TransceiversURL, map[api.PortKey]api.TransceiverState{
		api.NewGroupKey(1, 2): api.TransceiverStatePresent,
		api.NewGroupKey(1, 1): api.TransceiverStateReady,
	})
	reply(chassis.EventHistoryURL, []*api.EventRecord{
		{SeqNum: 7, Event: &api.PortOperStateChangedEvent{NodeID: 1, PortID: 1, NewState: api.PortStateDown}},
	})
	reply(chassis.ConfigURL, nil)
	reply(chassis.VerifyURL, nil)
	reply(chassis.ReplayURL, nil)

	a.server = httptest.NewServer(mux)
	serverURL, err := url.Parse(a.server.URL)
	Expect(err).To(BeNil())
	host, port, err := net.SplitHostPort(serverURL.Host)
	Expect(err).To(BeNil())
	a.host = host
	a.client = remote.NewHTTPClient(&remote.HTTPClientConfig{Port: port})
	return a
}

func writeConfigFile(t *testing.T, content string) (path string, cleanup func()) {
	dir, err := ioutil.TempDir("", "chassisctl")
	Expect(err).To(BeNil())
	path = filepath.Join(dir, "chassis_config.yaml")
	Expect(ioutil.WriteFile(path, []byte(content), 0644)).To(Succeed())
	return path, func() { os.RemoveAll(dir) }
}

func TestPrintRemoteState(t *testing.T) {
	RegisterTestingT(t)
	a := newAgent(t)
	defer a.server.Close()

	out := &bytes.Buffer{}
	Expect(PrintPorts(a.client, a.host, out)).To(Succeed())
	Expect(out.String()).To(ContainSubstring("uplink-1"))
	Expect(out.String()).To(ContainSubstring("1/1/0"))
	Expect(out.String()).To(ContainSubstring("ENABLED"))
	Expect(out.String()).To(ContainSubstring("9000"))

	out.Reset()
	Expect(PrintPortData(a.client, a.host, 1, 1, api.OperStatus, out)).To(Succeed())
	Expect(out.String()).To(ContainSubstring("UP"))

	out.Reset()
	Expect(PrintTransceivers(a.client, a.host, out)).To(Succeed())
	Expect(out.String()).To(MatchRegexp(`(?s)1/1\s+READY.*1/2\s+PRESENT`))

	out.Reset()
	Expect(PrintEvents(a.client, a.host, out)).To(Succeed())
	Expect(out.String()).To(MatchRegexp(`7\s+-\s+1\s+1\s+DOWN`))
}

func TestRemoteConfig(t *testing.T) {
	RegisterTestingT(t)
	a := newAgent(t)
	defer a.server.Close()

	path, cleanup := writeConfigFile(t, testChassisConfig)
	defer cleanup()

	out := &bytes.Buffer{}
	Expect(PushConfig(a.client, a.host, path, out)).To(Succeed())
	Expect(string(a.posted[chassis.ConfigURL+"?"])).To(Equal(testChassisConfig))
	Expect(VerifyConfig(a.client, a.host, path, out)).To(Succeed())
	Expect(a.posted).To(HaveKey(chassis.VerifyURL + "?"))
	Expect(ReplayPorts(a.client, a.host, 1, out)).To(Succeed())
	Expect(a.posted).To(HaveKey(chassis.ReplayURL + "?node=1"))

	// unparsable config is not sent at all
	badPath, badCleanup := writeConfigFile(t, "nodes: [")
	defer badCleanup()
	delete(a.posted, chassis.ConfigURL+"?")
	Expect(PushConfig(a.client, a.host, badPath, out)).ToNot(Succeed())
	Expect(a.posted).ToNot(HaveKey(chassis.ConfigURL + "?"))

	// error reply of the agent
	a.failure[chassis.ConfigURL] = http.StatusBadRequest
	err := PushConfig(a.client, a.host, path, out)
	Expect(err).To(HaveOccurred())
	replyErr, isReply := err.(*remote.ReplyError)
	Expect(isReply).To(BeTrue())
	Expect(replyErr.StatusCode).To(Equal(http.StatusBadRequest))
	Expect(replyErr.Code).To(Equal(api.InvalidParam))
	Expect(replyErr.Message).To(Equal("request failed"))
}

func TestOffline(t *testing.T) {
	RegisterTestingT(t)

	path, cleanup := writeConfigFile(t, testChassisConfig)
	defer cleanup()

	out := &bytes.Buffer{}
	Expect(VerifyOffline(path, out)).To(Succeed())
	Expect(out.String()).To(ContainSubstring("1 nodes, 2 singleton ports"))

	out.Reset()
	Expect(Simulate(path, out)).To(Succeed())
	Expect(out.String()).To(ContainSubstring("uplink-1"))
	Expect(out.String()).To(ContainSubstring("uplink-2"))
	Expect(out.String()).To(ContainSubstring("DISABLED"))

	// port referring to an unknown node
	invalidPath, invalidCleanup := writeConfigFile(t, testChassisConfig+`
  - id: 3
    node: 5
    slot: 1
    port: 3
    speed_bps: 10000000000
`)
	defer invalidCleanup()
	err := VerifyOffline(invalidPath, out)
	Expect(api.CodeOf(err)).To(Equal(api.InvalidParam))
	Expect(api.CodeOf(Simulate(invalidPath, out))).To(Equal(api.InvalidParam))
}

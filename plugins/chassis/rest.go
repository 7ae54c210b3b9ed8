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
	"io/ioutil"
	"net/http"
	"strconv"
	"time"

	"github.com/unrolled/render"

	"github.com/contiv/chassis/plugins/chassis/api"
)

const (
	// prefix used for REST urls of the chassis manager.
	urlPrefix = "/chassis/"

	// PortsURL is URL used to list all configured ports.
	PortsURL = urlPrefix + "ports"

	// PortDataURL is URL used to read one attribute of a port.
	// Arguments: node, port, kind (see api.DataKind).
	PortDataURL = urlPrefix + "port"

	// ConfigURL is URL used to read (GET) or push (POST) the chassis config.
	ConfigURL = urlPrefix + "config"

	// VerifyURL is URL used to verify the chassis config without pushing it.
	VerifyURL = urlPrefix + "verify"

	// TransceiversURL is URL used to list the state of transceivers.
	TransceiversURL = urlPrefix + "transceivers"

	// EventHistoryURL is URL used to obtain the history of port state changes.
	EventHistoryURL = urlPrefix + "event-history"

	// ReplayURL is URL used to replay the port config of a node (argument: node).
	ReplayURL = urlPrefix + "replay"

	nodeArg = "node"
	portArg = "port"
	kindArg = "kind"
)

// errorString wraps string representation of an error that, unlike the original
// error, can be marshalled.
type errorString struct {
	Error string
	Code  api.Code
}

// PortSummary is one entry of the port list returned over REST.
type PortSummary struct {
	NodeID          uint64          `json:"node_id"`
	PortID          uint64          `json:"port_id"`
	Name            string          `json:"name,omitempty"`
	Key             api.PortKey     `json:"key"`
	OperState       api.PortState   `json:"oper_state"`
	Config          *api.PortConfig `json:"config"`
	TimeLastChanged time.Time       `json:"time_last_changed"`
}

// registerHandlers registers all supported REST APIs.
func (m *Manager) registerHandlers() {
	if m.HTTPHandlers == nil {
		m.Log.Warn("No http handler provided, skipping registration of chassis REST handlers")
		return
	}
	m.HTTPHandlers.RegisterHTTPHandler(PortsURL, m.portsGetHandler, "GET")
	m.HTTPHandlers.RegisterHTTPHandler(PortDataURL, m.portDataGetHandler, "GET")
	m.HTTPHandlers.RegisterHTTPHandler(ConfigURL, m.configGetHandler, "GET")
	m.HTTPHandlers.RegisterHTTPHandler(ConfigURL, m.configPostHandler, "POST")
	m.HTTPHandlers.RegisterHTTPHandler(VerifyURL, m.verifyPostHandler, "POST")
	m.HTTPHandlers.RegisterHTTPHandler(TransceiversURL, m.transceiversGetHandler, "GET")
	m.HTTPHandlers.RegisterHTTPHandler(EventHistoryURL, m.eventHistoryGetHandler, "GET")
	m.HTTPHandlers.RegisterHTTPHandler(ReplayURL, m.replayPostHandler, "POST")
}

// httpStatus maps error code to HTTP status.
func httpStatus(err error) int {
	switch api.CodeOf(err) {
	case api.OK:
		return http.StatusOK
	case api.InvalidParam:
		return http.StatusBadRequest
	case api.NotInitialized:
		return http.StatusServiceUnavailable
	case api.EntryNotFound:
		return http.StatusNotFound
	case api.RebootRequired:
		return http.StatusConflict
	case api.Unimplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func replyError(formatter *render.Render, w http.ResponseWriter, err error) {
	formatter.JSON(w, httpStatus(err), errorString{Error: err.Error(), Code: api.CodeOf(err)})
}

// parseUintArg parses mandatory unsigned integer argument.
func parseUintArg(req *http.Request, arg string) (uint64, error) {
	param := req.URL.Query().Get(arg)
	if param == "" {
		return 0, api.NewError(api.InvalidParam, "missing argument '%s'", arg)
	}
	value, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		return 0, api.WrapError(api.InvalidParam, err, "invalid argument '%s'", arg)
	}
	return value, nil
}

// listPorts returns summaries of all configured ports.
func (m *Manager) listPorts() ([]*PortSummary, error) {
	m.RLock()
	defer m.RUnlock()
	if err := m.checkInitialized(); err != nil {
		return nil, err
	}
	var ports []*PortSummary
	for _, nodeID := range m.state.nodeIDs() {
		for _, portID := range m.state.portIDs(nodeID) {
			port := m.state.singletonPort[nodeID][portID]
			config := *m.state.portConfig[nodeID][portID]
			ports = append(ports, &PortSummary{
				NodeID:          nodeID,
				PortID:          portID,
				Name:            port.Name,
				Key:             port.Key(),
				OperState:       m.state.portState[nodeID][portID],
				Config:          &config,
				TimeLastChanged: m.state.timeLastChanged[nodeID][portID],
			})
		}
	}
	return ports, nil
}

// portsGetHandler is the GET handler for "ports" API.
func (m *Manager) portsGetHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ports, err := m.listPorts()
		if err != nil {
			replyError(formatter, w, err)
			return
		}
		formatter.JSON(w, http.StatusOK, ports)
	}
}

// portDataGetHandler is the GET handler for "port" API.
func (m *Manager) portDataGetHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		nodeID, err := parseUintArg(req, nodeArg)
		if err != nil {
			replyError(formatter, w, err)
			return
		}
		portID, err := parseUintArg(req, portArg)
		if err != nil {
			replyError(formatter, w, err)
			return
		}
		kind := api.DataKind(req.URL.Query().Get(kindArg))
		if kind == "" {
			kind = api.PortConfiguration
		}
		resp, err := m.GetPortData(&api.DataRequest{Kind: kind, NodeID: nodeID, PortID: portID})
		if err != nil {
			replyError(formatter, w, err)
			return
		}
		formatter.JSON(w, http.StatusOK, resp)
	}
}

// configGetHandler is the GET handler for "config" API.
func (m *Manager) configGetHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		m.RLock()
		err := m.checkInitialized()
		config := m.state.config
		m.RUnlock()
		if err != nil {
			replyError(formatter, w, err)
			return
		}
		formatter.JSON(w, http.StatusOK, config)
	}
}

// readConfig decodes chassis config (YAML or JSON) from the request body.
func readConfig(req *http.Request) (*api.ChassisConfig, error) {
	body, err := ioutil.ReadAll(req.Body)
	if err != nil {
		return nil, api.WrapError(api.InvalidParam, err, "failed to read request body")
	}
	config, err := api.ParseChassisConfig(body)
	if err != nil {
		return nil, api.WrapError(api.InvalidParam, err, "invalid chassis config")
	}
	return config, nil
}

// configPostHandler is the POST handler for "config" API.
func (m *Manager) configPostHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		config, err := readConfig(req)
		if err == nil {
			err = m.applyChassisConfig(config)
		}
		if err != nil {
			replyError(formatter, w, err)
			return
		}
		formatter.JSON(w, http.StatusOK, "chassis config applied")
	}
}

// verifyPostHandler is the POST handler for "verify" API.
func (m *Manager) verifyPostHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		config, err := readConfig(req)
		if err == nil {
			err = m.VerifyChassisConfig(config)
		}
		if err != nil {
			replyError(formatter, w, err)
			return
		}
		formatter.JSON(w, http.StatusOK, "chassis config is valid")
	}
}

// transceiversGetHandler is the GET handler for "transceivers" API.
func (m *Manager) transceiversGetHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		states, err := m.getTransceiverStates()
		if err != nil {
			replyError(formatter, w, err)
			return
		}
		formatter.JSON(w, http.StatusOK, states)
	}
}

// eventHistoryGetHandler is the GET handler for "event-history" API.
func (m *Manager) eventHistoryGetHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if m.history == nil {
			formatter.JSON(w, http.StatusOK, []*api.EventRecord{})
			return
		}
		formatter.JSON(w, http.StatusOK, m.history.Records())
	}
}

// replayPostHandler is the POST handler for "replay" API.
func (m *Manager) replayPostHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		nodeID, err := parseUintArg(req, nodeArg)
		if err == nil {
			err = m.ReplayPortsConfig(nodeID)
		}
		if err != nil {
			replyError(formatter, w, err)
			return
		}
		formatter.JSON(w, http.StatusOK, "ports config replayed")
	}
}

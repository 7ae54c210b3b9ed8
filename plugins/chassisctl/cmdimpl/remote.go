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
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"

	"github.com/contiv/chassis/plugins/chassis"
	"github.com/contiv/chassis/plugins/chassis/api"
	"github.com/contiv/chassis/plugins/chassisctl/remote"
)

const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
}

// PrintPorts prints all ports configured on the agent in a table format.
func PrintPorts(client *remote.HTTPClient, host string, w io.Writer) error {
	var ports []*chassis.PortSummary
	if err := client.GetJSON(host, chassis.PortsURL, &ports); err != nil {
		return err
	}
	printPortTable(w, ports)
	return nil
}

func printPortTable(w io.Writer, ports []*chassis.PortSummary) {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "NODE\tPORT\tNAME\tKEY\tADMIN\tOPER\tSPEED\tFEC\tMTU\tLAST-CHANGE\n")
	for _, port := range ports {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			port.NodeID,
			port.PortID,
			port.Name,
			port.Key,
			port.Config.AdminState,
			port.OperState,
			port.Config.SpeedBps,
			port.Config.FecMode,
			port.Config.MTU,
			formatTime(port.TimeLastChanged))
	}
	tw.Flush()
}

// PrintPortData prints one attribute of one port in YAML.
func PrintPortData(client *remote.HTTPClient, host string, nodeID, portID uint64, kind api.DataKind, w io.Writer) error {
	args := url.Values{}
	args.Set("node", strconv.FormatUint(nodeID, 10))
	args.Set("port", strconv.FormatUint(portID, 10))
	if kind != "" {
		args.Set("kind", string(kind))
	}
	var resp api.DataResponse
	if err := client.GetJSON(host, chassis.PortDataURL+"?"+args.Encode(), &resp); err != nil {
		return err
	}
	data, err := yaml.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// PrintTransceivers prints the state of transceivers of all front-panel ports.
func PrintTransceivers(client *remote.HTTPClient, host string, w io.Writer) error {
	var states map[api.PortKey]api.TransceiverState
	if err := client.GetJSON(host, chassis.TransceiversURL, &states); err != nil {
		return err
	}
	var keys []api.PortKey
	for key := range states {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	tw := newTabWriter(w)
	fmt.Fprintf(tw, "FRONT-PANEL-PORT\tTRANSCEIVER\n")
	for _, key := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", key, states[key])
	}
	tw.Flush()
	return nil
}

// PrintEvents prints the recent port oper state changes.
func PrintEvents(client *remote.HTTPClient, host string, w io.Writer) error {
	var records []*api.EventRecord
	if err := client.GetJSON(host, chassis.EventHistoryURL, &records); err != nil {
		return err
	}
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "SEQ\tTIME\tNODE\tPORT\tSTATE\n")
	for _, record := range records {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n",
			record.SeqNum,
			formatTime(record.Event.TimeLastChanged),
			record.Event.NodeID,
			record.Event.PortID,
			record.Event.NewState)
	}
	tw.Flush()
	return nil
}

// readConfigFile reads the chassis config and checks that it can be parsed.
func readConfigFile(configFile string) ([]byte, error) {
	data, err := ioutil.ReadFile(configFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read '%s'", configFile)
	}
	if _, err := api.ParseChassisConfig(data); err != nil {
		return nil, err
	}
	return data, nil
}

// PushConfig sends the chassis config to the agent.
func PushConfig(client *remote.HTTPClient, host string, configFile string, w io.Writer) error {
	data, err := readConfigFile(configFile)
	if err != nil {
		return err
	}
	if _, err := client.Post(host, chassis.ConfigURL, data); err != nil {
		return err
	}
	fmt.Fprintf(w, "Chassis config from '%s' applied on %s\n", configFile, host)
	return nil
}

// VerifyConfig asks the agent to verify the chassis config against the applied one.
func VerifyConfig(client *remote.HTTPClient, host string, configFile string, w io.Writer) error {
	data, err := readConfigFile(configFile)
	if err != nil {
		return err
	}
	if _, err := client.Post(host, chassis.VerifyURL, data); err != nil {
		return err
	}
	fmt.Fprintf(w, "Chassis config from '%s' is valid for %s\n", configFile, host)
	return nil
}

// ReplayPorts asks the agent to re-apply the config of all ports of the node.
func ReplayPorts(client *remote.HTTPClient, host string, nodeID uint64, w io.Writer) error {
	cmd := chassis.ReplayURL + "?node=" + strconv.FormatUint(nodeID, 10)
	if _, err := client.Post(host, cmd, nil); err != nil {
		return err
	}
	fmt.Fprintf(w, "Config of ports on node %d replayed\n", nodeID)
	return nil
}

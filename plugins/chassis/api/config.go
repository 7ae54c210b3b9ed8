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

package api

import (
	"io/ioutil"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// ChassisConfig is the declarative configuration of the whole chassis.
type ChassisConfig struct {
	Description    string           `json:"description,omitempty"`
	Chassis        *Chassis         `json:"chassis,omitempty"`
	Nodes          []*Node          `json:"nodes,omitempty"`
	SingletonPorts []*SingletonPort `json:"singleton_ports,omitempty"`
	TrunkPorts     []*TrunkPort     `json:"trunk_ports,omitempty"`
	PortGroups     []*PortGroup     `json:"port_groups,omitempty"`
}

// Chassis describes the chassis itself.
type Chassis struct {
	Platform string `json:"platform,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Node is one forwarding ASIC. The position of the node in ChassisConfig.Nodes
// determines the SDK unit driving it.
type Node struct {
	ID   uint64 `json:"id"`
	Slot int32  `json:"slot"`
	Name string `json:"name,omitempty"`
}

// SingletonPort is a single (possibly channelized) port attached to a node.
type SingletonPort struct {
	ID           uint64           `json:"id"`
	Name         string           `json:"name,omitempty"`
	Node         uint64           `json:"node"`
	Slot         int32            `json:"slot"`
	Port         int32            `json:"port"`
	Channel      int32            `json:"channel,omitempty"`
	SpeedBps     uint64           `json:"speed_bps"`
	ConfigParams PortConfigParams `json:"config_params,omitempty"`
}

// Key returns the location of the port on the chassis.
func (p *SingletonPort) Key() PortKey {
	return NewPortKey(p.Slot, p.Port, p.Channel)
}

// PortConfigParams are the requested settings of a singleton port.
type PortConfigParams struct {
	AdminState   AdminState   `json:"admin_state,omitempty"`
	MTU          int32        `json:"mtu,omitempty"`
	Autoneg      TriState     `json:"autoneg,omitempty"`
	FecMode      FecMode      `json:"fec_mode,omitempty"`
	LoopbackMode LoopbackMode `json:"loopback_mode,omitempty"`
}

// TrunkPort is a LAG of singleton ports (not supported by the chassis manager).
type TrunkPort struct {
	ID      uint64   `json:"id"`
	Name    string   `json:"name,omitempty"`
	Node    uint64   `json:"node"`
	Type    string   `json:"type,omitempty"`
	Members []uint64 `json:"members,omitempty"`
}

// PortGroup is a set of ports configured together (not supported by the chassis manager).
type PortGroup struct {
	ID      uint64   `json:"id"`
	Name    string   `json:"name,omitempty"`
	Node    uint64   `json:"node"`
	Members []uint64 `json:"members,omitempty"`
}

// PortConfig is the record of what was actually applied to the hardware for
// one port. Each optional field is set only if the corresponding
// sub-operation succeeded.
type PortConfig struct {
	AdminState   AdminState             `json:"admin_state"`
	SpeedBps     Optional[uint64]       `json:"speed_bps"`
	MTU          Optional[int32]        `json:"mtu"`
	Autoneg      Optional[TriState]     `json:"autoneg"`
	FecMode      Optional[FecMode]      `json:"fec_mode"`
	LoopbackMode Optional[LoopbackMode] `json:"loopback_mode"`
}

// IsHealthy returns true if the port was configured successfully.
func (c *PortConfig) IsHealthy() bool {
	return c.AdminState != AdminStateUnknown
}

// ParseChassisConfig decodes chassis configuration from YAML or JSON.
func ParseChassisConfig(data []byte) (*ChassisConfig, error) {
	config := &ChassisConfig{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse chassis config")
	}
	return config, nil
}

// LoadChassisConfig reads chassis configuration from a YAML or JSON file.
func LoadChassisConfig(path string) (*ChassisConfig, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read chassis config file '%s'", path)
	}
	return ParseChassisConfig(data)
}

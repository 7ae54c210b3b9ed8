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
	"time"
)

// PortCounters are the traffic counters of a port.
type PortCounters struct {
	InOctets         uint64 `json:"in_octets"`
	OutOctets        uint64 `json:"out_octets"`
	InUnicastPkts    uint64 `json:"in_unicast_pkts"`
	OutUnicastPkts   uint64 `json:"out_unicast_pkts"`
	InBroadcastPkts  uint64 `json:"in_broadcast_pkts"`
	OutBroadcastPkts uint64 `json:"out_broadcast_pkts"`
	InMulticastPkts  uint64 `json:"in_multicast_pkts"`
	OutMulticastPkts uint64 `json:"out_multicast_pkts"`
	InDiscards       uint64 `json:"in_discards"`
	OutDiscards      uint64 `json:"out_discards"`
	InUnknownProtos  uint64 `json:"in_unknown_protos"`
	InErrors         uint64 `json:"in_errors"`
	OutErrors        uint64 `json:"out_errors"`
	InFcsErrors      uint64 `json:"in_fcs_errors"`
}

// FrontPanelPortInfo describes the pluggable module of a front-panel port.
type FrontPanelPortInfo struct {
	PhysicalPortType string `json:"physical_port_type,omitempty"`
	MediaType        string `json:"media_type,omitempty"`
	VendorName       string `json:"vendor_name,omitempty"`
	PartNumber       string `json:"part_number,omitempty"`
	SerialNumber     string `json:"serial_number,omitempty"`
	HwState          string `json:"hw_state,omitempty"`
}

// DataKind selects the port attribute returned by GetPortData.
type DataKind string

// Port attributes available through GetPortData.
const (
	OperStatus        DataKind = "oper_status"
	AdminStatus       DataKind = "admin_status"
	PortSpeed         DataKind = "port_speed"
	NegotiatedSpeed   DataKind = "negotiated_port_speed"
	PortCountersData  DataKind = "port_counters"
	AutonegStatus     DataKind = "autoneg_status"
	FecStatus         DataKind = "fec_status"
	LoopbackStatus    DataKind = "loopback_status"
	FrontPanelInfo    DataKind = "front_panel_port_info"
	TimeLastChanged   DataKind = "time_last_changed"
	PortConfiguration DataKind = "port_config"
)

// DataRequest asks for one attribute of one port.
type DataRequest struct {
	Kind   DataKind `json:"kind"`
	NodeID uint64   `json:"node_id"`
	PortID uint64   `json:"port_id"`
}

// DataResponse carries the requested attribute, only the field matching
// the requested kind is filled.
type DataResponse struct {
	OperStatus      *PortState          `json:"oper_status,omitempty"`
	AdminStatus     *AdminState         `json:"admin_status,omitempty"`
	SpeedBps        *uint64             `json:"speed_bps,omitempty"`
	Counters        *PortCounters       `json:"counters,omitempty"`
	Autoneg         *TriState           `json:"autoneg,omitempty"`
	FecMode         *FecMode            `json:"fec_mode,omitempty"`
	LoopbackMode    *LoopbackMode       `json:"loopback_mode,omitempty"`
	FrontPanelInfo  *FrontPanelPortInfo `json:"front_panel_info,omitempty"`
	TimeLastChanged *time.Time          `json:"time_last_changed,omitempty"`
	Config          *PortConfig         `json:"config,omitempty"`
}

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
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ChannelAll is the channel value of a PortKey referencing the whole group
// of channels of a front-panel port.
const ChannelAll int32 = -1

// PortKey identifies a physical port (or one channel of a channelized port)
// by its location on the chassis.
type PortKey struct {
	Slot    int32
	Port    int32
	Channel int32
}

// NewPortKey returns the key of the given channel.
func NewPortKey(slot, port, channel int32) PortKey {
	return PortKey{Slot: slot, Port: port, Channel: channel}
}

// NewGroupKey returns the key referencing all channels of a front-panel port.
func NewGroupKey(slot, port int32) PortKey {
	return PortKey{Slot: slot, Port: port, Channel: ChannelAll}
}

// Group returns the key of the front-panel port this key belongs to.
func (k PortKey) Group() PortKey {
	return NewGroupKey(k.Slot, k.Port)
}

// Compare orders keys lexicographically by (slot, port, channel).
// It returns -1, 0 or 1.
func (k PortKey) Compare(other PortKey) int {
	switch {
	case k.Slot != other.Slot:
		return cmpInt32(k.Slot, other.Slot)
	case k.Port != other.Port:
		return cmpInt32(k.Port, other.Port)
	default:
		return cmpInt32(k.Channel, other.Channel)
	}
}

// Less returns true if k is ordered before other.
func (k PortKey) Less(other PortKey) bool {
	return k.Compare(other) < 0
}

// String renders the key as "slot/port" for groups or "slot/port/channel".
func (k PortKey) String() string {
	if k.Channel == ChannelAll {
		return fmt.Sprintf("%d/%d", k.Slot, k.Port)
	}
	return fmt.Sprintf("%d/%d/%d", k.Slot, k.Port, k.Channel)
}

// ParsePortKey parses the output of PortKey.String().
func ParsePortKey(str string) (PortKey, error) {
	parts := strings.Split(str, "/")
	if len(parts) < 2 || len(parts) > 3 {
		return PortKey{}, errors.Errorf("invalid port key '%s'", str)
	}
	var values [3]int32
	values[2] = ChannelAll
	for i, part := range parts {
		value, err := strconv.ParseInt(part, 10, 32)
		if err != nil {
			return PortKey{}, errors.Wrapf(err, "invalid port key '%s'", str)
		}
		values[i] = int32(value)
	}
	return NewPortKey(values[0], values[1], values[2]), nil
}

// MarshalText makes PortKey usable as a key of JSON/YAML maps.
func (k PortKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (k *PortKey) UnmarshalText(text []byte) error {
	key, err := ParsePortKey(string(text))
	if err != nil {
		return err
	}
	*k = key
	return nil
}

func cmpInt32(a, b int32) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

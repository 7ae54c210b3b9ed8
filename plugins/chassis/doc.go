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

// Package chassis implements the chassis manager plugin, reconciling
// the declarative chassis configuration with the state of the switch ports.
//
// The chassis manager receives the whole chassis configuration with every
// PushChassisConfig call. It compares the requested configuration of every
// singleton port with the configuration recorded as applied during the previous
// push and asks the hardware backend (api.Backend) only for the operations
// needed to converge:
//  * new port: PortAdd + settings + PortEnable (if enabled),
//  * port which failed to be configured previously: PortDelete (best-effort)
//    followed by the full add,
//  * changed speed: PortDisable + PortDelete + add with the new speed
//    (old configuration is restored if that fails),
//  * changed MTU, autonegotiation or loopback: apply the setting and bounce
//    the port if it is enabled,
//  * changed admin state: PortEnable/PortDisable,
//  * port removed from the configuration: PortDelete.
// Failures of one port do not prevent the configuration of other ports,
// all failures are returned together as api.PortErrors.
//
// Hardware events (port status, transceiver insertion/removal) are written
// by the backend into bounded channels and processed by one goroutine per
// event type, which updates the chassis state under the chassis lock
// and forwards port state changes to the registered api.NotifyWriter.
//
// The plugin exposes the port state over REST (see rest.go) and Prometheus
// (see metrics.go).
package chassis

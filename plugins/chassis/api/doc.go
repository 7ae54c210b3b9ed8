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

// Package api defines the vocabulary shared between the chassis manager,
// the hardware backends and the clients of the chassis manager:
//
//   - value types describing the declarative chassis configuration
//     (ChassisConfig, Node, SingletonPort) and the per-port state the manager
//     keeps for the applied configuration (PortConfig, PortState, ...),
//   - the hardware events (PortStatusEvent, TransceiverEvent) and the outbound
//     notification (PortOperStateChangedEvent),
//   - the interfaces implemented by hardware backends (Backend, Phal)
//     and by subscribers of notifications (NotifyWriter),
//   - the error taxonomy (Code, Error, PortErrors).
package api

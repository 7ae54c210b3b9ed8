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
	"time"

	"github.com/ligato/cn-infra/logging"
	"github.com/ligato/cn-infra/logging/logrus"

	"github.com/contiv/chassis/plugins/chassis"
	"github.com/contiv/chassis/plugins/chassis/api"
	"github.com/contiv/chassis/plugins/chassis/backend/sim"
)

// newSimManager creates chassis manager running on top of the simulated
// hardware, without REST, metrics and status reporting.
func newSimManager() (*chassis.Manager, error) {
	logger := logrus.NewLogger("chassisctl")
	logger.SetLevel(logging.ErrorLevel)

	backend := sim.NewBackend(logger, time.Second)
	manager := chassis.NewPlugin(chassis.UseDeps(func(deps *chassis.Deps) {
		deps.Log = logging.ForPlugin("chassisctl-sim")
		deps.Log.SetLevel(logging.ErrorLevel)
		deps.Backend = backend
		deps.Phal = backend
		deps.StatusCheck = nil
		deps.ServiceLabel = nil
		deps.HTTPHandlers = nil
		deps.Prometheus = nil
	}))
	if err := manager.Init(); err != nil {
		return nil, err
	}
	return manager, nil
}

// VerifyOffline checks the chassis config without contacting any agent.
func VerifyOffline(configFile string, w io.Writer) error {
	config, err := api.LoadChassisConfig(configFile)
	if err != nil {
		return err
	}
	manager, err := newSimManager()
	if err != nil {
		return err
	}
	defer manager.Close()

	if err := manager.VerifyChassisConfig(config); err != nil {
		return err
	}
	fmt.Fprintf(w, "Chassis config from '%s' is valid: %d nodes, %d singleton ports\n",
		configFile, len(config.Nodes), len(config.SingletonPorts))
	return nil
}

// Simulate pushes the chassis config into simulated hardware and prints
// the resulting state of ports.
func Simulate(configFile string, w io.Writer) error {
	config, err := api.LoadChassisConfig(configFile)
	if err != nil {
		return err
	}
	manager, err := newSimManager()
	if err != nil {
		return err
	}
	defer manager.Close()

	if err := manager.VerifyChassisConfig(config); err != nil {
		return err
	}
	pushErr := manager.PushChassisConfig(config)
	if _, err := manager.GetNodeIDToUnitMap(); err != nil {
		// nothing was applied
		return pushErr
	}

	var ports []*chassis.PortSummary
	for _, port := range config.SingletonPorts {
		summary := &chassis.PortSummary{
			NodeID: port.Node,
			PortID: port.ID,
			Name:   port.Name,
			Key:    port.Key(),
		}
		if summary.Config, err = manager.GetPortConfig(port.Node, port.ID); err != nil {
			return err
		}
		if summary.OperState, err = manager.GetPortState(port.Node, port.ID); err != nil {
			return err
		}
		ports = append(ports, summary)
	}
	printPortTable(w, ports)
	return pushErr
}

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

package main

import (
	"github.com/ligato/cn-infra/agent"
	"github.com/ligato/cn-infra/health/probe"
	"github.com/ligato/cn-infra/logging/logrus"
	"github.com/ligato/cn-infra/servicelabel"
	"github.com/namsral/flag"

	"github.com/contiv/chassis/plugins/chassis"
)

// agent label used when none is configured
const microserviceLabel = "chassis-agent"

var (
	backendFlag       = flag.String("chassis-backend", "", "hardware backend of the chassis manager (sim or linux), overrides the config file")
	startupConfigFlag = flag.String("chassis-startup-config", "", "chassis config pushed at startup, overrides the config file")
)

// ChassisAgent manages the ports of the switch chassis.
type ChassisAgent struct {
	ServiceLabel servicelabel.ReaderAPI
	HealthProbe  *probe.Plugin
	Chassis      *chassis.Manager
}

func (c *ChassisAgent) String() string {
	return "ChassisAgent"
}

// Init is called at startup phase. Method added in order to implement Plugin interface.
func (c *ChassisAgent) Init() error {
	return nil
}

// Close is called at cleanup phase. Method added in order to implement Plugin interface.
func (c *ChassisAgent) Close() error {
	return nil
}

// applyFlags overrides the configuration with command-line flags
// (or the equivalent environment variables).
func applyFlags(config *chassis.Config) {
	if *backendFlag != "" {
		config.Backend = *backendFlag
	}
	if *startupConfigFlag != "" {
		config.ChassisConfigFile = *startupConfigFlag
	}
}

func main() {
	if servicelabel.DefaultPlugin.MicroserviceLabel == "" {
		servicelabel.DefaultPlugin.MicroserviceLabel = microserviceLabel
	}

	chassisAgent := &ChassisAgent{
		ServiceLabel: &servicelabel.DefaultPlugin,
		HealthProbe:  &probe.DefaultPlugin,
		Chassis:      chassis.NewPlugin(chassis.UseConfigHook(applyFlags)),
	}

	a := agent.NewAgent(agent.AllPlugins(chassisAgent))
	if err := a.Run(); err != nil {
		logrus.DefaultLogger().Fatal(err)
	}
}

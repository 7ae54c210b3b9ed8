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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ligato/cn-infra/config"
	"github.com/ligato/cn-infra/infra"
	"github.com/ligato/cn-infra/logging"
	"github.com/namsral/flag"
	. "github.com/onsi/gomega"

	"github.com/contiv/chassis/mock/hwbackend"
	mockprometheus "github.com/contiv/chassis/mock/prometheus"
	"github.com/contiv/chassis/mock/servicelabel"
	"github.com/contiv/chassis/plugins/chassis/api"
)

const (
	testNodeID = 1
	testUnit   = 0

	port1ID = 1
	port2ID = 2

	speed100G = 100000000000
	speed40G  = 40000000000
)

var (
	port1Key = api.NewPortKey(1, 1, 0)
	port2Key = api.NewPortKey(1, 2, 0)

	port1SDK = hwbackend.SDKPort(port1Key)
	port2SDK = hwbackend.SDKPort(port2Key)
)

type fixture struct {
	manager    *Manager
	backend    *hwbackend.MockBackend
	prometheus *mockprometheus.MockPrometheus
}

// newFixture creates a chassis manager with a mock hardware backend.
// Nothing is pushed yet.
func newFixture(t *testing.T) *fixture {
	RegisterTestingT(t)

	fixture := &fixture{
		backend:    hwbackend.NewMockBackend(),
		prometheus: mockprometheus.NewMockPrometheus(),
	}
	fixture.manager = &Manager{
		Deps: Deps{
			PluginDeps: infra.PluginDeps{
				PluginName: "chassis",
				Log:        logging.ForPlugin("chassis"),
			},
			Backend:      fixture.backend,
			Phal:         fixture.backend,
			ServiceLabel: servicelabel.NewMockServiceLabel("test-agent"),
			Prometheus:   fixture.prometheus,
		},
		config: &Config{
			PortStatusEventDepth:  16,
			TransceiverEventDepth: 16,
			EventWriteTimeout:     time.Second,
			EventHistorySize:      10,
		},
	}
	Expect(fixture.manager.Init()).To(Succeed())
	Expect(fixture.manager.AfterInit()).To(Succeed())
	return fixture
}

// close stops the manager, it must never hang.
func (f *fixture) close() {
	done := make(chan error, 1)
	go func() { done <- f.manager.Close() }()
	Eventually(done, 5*time.Second).Should(Receive(BeNil()))
}

func newSingletonPort(id uint64, key api.PortKey, speed uint64, adminState api.AdminState, fec api.FecMode) *api.SingletonPort {
	return &api.SingletonPort{
		ID:       id,
		Node:     testNodeID,
		Slot:     key.Slot,
		Port:     key.Port,
		Channel:  key.Channel,
		SpeedBps: speed,
		ConfigParams: api.PortConfigParams{
			AdminState: adminState,
			FecMode:    fec,
		},
	}
}

// testConfig returns a config with one node and two ports:
// port 1 (1/1) at 100G enabled, port 2 (1/2) at 40G disabled.
func testConfig() *api.ChassisConfig {
	return &api.ChassisConfig{
		Description: "test chassis",
		Chassis:     &api.Chassis{Platform: "sim", Name: "test"},
		Nodes:       []*api.Node{{ID: testNodeID, Slot: 1, Name: "node-1"}},
		SingletonPorts: []*api.SingletonPort{
			newSingletonPort(port1ID, port1Key, speed100G, api.AdminStateEnabled, api.FecModeOn),
			newSingletonPort(port2ID, port2Key, speed40G, api.AdminStateDisabled, api.FecModeOff),
		},
	}
}

func call(op string, port uint32, arg interface{}) hwbackend.Call {
	return hwbackend.Call{Op: op, Unit: testUnit, Port: port, Arg: arg}
}

func TestInitWithoutPush(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	_, err := f.manager.GetPortState(testNodeID, port1ID)
	Expect(api.CodeOf(err)).To(Equal(api.NotInitialized))
	_, err = f.manager.GetNodeIDToUnitMap()
	Expect(api.CodeOf(err)).To(Equal(api.NotInitialized))
	Expect(f.backend.HasStatusWriter()).To(BeFalse())

	// the event history is the default notify writer
	Expect(f.manager.notifyWriter).To(Equal(api.NotifyWriter(f.manager.history)))
}

func TestCreateBackendFromConfig(t *testing.T) {
	RegisterTestingT(t)

	m := &Manager{
		Deps: Deps{
			PluginDeps: infra.PluginDeps{PluginName: "chassis-sim", Log: logging.ForPlugin("chassis-sim")},
		},
		config: defaultConfig(),
	}
	m.config.CountersPollInterval = 0
	Expect(m.Init()).To(Succeed())
	Expect(m.Backend).ToNot(BeNil())
	Expect(m.Phal).ToNot(BeNil())

	m.config.Backend = "unknown"
	m.Backend = nil
	Expect(m.createBackend()).ToNot(Succeed())

	m.config.Backend = linuxBackend
	m.config.LinuxPorts = map[string]string{"1/x": "eth0"}
	Expect(m.createBackend()).ToNot(Succeed())
}

func TestCreateBackendRepeatedly(t *testing.T) {
	RegisterTestingT(t)

	// every instance of the plugin with the same name shares the backend loggers
	for i := 0; i < 2; i++ {
		m := &Manager{
			Deps: Deps{
				PluginDeps: infra.PluginDeps{PluginName: "chassis-repeated", Log: logging.ForPlugin("chassis-repeated")},
			},
			config: defaultConfig(),
		}
		m.config.CountersPollInterval = 0
		Expect(m.createBackend()).To(Succeed())
		Expect(m.Backend).ToNot(BeNil())

		m.Backend = nil
		m.config.Backend = linuxBackend
		m.config.LinuxPorts = map[string]string{"1/1/0": "eth0"}
		Expect(m.createBackend()).To(Succeed())
		Expect(m.Backend).ToNot(BeNil())
	}
	_, found := logging.DefaultRegistry.Lookup("chassis-repeated.sim")
	Expect(found).To(BeTrue())
}

func TestLoadConfigFile(t *testing.T) {
	RegisterTestingT(t)

	dir, err := ioutil.TempDir("", "chassis")
	Expect(err).To(BeNil())
	defer os.RemoveAll(dir)
	confFile := filepath.Join(dir, "chassis.conf")
	Expect(ioutil.WriteFile(confFile, []byte(`
backend: linux
event-history-size: 7
event-write-timeout: 2000000000
linux-ports:
  1/1/0: eth1
`), 0644)).To(Succeed())

	// the agent defines plugin flags on the command line and parses them
	// together with the environment
	origCommandLine := flag.CommandLine
	flag.CommandLine = flag.NewFlagSet("chassis-agent", flag.ContinueOnError)
	defer func() { flag.CommandLine = origCommandLine }()
	os.Setenv(config.EnvVar("chassis"), confFile)
	defer os.Unsetenv(config.EnvVar("chassis"))

	p := NewPlugin()
	Expect(p.Cfg).ToNot(BeNil())
	config.DefineFlagsFor(p.String())
	Expect(flag.CommandLine.ParseEnv(os.Environ())).To(Succeed())
	Expect(p.Cfg.GetConfigName()).To(Equal(confFile))

	cfg := defaultConfig()
	Expect(p.loadConfig(cfg)).To(Succeed())
	Expect(cfg.Backend).To(Equal(linuxBackend))
	Expect(cfg.EventHistorySize).To(Equal(7))
	Expect(cfg.EventWriteTimeout).To(Equal(2 * time.Second))
	Expect(cfg.LinuxPorts).To(Equal(map[string]string{"1/1/0": "eth1"}))
	// unset values keep the defaults
	Expect(cfg.PortStatusEventDepth).To(Equal(defaultEventDepth))
}

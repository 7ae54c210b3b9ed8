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
	"sync"
	"time"

	"github.com/ligato/cn-infra/health/statuscheck"
	"github.com/ligato/cn-infra/infra"
	"github.com/ligato/cn-infra/logging"
	prometheusplugin "github.com/ligato/cn-infra/rpc/prometheus"
	"github.com/ligato/cn-infra/rpc/rest"
	"github.com/ligato/cn-infra/servicelabel"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/contiv/chassis/plugins/chassis/api"
	"github.com/contiv/chassis/plugins/chassis/backend/linux"
	"github.com/contiv/chassis/plugins/chassis/backend/sim"
	"github.com/contiv/chassis/plugins/chassis/channel"
)

const (
	// how many events of each type can be buffered at most
	defaultEventDepth = 1024

	// how long a backend waits for space in a full event channel
	defaultEventWriteTimeout = 100 * time.Millisecond

	// by default, port counters are exported to Prometheus every 10 seconds
	defaultCountersPollInterval = 10 * time.Second

	// by default, the last 100 port state changes are kept for REST
	defaultEventHistorySize = 100

	simBackend   = "sim"
	linuxBackend = "linux"
)

// Manager is the chassis manager plugin.
//
// All per-node and per-port maps are protected by the embedded RWMutex
// (the chassis lock). PushChassisConfig, ReplayPortsConfig, ResetPortsConfig
// and event handlers hold it exclusively, queries hold it shared.
// The notify writer slot is protected by its own lock. The two locks are
// never held together: event handlers release the chassis lock before
// the notification is sent.
type Manager struct {
	Deps
	sync.RWMutex

	config      *Config
	configHooks []func(*Config)

	initialized bool
	state       *chassisState

	// event processing
	eventsLock   sync.Mutex
	portStatusCh *channel.Channel[api.PortStatusEvent]
	xcvrCh       *channel.Channel[api.TransceiverEvent]
	xcvrWriterID int
	wg           sync.WaitGroup

	// notifications
	notifyLock   sync.Mutex
	notifyWriter api.NotifyWriter
	history      *api.EventHistory

	// metrics
	gaugeVecs map[string]*prometheus.GaugeVec
	closeCh   chan struct{}
	pollWg    sync.WaitGroup
}

// Deps lists dependencies of the chassis manager.
type Deps struct {
	infra.PluginDeps

	// Backend and Phal are created from the plugin configuration when not injected.
	Backend api.Backend
	Phal    api.Phal

	StatusCheck  statuscheck.PluginStatusWriter
	ServiceLabel servicelabel.ReaderAPI
	HTTPHandlers rest.HTTPHandlers
	Prometheus   prometheusplugin.API
}

// Config holds the chassis manager configuration.
type Config struct {
	// hardware backend to use when none is injected: "sim" or "linux"
	Backend string `json:"backend"`

	// chassis configuration pushed during AfterInit (optional)
	ChassisConfigFile string `json:"chassis-config-file"`

	PortStatusEventDepth  int           `json:"port-status-event-depth"`
	TransceiverEventDepth int           `json:"transceiver-event-depth"`
	EventWriteTimeout     time.Duration `json:"event-write-timeout"`

	// zero disables the export of port counters
	CountersPollInterval time.Duration `json:"counters-poll-interval"`

	// zero disables the in-memory history of port state changes
	EventHistorySize int `json:"event-history-size"`

	// port key ("slot/port/channel") -> Linux interface name, used by the linux backend
	LinuxPorts map[string]string `json:"linux-ports"`
}

// defaultConfig returns configuration used when the config file is missing.
func defaultConfig() *Config {
	return &Config{
		Backend:               simBackend,
		PortStatusEventDepth:  defaultEventDepth,
		TransceiverEventDepth: defaultEventDepth,
		EventWriteTimeout:     defaultEventWriteTimeout,
		CountersPollInterval:  defaultCountersPollInterval,
		EventHistorySize:      defaultEventHistorySize,
	}
}

// Init loads the configuration, prepares the hardware backend and registers
// REST handlers and metrics.
func (m *Manager) Init() error {
	m.state = newChassisState()
	m.closeCh = make(chan struct{})

	if m.config == nil {
		m.config = defaultConfig()
		if err := m.loadConfig(m.config); err != nil {
			m.Log.Error(err)
			return err
		}
	}
	for _, hook := range m.configHooks {
		hook(m.config)
	}
	m.Log.Infof("Chassis manager configuration: %+v", *m.config)

	if m.Backend == nil {
		if err := m.createBackend(); err != nil {
			return err
		}
	}

	if m.config.EventHistorySize > 0 {
		m.history = api.NewEventHistory(m.config.EventHistorySize)
	}

	if m.StatusCheck != nil {
		m.StatusCheck.Register(m.PluginName, nil)
	}

	if err := m.registerMetrics(); err != nil {
		return err
	}
	m.registerHandlers()
	return nil
}

// AfterInit pushes the startup chassis configuration (if configured)
// and starts the export of port counters.
func (m *Manager) AfterInit() error {
	if m.history != nil {
		m.notifyLock.Lock()
		if m.notifyWriter == nil {
			m.notifyWriter = m.history
		}
		m.notifyLock.Unlock()
	}

	if m.config.ChassisConfigFile != "" {
		config, err := api.LoadChassisConfig(m.config.ChassisConfigFile)
		if err != nil {
			m.reportStatus(err)
			return err
		}
		if err := m.applyChassisConfig(config); err != nil {
			// failed ports are re-added by the next push
			m.Log.Errorf("Failed to apply startup chassis config: %v", err)
		}
	}

	m.startCountersPolling()
	return nil
}

// Close stops event processing and the export of metrics.
func (m *Manager) Close() error {
	close(m.closeCh)
	m.pollWg.Wait()
	err := m.Shutdown()
	if m.history != nil {
		m.history.Close()
	}
	return err
}

// applyChassisConfig verifies and pushes the configuration, reporting
// the outcome to the status check.
func (m *Manager) applyChassisConfig(config *api.ChassisConfig) error {
	err := m.VerifyChassisConfig(config)
	if err == nil {
		err = m.PushChassisConfig(config)
	}
	m.reportStatus(err)
	return err
}

// reportStatus propagates the result of the last configuration attempt
// into the status check.
func (m *Manager) reportStatus(err error) {
	if m.StatusCheck == nil {
		return
	}
	if err != nil {
		m.StatusCheck.ReportStateChange(m.PluginName, statuscheck.Error, err)
		return
	}
	m.StatusCheck.ReportStateChange(m.PluginName, statuscheck.OK, nil)
}

// loadConfig loads configuration file.
func (m *Manager) loadConfig(config *Config) error {
	if m.Cfg == nil {
		return nil
	}
	found, err := m.Cfg.LoadValue(config)
	if err != nil {
		return err
	} else if !found {
		m.Log.Debugf("%v config not found", m.PluginName)
		return nil
	}
	m.Log.Debugf("%v config found: %+v", m.PluginName, config)
	return nil
}

// createBackend creates the backend (and PHAL) selected by the configuration.
func (m *Manager) createBackend() error {
	switch m.config.Backend {
	case simBackend, "":
		backend := sim.NewBackend(m.childLogger("sim"), m.config.EventWriteTimeout)
		m.Backend = backend
		if m.Phal == nil {
			m.Phal = backend
		}
	case linuxBackend:
		ports := make(map[api.PortKey]string)
		for keyStr, ifName := range m.config.LinuxPorts {
			key, err := api.ParsePortKey(keyStr)
			if err != nil {
				return errors.Wrap(err, "invalid linux-ports entry")
			}
			ports[key] = ifName
		}
		backend := linux.NewBackend(m.childLogger("linux"), ports, m.config.EventWriteTimeout)
		m.Backend = backend
		if m.Phal == nil {
			m.Phal = backend
		}
	default:
		return errors.Errorf("unsupported chassis backend '%s'", m.config.Backend)
	}
	m.Log.Infof("Using %s chassis backend", m.config.Backend)
	return nil
}

// childLogger returns the named child of the plugin logger. The logger registry
// rejects duplicate names, therefore a child registered by an earlier instance
// of the plugin is reused.
func (m *Manager) childLogger(name string) logging.Logger {
	if logger, found := logging.DefaultRegistry.Lookup(m.Log.GetName() + "." + name); found {
		return logger
	}
	return m.Log.NewLogger(name)
}

// checkInitialized returns error if no config was pushed yet.
// The chassis lock has to be held.
func (m *Manager) checkInitialized() error {
	if !m.initialized {
		return api.NewError(api.NotInitialized, "chassis manager is not initialized")
	}
	return nil
}

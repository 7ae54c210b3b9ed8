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
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/contiv/chassis/plugins/chassis/api"
)

const (
	// path where the port metrics are exposed
	prometheusStatsPath = "/stats"

	agentLabel  = "agent"
	nodeIDLabel = "nodeID"
	portIDLabel = "portID"
	nameLabel   = "portName"

	operStateMetric  = "portOperState"
	adminStateMetric = "portAdminState"

	inOctetsMetric    = "inOctets"
	outOctetsMetric   = "outOctets"
	inUnicastMetric   = "inUnicastPackets"
	outUnicastMetric  = "outUnicastPackets"
	inDiscardsMetric  = "inDiscards"
	outDiscardsMetric = "outDiscards"
	inErrorsMetric    = "inErrors"
	outErrorsMetric   = "outErrors"
	inFcsErrorsMetric = "inFcsErrors"
)

// gaugeVecsMetadata lists all exported gauge vectors.
var gaugeVecsMetadata = []struct {
	name string
	help string
}{
	{operStateMetric, "Oper state of the port (1 = up, 0 = down, -1 = unknown)"},
	{adminStateMetric, "Applied admin state of the port (1 = enabled, 0 = disabled, -1 = unknown)"},
	{inOctetsMetric, "Number of received octets"},
	{outOctetsMetric, "Number of transmitted octets"},
	{inUnicastMetric, "Number of received unicast packets"},
	{outUnicastMetric, "Number of transmitted unicast packets"},
	{inDiscardsMetric, "Number of discarded inbound packets"},
	{outDiscardsMetric, "Number of discarded outbound packets"},
	{inErrorsMetric, "Number of inbound packets with errors"},
	{outErrorsMetric, "Number of outbound packets with errors"},
	{inFcsErrorsMetric, "Number of inbound packets with FCS errors"},
}

// registerMetrics creates the Prometheus registry with port gauges.
func (m *Manager) registerMetrics() error {
	m.gaugeVecs = make(map[string]*prometheus.GaugeVec)
	if m.Prometheus == nil {
		return nil
	}

	err := m.Prometheus.NewRegistry(prometheusStatsPath,
		promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError, ErrorLog: m.Log})
	if err != nil {
		m.Log.Errorf("failed to create Prometheus registry for path '%s', error %s", prometheusStatsPath, err)
		return err
	}

	agent := ""
	if m.ServiceLabel != nil {
		agent = m.ServiceLabel.GetAgentLabel()
	}
	for _, nh := range gaugeVecsMetadata {
		vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        nh.name,
			Help:        nh.help,
			ConstLabels: prometheus.Labels{agentLabel: agent},
		}, []string{nodeIDLabel, portIDLabel, nameLabel})

		if err = m.Prometheus.Register(prometheusStatsPath, vec); err != nil {
			m.Log.Errorf("failed to register metric '%s', error %s", nh.name, err)
			return err
		}
		m.gaugeVecs[nh.name] = vec
	}
	return nil
}

// portLabels returns labels identifying the port in the gauge vectors.
// The chassis lock has to be held.
func (m *Manager) portLabels(nodeID, portID uint64) prometheus.Labels {
	name := ""
	if port, known := m.state.singletonPort[nodeID][portID]; known {
		name = port.Name
	}
	return prometheus.Labels{
		nodeIDLabel: strconv.FormatUint(nodeID, 10),
		portIDLabel: strconv.FormatUint(portID, 10),
		nameLabel:   name,
	}
}

// setGauge sets the gauge of a port, unregistered metrics are ignored.
func (m *Manager) setGauge(metric string, labels prometheus.Labels, value float64) {
	vec, registered := m.gaugeVecs[metric]
	if !registered {
		return
	}
	gauge, err := vec.GetMetricWith(labels)
	if err != nil {
		m.Log.Error(err)
		return
	}
	gauge.Set(value)
}

// updateOperStateMetric exports the oper state of a port.
// The chassis lock has to be held.
func (m *Manager) updateOperStateMetric(nodeID, portID uint64, state api.PortState) {
	value := -1.0
	switch state {
	case api.PortStateUp:
		value = 1
	case api.PortStateDown:
		value = 0
	}
	m.setGauge(operStateMetric, m.portLabels(nodeID, portID), value)
}

// updateAdminStateMetrics exports the applied admin state (and the current
// oper state) of all ports. The chassis lock has to be held.
func (m *Manager) updateAdminStateMetrics() {
	if len(m.gaugeVecs) == 0 {
		return
	}
	m.resetMetrics()
	for _, nodeID := range m.state.nodeIDs() {
		for _, portID := range m.state.portIDs(nodeID) {
			value := -1.0
			switch m.state.portConfig[nodeID][portID].AdminState {
			case api.AdminStateEnabled:
				value = 1
			case api.AdminStateDisabled:
				value = 0
			}
			m.setGauge(adminStateMetric, m.portLabels(nodeID, portID), value)
			m.updateOperStateMetric(nodeID, portID, m.state.portState[nodeID][portID])
		}
	}
}

// resetMetrics removes gauges of all ports.
func (m *Manager) resetMetrics() {
	for _, vec := range m.gaugeVecs {
		vec.Reset()
	}
}

// startCountersPolling starts periodic export of port counters.
func (m *Manager) startCountersPolling() {
	if len(m.gaugeVecs) == 0 || m.config.CountersPollInterval <= 0 {
		return
	}
	m.pollWg.Add(1)
	go func() {
		defer m.pollWg.Done()
		for {
			select {
			case <-m.closeCh:
				m.Log.Debug("Stopping export of port counters")
				return
			case <-time.After(m.config.CountersPollInterval):
				m.updateCounterMetrics()
			}
		}
	}()
}

// updateCounterMetrics reads counters of all configured ports and exports them.
func (m *Manager) updateCounterMetrics() {
	m.RLock()
	defer m.RUnlock()
	if !m.initialized {
		return
	}
	for _, nodeID := range m.state.nodeIDs() {
		unit := m.state.nodeIDToUnit[nodeID]
		for _, portID := range m.state.portIDs(nodeID) {
			if !m.state.portConfig[nodeID][portID].IsHealthy() {
				continue
			}
			counters, err := m.Backend.PortAllStatsGet(unit, m.state.sdkPort[nodeID][portID])
			if err != nil {
				m.Log.Debugf("Failed to read counters of port %d on node %d: %v", portID, nodeID, err)
				continue
			}
			labels := m.portLabels(nodeID, portID)
			m.setGauge(inOctetsMetric, labels, float64(counters.InOctets))
			m.setGauge(outOctetsMetric, labels, float64(counters.OutOctets))
			m.setGauge(inUnicastMetric, labels, float64(counters.InUnicastPkts))
			m.setGauge(outUnicastMetric, labels, float64(counters.OutUnicastPkts))
			m.setGauge(inDiscardsMetric, labels, float64(counters.InDiscards))
			m.setGauge(outDiscardsMetric, labels, float64(counters.OutDiscards))
			m.setGauge(inErrorsMetric, labels, float64(counters.InErrors))
			m.setGauge(outErrorsMetric, labels, float64(counters.OutErrors))
			m.setGauge(inFcsErrorsMetric, labels, float64(counters.InFcsErrors))
		}
	}
}

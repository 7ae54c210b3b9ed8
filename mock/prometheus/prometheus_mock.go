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

package prometheus

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// MockPrometheus is a mock for the Prometheus plugin. Every registry path
// is backed by a real Prometheus registry, which can be gathered in tests.
type MockPrometheus struct {
	sync.Mutex

	registries       map[string]*prometheus.Registry
	newRegistryError error
	registerError    error
}

// NewMockPrometheus is a constructor for MockPrometheus.
func NewMockPrometheus() *MockPrometheus {
	return &MockPrometheus{registries: make(map[string]*prometheus.Registry)}
}

// InjectNewRegistryError makes NewRegistry fail with the given error.
func (mp *MockPrometheus) InjectNewRegistryError(err error) {
	mp.Lock()
	defer mp.Unlock()
	mp.newRegistryError = err
}

// InjectRegisterError makes Register fail with the given error.
func (mp *MockPrometheus) InjectRegisterError(err error) {
	mp.Lock()
	defer mp.Unlock()
	mp.registerError = err
}

// NewRegistry creates a new registry for the given path.
func (mp *MockPrometheus) NewRegistry(path string, opts promhttp.HandlerOpts) error {
	mp.Lock()
	defer mp.Unlock()
	if mp.newRegistryError != nil {
		return mp.newRegistryError
	}
	if _, exists := mp.registries[path]; exists {
		return errors.Errorf("registry %s already exists", path)
	}
	mp.registries[path] = prometheus.NewRegistry()
	return nil
}

// Register adds the collector into the registry.
func (mp *MockPrometheus) Register(registryPath string, collector prometheus.Collector) error {
	mp.Lock()
	defer mp.Unlock()
	if mp.registerError != nil {
		return mp.registerError
	}
	reg, exists := mp.registries[registryPath]
	if !exists {
		return errors.Errorf("registry %s not found", registryPath)
	}
	return reg.Register(collector)
}

// Unregister removes the collector from the registry.
func (mp *MockPrometheus) Unregister(registryPath string, collector prometheus.Collector) bool {
	mp.Lock()
	defer mp.Unlock()
	reg, exists := mp.registries[registryPath]
	if !exists {
		return false
	}
	return reg.Unregister(collector)
}

// RegisterGaugeFunc registers a gauge whose value is obtained by calling <funct>.
func (mp *MockPrometheus) RegisterGaugeFunc(registryPath string, namespace string, subsystem string, name string,
	help string, labels prometheus.Labels, funct func() float64) error {
	gaugeFunc := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: labels,
	}, funct)
	return mp.Register(registryPath, gaugeFunc)
}

// GaugeValue returns the value of the gauge with the given name matching
// all the given labels. The second value is false if no such gauge exists.
func (mp *MockPrometheus) GaugeValue(registryPath, name string, labels map[string]string) (float64, bool) {
	mp.Lock()
	reg, exists := mp.registries[registryPath]
	mp.Unlock()
	if !exists {
		return 0, false
	}
	families, err := reg.Gather()
	if err != nil {
		return 0, false
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if matchLabels(metric, labels) {
				return metric.GetGauge().GetValue(), true
			}
		}
	}
	return 0, false
}

func matchLabels(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		if value, required := labels[pair.GetName()]; required {
			if value != pair.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}

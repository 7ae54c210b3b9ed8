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

package servicelabel

const allAgentsPrefix = "/vnf-agent/"

// MockServiceLabel returns a fixed agent label.
type MockServiceLabel struct {
	label string
}

// NewMockServiceLabel is a constructor for MockServiceLabel.
func NewMockServiceLabel(label string) *MockServiceLabel {
	return &MockServiceLabel{label: label}
}

// GetAgentLabel returns the label given to the constructor.
func (msl *MockServiceLabel) GetAgentLabel() string {
	return msl.label
}

// GetAgentPrefix returns the key prefix of this agent.
func (msl *MockServiceLabel) GetAgentPrefix() string {
	return allAgentsPrefix + msl.label + "/"
}

// GetDifferentAgentPrefix returns the key prefix of another agent.
func (msl *MockServiceLabel) GetDifferentAgentPrefix(microserviceLabel string) string {
	return allAgentsPrefix + microserviceLabel + "/"
}

// GetAllAgentsPrefix returns the prefix common to all agents.
func (msl *MockServiceLabel) GetAllAgentsPrefix() string {
	return allAgentsPrefix
}

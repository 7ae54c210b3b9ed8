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

package remote

import (
	"bytes"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ligato/cn-infra/config"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/contiv/chassis/plugins/chassis/api"
)

const (
	// default port of the chassis agent REST API
	defaultPort = "9191"

	defaultTimeout = 10 * time.Second
)

// HTTPClient wraps http.Client with configured authorization and url base.
type HTTPClient struct {
	// Config for this client
	Config *HTTPClientConfig

	http *http.Client
}

// HTTPClientConfig is configuration for http client.
type HTTPClientConfig struct {
	// Port on what the chassis agent is listening on
	Port string `json:"port"`
	// Basic authorization for client
	BasicAuth string `json:"basic-auth"`
	// If https or http should be used
	UseHTTPS bool `json:"use-https"`
	// Request timeout
	Timeout time.Duration `json:"timeout"`
}

// ReplyError is returned when the agent replies with an error.
type ReplyError struct {
	StatusCode int
	Message    string
	Code       api.Code
}

func (e *ReplyError) Error() string {
	return e.Message
}

// CreateHTTPClient uses environment variable HTTP_CLIENT_CONFIG or HTTP config file to establish connection.
func CreateHTTPClient(configFile string) (*HTTPClient, error) {
	if configFile == "" {
		configFile = os.Getenv("HTTP_CLIENT_CONFIG")
	}

	cfg := &HTTPClientConfig{Port: defaultPort, Timeout: defaultTimeout}
	if configFile != "" {
		if err := config.ParseConfigFromYamlFile(configFile, cfg); err != nil {
			return nil, err
		}
	}
	return NewHTTPClient(cfg), nil
}

// NewHTTPClient creates client with the given configuration.
func NewHTTPClient(cfg *HTTPClientConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		Config: cfg,
		http: &http.Client{
			Transport: &http.Transport{},
			Timeout:   timeout,
		},
	}
}

// createURL builds url from the host, configured port and the command.
func (client *HTTPClient) createURL(host string, cmd string) string {
	url := "http://"
	if client.Config.UseHTTPS {
		url = "https://"
	}
	return url + host + ":" + client.Config.Port + "/" + strings.TrimPrefix(cmd, "/")
}

func (client *HTTPClient) do(method, host, cmd string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequest(method, client.createURL(host, cmd), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/yaml")
	}

	if len(client.Config.BasicAuth) > 0 {
		fields := strings.Split(client.Config.BasicAuth, ":")
		if len(fields) != 2 {
			return nil, errors.Errorf("invalid format of basic auth entry '%v' expected 'user:pass'", client.Config.BasicAuth)
		}
		req.SetBasicAuth(fields[0], fields[1])
	}

	log.Debugf("%s %s", method, req.URL)
	resp, err := client.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	log.Debugf("%s %s: %s", method, req.URL, resp.Status)
	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		replyErr := &ReplyError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var reply struct {
			Error string
			Code  api.Code
		}
		if json.Unmarshal(data, &reply) == nil && reply.Error != "" {
			replyErr.Message = reply.Error
			replyErr.Code = reply.Code
		}
		return nil, replyErr
	}
	return data, nil
}

// Get sends GET request for the command to the agent running at the host.
func (client *HTTPClient) Get(host string, cmd string) ([]byte, error) {
	return client.do("GET", host, cmd, nil)
}

// Post sends POST request with the given body.
func (client *HTTPClient) Post(host string, cmd string, body []byte) ([]byte, error) {
	return client.do("POST", host, cmd, bytes.NewReader(body))
}

// GetJSON sends GET request and decodes the JSON reply into <out>.
func (client *HTTPClient) GetJSON(host string, cmd string, out interface{}) error {
	data, err := client.Get(host, cmd)
	if err != nil {
		return err
	}
	return errors.Wrapf(json.Unmarshal(data, out), "failed to decode reply to %s", cmd)
}

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

package pci

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// DefaultSysfsRoot is where sysfs is mounted on a regular Linux host.
const DefaultSysfsRoot = "/sys"

const (
	pciDevicesDir   = "bus/pci/devices"
	pciVendorFile   = "vendor"
	pciDeviceIDFile = "device"
	pciDriverLink   = "driver"
)

// long form of the PCI address: domain:bus:device.function
var addressRegexp = regexp.MustCompile(`^[0-9a-fA-F]{4}:[0-9a-fA-F]{2}:[0-9a-fA-F]{2}\.[0-7]$`)

// Device identifies one PCI device.
type Device struct {
	Address  string
	VendorID string
	DeviceID string
	Driver   string // empty if the device is not bound to any driver
}

// ID returns the "vendor:device" identifier, e.g. 8086:10fb.
func (d *Device) ID() string {
	return d.VendorID + ":" + d.DeviceID
}

// IsValidAddress returns true if <pciAddr> is a PCI address in the long form.
func IsValidAddress(pciAddr string) bool {
	return addressRegexp.MatchString(pciAddr)
}

// Sysfs reads PCI devices from sysfs mounted at Root.
type Sysfs struct {
	Root string
}

// ReadDevice returns the identity of the PCI device with the given address.
func (s Sysfs) ReadDevice(pciAddr string) (*Device, error) {
	if !IsValidAddress(pciAddr) {
		return nil, errors.Errorf("invalid PCI address '%s'", pciAddr)
	}
	root := s.Root
	if root == "" {
		root = DefaultSysfsRoot
	}
	devDir := filepath.Join(root, pciDevicesDir, pciAddr)

	vendor, err := readHexID(filepath.Join(devDir, pciVendorFile))
	if err != nil {
		return nil, err
	}
	devID, err := readHexID(filepath.Join(devDir, pciDeviceIDFile))
	if err != nil {
		return nil, err
	}
	device := &Device{
		Address:  pciAddr,
		VendorID: vendor,
		DeviceID: devID,
	}

	driver, err := os.Readlink(filepath.Join(devDir, pciDriverLink))
	if err == nil {
		device.Driver = filepath.Base(driver)
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to read driver of %s", pciAddr)
	}
	return device, nil
}

// readHexID reads an ID like "0x8086\n" and returns it without the prefix.
func readHexID(fileName string) (string, error) {
	data, err := ioutil.ReadFile(fileName)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", fileName)
	}
	id := strings.TrimPrefix(strings.TrimSpace(string(data)), "0x")
	if id == "" {
		return "", errors.Errorf("%s is empty", fileName)
	}
	return id, nil
}

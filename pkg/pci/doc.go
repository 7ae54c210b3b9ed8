// Package pci reads the identity of PCI devices (vendor, device ID and bound
// driver) from sysfs. PCI addresses in the API need to be specified in the
// long form, e.g.: 0000:0b:00.0
package pci

package uartlink

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// DeviceNamePrefix matches boards whose USB bridge reports a NEORV32
// product string. Most dev boards ship a generic FTDI or CP210x bridge
// instead, so detection also matches those by VID/PID.
const DeviceNamePrefix = "NEORV32"

// usbBridgeID is a VID/PID pair of a known USB-UART bridge chip.
type usbBridgeID struct {
	vid, pid string
}

// bridgeIDs lists the bridge chips found on common NEORV32-capable FPGA
// boards: FTDI FT232R/FT2232/FT232H/FT-X and Silicon Labs CP210x.
var bridgeIDs = []usbBridgeID{
	{"0403", "6001"},
	{"0403", "6010"},
	{"0403", "6014"},
	{"0403", "6015"},
	{"10C4", "EA60"},
}

// Detect returns true if a serial port that looks like a NEORV32 debug
// bridge is present on the system.
func Detect() (bool, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return false, fmt.Errorf("enumerating ports: %w", err)
	}
	for _, p := range ports {
		if isBridgePort(p) {
			return true, nil
		}
	}
	return false, nil
}

// FindPort returns the port path of the first detected debug bridge, e.g.
// "/dev/ttyUSB0" or "COM5".
func FindPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("enumerating ports: %w", err)
	}
	for _, p := range ports {
		if isBridgePort(p) && p.Name != "" {
			return p.Name, nil
		}
	}
	return "", errors.New("no NEORV32 debug bridge found")
}

// ListPorts returns the port paths of every detected debug bridge.
func ListPorts() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerating ports: %w", err)
	}
	var names []string
	for _, p := range ports {
		if isBridgePort(p) && p.Name != "" {
			names = append(names, p.Name)
		}
	}
	return names, nil
}

func isBridgePort(p *enumerator.PortDetails) bool {
	if p == nil {
		return false
	}
	if p.IsUSB && strings.HasPrefix(p.Product, DeviceNamePrefix) {
		return true
	}
	if p.IsUSB {
		for _, id := range bridgeIDs {
			if strings.EqualFold(p.VID, id.vid) && strings.EqualFold(p.PID, id.pid) {
				return true
			}
		}
	}
	return false
}

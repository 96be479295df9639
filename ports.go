package main

import (
	"fmt"
	"io"
	"strings"

	"go.bug.st/serial/enumerator"
)

// knownBridges maps USB VID:PID pairs of the USB-serial chips commonly
// found on ESP-01 programming adapters.
var knownBridges = map[string]string{
	"1a86:7523": "CH340",
	"10c4:ea60": "CP210x",
	"0403:6001": "FT232R",
	"067b:2303": "PL2303",
}

func listPorts(w io.Writer) error {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return fmt.Errorf("enumerate serial ports: %w", err)
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "No serial ports found")
		return nil
	}
	for _, port := range ports {
		fmt.Fprintln(w, describePort(port))
	}
	return nil
}

func describePort(port *enumerator.PortDetails) string {
	if !port.IsUSB {
		return port.Name
	}
	id := strings.ToLower(port.VID + ":" + port.PID)
	desc := fmt.Sprintf("%s\tUSB %s", port.Name, id)
	if port.Product != "" {
		desc += " " + port.Product
	}
	if port.SerialNumber != "" {
		desc += " (serial " + port.SerialNumber + ")"
	}
	if bridge, ok := knownBridges[id]; ok {
		desc += "\t[" + bridge + " adapter]"
	}
	return desc
}

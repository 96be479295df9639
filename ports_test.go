package main

import (
	"testing"

	"go.bug.st/serial/enumerator"
)

func TestDescribePort(t *testing.T) {
	tests := []struct {
		name string
		port enumerator.PortDetails
		want string
	}{
		{
			name: "Plain UART",
			port: enumerator.PortDetails{Name: "/dev/ttyS0"},
			want: "/dev/ttyS0",
		},
		{
			name: "Known adapter",
			port: enumerator.PortDetails{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1A86", PID: "7523", Product: "USB2.0-Serial"},
			want: "/dev/ttyUSB0\tUSB 1a86:7523 USB2.0-Serial\t[CH340 adapter]",
		},
		{
			name: "Unknown USB device",
			port: enumerator.PortDetails{Name: "/dev/ttyACM0", IsUSB: true, VID: "2341", PID: "0043", SerialNumber: "7573"},
			want: "/dev/ttyACM0\tUSB 2341:0043 (serial 7573)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describePort(&tt.port); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

package esp01

import (
	"bufio"
	"bytes"
	"strings"

	"i4.energy/across/esp01ctl/at"
)

// FirmwareInfo is the AT+GMR banner split into its known lines. Lines the
// parser does not recognize, such as vendor names or build dates, are kept in
// Extra in the order received.
type FirmwareInfo struct {
	ATVersion   string
	SDKVersion  string
	CompileTime string
	BinVersion  string
	Extra       []string
}

var firmwareFields = []struct {
	prefix string
	field  func(*FirmwareInfo) *string
}{
	{"AT version:", func(f *FirmwareInfo) *string { return &f.ATVersion }},
	{"SDK version:", func(f *FirmwareInfo) *string { return &f.SDKVersion }},
	{"compile time:", func(f *FirmwareInfo) *string { return &f.CompileTime }},
	{"Bin version:", func(f *FirmwareInfo) *string { return &f.BinVersion }},
}

// ParseFirmwareInfo parses an AT+GMR reply.
func ParseFirmwareInfo(payload []byte) FirmwareInfo {
	var info FirmwareInfo
	scanner := bufio.NewScanner(bytes.NewReader(payload))
	scanner.Split(at.Splitter)

lines:
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		for _, f := range firmwareFields {
			if v, ok := strings.CutPrefix(line, f.prefix); ok {
				*f.field(&info) = strings.TrimSpace(v)
				continue lines
			}
		}
		info.Extra = append(info.Extra, line)
	}
	return info
}

// FirmwareInfo queries AT+GMR and parses the banner.
func (d *driver) FirmwareInfo() (FirmwareInfo, error) {
	resp, err := d.Version()
	if err != nil {
		return FirmwareInfo{}, err
	}
	return ParseFirmwareInfo(resp), nil
}

package at

const (
	// Terminal Control
	CR   = '\r'
	LF   = '\n'
	CRLF = "\r\n"

	// Command framing
	Prefix    = "AT+"
	Query     = '?'
	ValueMark = '+'
	ValueSep  = ':'

	// Terminator windows, as buffered just before the final LF arrives.
	OK          = "OK\r"
	ERROR       = "ERROR\r"
	FAIL        = "FAIL\r"
	ResponseEnd = "\r\n\r\n"
)

type ResponseType int

const (
	TypeData  ResponseType = iota // no terminator yet, keep reading
	TypeOK                        // OK
	TypeError                     // ERROR: malformed command or parameters
	TypeFail                      // FAIL: command accepted but failed on the device
)

func (t ResponseType) String() string {
	switch t {
	case TypeData:
		return "data"
	case TypeOK:
		return "ok"
	case TypeError:
		return "error"
	case TypeFail:
		return "fail"
	default:
		return "unknown"
	}
}

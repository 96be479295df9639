package esp01_test

import (
	"go.uber.org/mock/gomock"
	"i4.energy/across/esp01ctl/at"
	"i4.energy/across/esp01ctl/esp01"
)

type MockSequenceBuilder struct {
	transport *esp01.MockTransport
	calls     []*gomock.Call
}

func NewMockSequence(transport *esp01.MockTransport) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		transport: transport,
		calls:     []*gomock.Call{},
	}
}

// Write expects data to be written byte by byte and then flushed.
func (b *MockSequenceBuilder) Write(data []byte) *MockSequenceBuilder {
	for _, c := range data {
		b.calls = append(b.calls, b.transport.EXPECT().WriteByte(c).Return(nil))
	}
	b.calls = append(b.calls, b.transport.EXPECT().Flush().Return(nil))
	return b
}

// Read makes the module send data, one byte per ReadByte call.
func (b *MockSequenceBuilder) Read(data string) *MockSequenceBuilder {
	for i := 0; i < len(data); i++ {
		b.calls = append(b.calls, b.transport.EXPECT().ReadByte().Return(data[i], nil))
	}
	return b
}

func (b *MockSequenceBuilder) Command(parts ...string) *MockSequenceBuilder {
	return b.Write(at.Encode(false, parts...)).Read(string(at.Echo(false, parts...)))
}

func (b *MockSequenceBuilder) Query(parts ...string) *MockSequenceBuilder {
	return b.Write(at.Encode(true, parts...)).
		Read(string(at.Echo(true, parts...))).
		Read(string(at.ValuePrefix(parts...)))
}

func (b *MockSequenceBuilder) OK() *MockSequenceBuilder {
	return b.Read("\r\nOK\r\n")
}

// Build returns the expected calls in a form gomock.InOrder accepts.
func (b *MockSequenceBuilder) Build() []any {
	calls := make([]any, len(b.calls))
	for i, c := range b.calls {
		calls[i] = c
	}
	return calls
}

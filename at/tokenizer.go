package at

import (
	"bufio"
	"bytes"
)

// Classify identifies the terminator, if any, that ends window. It must be
// called when an LF has just been read, with window holding every byte
// buffered before that LF.
//
// The checks run in a fixed order because the terminators overlap: OK first
// (preferring the blank-line framed form), then ERROR, then FAIL. For TypeOK
// the returned length is the size of the payload that precedes the
// terminator; it is zero for every other type.
func Classify(window []byte) (ResponseType, int) {
	switch {
	case bytes.HasSuffix(window, []byte(OK)):
		end := len(window) - len(OK)
		if bytes.HasSuffix(window[:end], []byte(ResponseEnd)) {
			end -= len(ResponseEnd)
		}
		return TypeOK, end
	case bytes.HasSuffix(window, []byte(ERROR)):
		return TypeError, 0
	case bytes.HasSuffix(window, []byte(FAIL)):
		return TypeFail, 0
	}
	return TypeData, 0
}

// Splitter is used for tokenizing the payload of a module response. It uses
// the signature of bufio.SplitFunc so it can be directly used with
// bufio.Scanner.
//
// It splits the input by CRLF line endings. The atEOF parameter indicates
// whether any more data will be available. When true, any remaining data is
// returned as the final token.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.Index(data, []byte(CRLF)); i >= 0 {
		return i + len(CRLF), data[0:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// Encode returns the bytes written to the module for a command made of parts:
// the AT+ prefix, every part in order, an optional query mark and CR LF.
func Encode(query bool, parts ...string) []byte {
	b := append([]byte(nil), Prefix...)
	b = appendParts(b, parts)
	if query {
		b = append(b, Query)
	}
	return append(b, CR, LF)
}

// Echo returns the bytes the module sends back for a command before its
// reply: the command line terminated by CR, then an empty CR LF line.
func Echo(query bool, parts ...string) []byte {
	b := append([]byte(nil), Prefix...)
	b = appendParts(b, parts)
	if query {
		b = append(b, Query)
	}
	return append(b, CR, CR, LF)
}

// ValuePrefix returns the +NAME: marker that introduces the value of a query
// reply.
func ValuePrefix(parts ...string) []byte {
	b := []byte{ValueMark}
	b = appendParts(b, parts)
	return append(b, ValueSep)
}

func appendParts(b []byte, parts []string) []byte {
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

package stream

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// LineFramer turns raw body chunks into complete protocol lines.
//
// Bytes after the last line terminator of a chunk are carried over and
// prepended to the next chunk. Lines are decoded only once complete, so a
// multi-byte character split across two reads is reassembled before decoding.
type LineFramer struct {
	carry []byte
}

// Feed appends chunk to the carried-over bytes and returns every line that is
// now terminated. Terminators ("\n" or "\r\n") are not included.
func (f *LineFramer) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	f.carry = append(f.carry, chunk...)

	var lines []string
	for {
		idx := bytes.IndexByte(f.carry, '\n')
		if idx < 0 {
			break
		}
		lines = append(lines, decodeLine(f.carry[:idx]))
		f.carry = f.carry[idx+1:]
	}

	// Compact so the backing array does not grow without bound on long streams.
	if len(f.carry) == 0 {
		f.carry = nil
	} else if cap(f.carry) > 4*len(f.carry) && cap(f.carry) > 4096 {
		f.carry = append([]byte(nil), f.carry...)
	}
	return lines
}

// Flush returns the unterminated remainder, if any, and resets the framer.
// It is called once the body reached EOF.
func (f *LineFramer) Flush() (string, bool) {
	if len(f.carry) == 0 {
		return "", false
	}
	line := decodeLine(f.carry)
	f.carry = nil
	return line, true
}

// Pending is the number of carried-over bytes.
func (f *LineFramer) Pending() int {
	return len(f.carry)
}

func decodeLine(b []byte) string {
	b = bytes.TrimSuffix(b, []byte{'\r'})
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

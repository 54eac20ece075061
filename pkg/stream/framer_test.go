package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func feedAll(f *LineFramer, chunks ...string) []string {
	var lines []string
	for _, c := range chunks {
		lines = append(lines, f.Feed([]byte(c))...)
	}
	if rest, ok := f.Flush(); ok {
		lines = append(lines, rest)
	}
	return lines
}

func TestLineFramerCarriesIncompleteLine(t *testing.T) {
	var f LineFramer

	first := f.Feed([]byte(`data: {"token":"Hel`))
	assert.Empty(t, first)
	assert.Equal(t, len(`data: {"token":"Hel`), f.Pending())

	second := f.Feed([]byte("lo\"}\n"))
	assert.Equal(t, []string{`data: {"token":"Hello"}`}, second)
	assert.Zero(t, f.Pending())
}

func TestLineFramerTerminatorOnBoundary(t *testing.T) {
	var f LineFramer

	assert.Equal(t, []string{"data: a"}, f.Feed([]byte("data: a\n")))
	assert.Empty(t, f.Feed([]byte("data: b")))
	assert.Equal(t, []string{"data: b", ""}, f.Feed([]byte("\n\n")))
}

func TestLineFramerStripsCarriageReturn(t *testing.T) {
	var f LineFramer

	lines := f.Feed([]byte("data: x\r\n\r\ndata: y\r"))
	assert.Equal(t, []string{"data: x", ""}, lines)

	lines = f.Feed([]byte("\n"))
	assert.Equal(t, []string{"data: y"}, lines)
}

func TestLineFramerSplitMultiByteCharacter(t *testing.T) {
	text := "data: {\"token\":\"é💬\"}\n"
	raw := []byte(text)
	// Cut inside the two-byte é and inside the four-byte emoji.
	cut1 := len("data: {\"token\":\"") + 1
	cut2 := cut1 + 3

	var f LineFramer
	lines := append(f.Feed(raw[:cut1]), f.Feed(raw[cut1:cut2])...)
	lines = append(lines, f.Feed(raw[cut2:])...)

	assert.Equal(t, []string{"data: {\"token\":\"é💬\"}"}, lines)
}

func TestLineFramerReplacesInvalidUTF8(t *testing.T) {
	var f LineFramer

	lines := f.Feed([]byte("data: \xff\n"))

	assert.Equal(t, []string{"data: �"}, lines)
}

func TestLineFramerFlush(t *testing.T) {
	var f LineFramer
	f.Feed([]byte("data: {\"done\":true}"))

	line, ok := f.Flush()
	assert.True(t, ok)
	assert.Equal(t, `data: {"done":true}`, line)

	_, ok = f.Flush()
	assert.False(t, ok)
}

// Splitting the same body at every possible set of offsets must yield the
// lines obtained from a single chunk.
func TestLineFramerSplitInvariance(t *testing.T) {
	body := "data: {\"token\":\"Salut \"}\n\ndata: {\"token\":\"ça va ?\"}\ndata: {\"enrichment\":{\"botox\":{\"has_fiche\":true}}}\n\ndata: {\"done\":true}\n"

	var whole LineFramer
	want := feedAll(&whole, body)

	raw := []byte(body)
	for i := 1; i < len(raw); i++ {
		for j := i; j < len(raw); j += 7 {
			var f LineFramer
			got := feedAll(&f, string(raw[:i]), string(raw[i:j]), string(raw[j:]))
			assert.Equal(t, want, got, "split at %d,%d", i, j)
		}
	}

	// One byte per chunk.
	var f LineFramer
	chunks := make([]string, len(raw))
	for i := range raw {
		chunks[i] = string(raw[i : i+1])
	}
	assert.Equal(t, want, feedAll(&f, chunks...))
}

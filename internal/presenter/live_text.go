package presenter

import (
	"io"
	"strings"
	"sync"

	"bigsis-chat/pkg/sentinel"
)

// LiveText echoes streamed tokens as they arrive and hides everything from
// the diagnostic marker on. A token ending with the start of the marker is
// held back until the next token settles it.
type LiveText struct {
	mu      sync.Mutex
	out     io.Writer
	pending string
	hidden  bool
}

func NewLiveText(out io.Writer) *LiveText {
	return &LiveText{out: out}
}

func (l *LiveText) Write(token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hidden {
		return
	}

	s := l.pending + token
	if i := strings.Index(s, sentinel.Marker); i >= 0 {
		io.WriteString(l.out, s[:i])
		l.pending = ""
		l.hidden = true
		return
	}

	keep := markerPrefixLen(s)
	io.WriteString(l.out, s[:len(s)-keep])
	l.pending = s[len(s)-keep:]
}

// Finish flushes held-back text and readies the writer for the next turn.
func (l *LiveText) Finish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.hidden {
		io.WriteString(l.out, l.pending)
	}
	l.pending = ""
	l.hidden = false
}

// markerPrefixLen is the length of the longest suffix of s that starts the
// marker.
func markerPrefixLen(s string) int {
	n := len(sentinel.Marker) - 1
	if len(s) < n {
		n = len(s)
	}
	for k := n; k > 0; k-- {
		if strings.HasSuffix(s, sentinel.Marker[:k]) {
			return k
		}
	}
	return 0
}

// Discard drops held-back text of an abandoned turn.
func (l *LiveText) Discard() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = ""
	l.hidden = false
}

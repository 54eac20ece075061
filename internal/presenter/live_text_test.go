package presenter

import (
	"strings"
	"testing"

	"bigsis-chat/pkg/sentinel"

	"github.com/stretchr/testify/assert"
)

func TestLiveTextHidesDiagnostic(t *testing.T) {
	full := "Voici les pistes." + sentinel.Marker + `{"zone":"front"}` + sentinel.Marker

	for _, size := range []int{1, 2, 3, 7, 19, len(full)} {
		var out strings.Builder
		live := NewLiveText(&out)
		for i := 0; i < len(full); i += size {
			end := i + size
			if end > len(full) {
				end = len(full)
			}
			live.Write(full[i:end])
		}
		live.Finish()

		assert.Equal(t, "Voici les pistes.", out.String(), "token size %d", size)
	}
}

func TestLiveTextFlushesFalseMarkerStart(t *testing.T) {
	var out strings.Builder
	live := NewLiveText(&out)

	live.Write("Prix en $")
	assert.Equal(t, "Prix en ", out.String())

	live.Write("$ ou en euros")
	live.Finish()
	assert.Equal(t, "Prix en $$ ou en euros", out.String())

	out.Reset()
	live.Write("Tour suivant")
	live.Finish()
	assert.Equal(t, "Tour suivant", out.String())
}

package sentinel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDiagnostic struct {
	Score   int      `json:"score_confiance"`
	Zone    string   `json:"zone"`
	Risques []string `json:"risques"`
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantClean string
		wantFound bool
		wantScore int
		wantNil   bool
	}{
		{
			name:      "well formed block",
			text:      `Here are options.` + Marker + `{"score_confiance":80,"zone":"front"}` + Marker,
			wantClean: "Here are options.",
			wantFound: true,
			wantScore: 80,
		},
		{
			name:      "block with surrounding newlines",
			text:      "Voici ce que je vois.\n\n" + Marker + "\n{\"score_confiance\":42}\n" + Marker + "\n",
			wantClean: "Voici ce que je vois.",
			wantFound: true,
			wantScore: 42,
		},
		{
			name:      "text after block is kept",
			text:      "Avant." + Marker + `{"score_confiance":1}` + Marker + " Apres.",
			wantClean: "Avant. Apres.",
			wantFound: true,
			wantScore: 1,
		},
		{
			name:      "no markers",
			text:      "Just a question?",
			wantClean: "Just a question?",
			wantNil:   true,
		},
		{
			name:      "single marker only",
			text:      "Partial " + Marker + `{"score_confiance":1}`,
			wantClean: "Partial " + Marker + `{"score_confiance":1}`,
			wantNil:   true,
		},
		{
			name:      "malformed payload is stripped",
			text:      "Hook." + Marker + `{"score_confiance": 80,` + Marker,
			wantClean: "Hook.",
			wantFound: true,
			wantNil:   true,
		},
		{
			name:      "null payload",
			text:      "Hook." + Marker + `null` + Marker,
			wantClean: "Hook.",
			wantFound: true,
			wantNil:   true,
		},
		{
			name:      "wrong json shape",
			text:      "Hook." + Marker + `["a","b"]` + Marker,
			wantClean: "Hook.",
			wantFound: true,
			wantNil:   true,
		},
		{
			name:      "empty payload",
			text:      "Hook." + Marker + Marker,
			wantClean: "Hook.",
			wantFound: true,
			wantNil:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract[testDiagnostic](tt.text)

			assert.Equal(t, tt.wantClean, got.CleanText)
			assert.Equal(t, tt.wantFound, got.Found)
			if tt.wantNil {
				assert.Nil(t, got.Payload)
				return
			}
			require.NotNil(t, got.Payload)
			assert.Equal(t, tt.wantScore, got.Payload.Score)
		})
	}
}

func TestExtractOnlyFirstPair(t *testing.T) {
	text := "A" + Marker + `{"score_confiance":1}` + Marker + "B" + Marker + `{"score_confiance":2}` + Marker

	got := Extract[testDiagnostic](text)

	require.NotNil(t, got.Payload)
	assert.Equal(t, 1, got.Payload.Score)
	assert.Equal(t, "AB"+Marker+`{"score_confiance":2}`+Marker, got.CleanText)
}

func TestWrapRoundTrip(t *testing.T) {
	payloads := []testDiagnostic{
		{Score: 80, Zone: "front", Risques: []string{"ecchymose"}},
		{Score: 0},
		{Score: 55, Zone: "pattes_oie", Risques: []string{}},
		{Score: 12, Zone: "texte avec $ et {accolades}"},
	}
	texts := []string{"Here are options.", "", "Ligne 1\nLigne 2", "émoji 💬 inclus"}

	for _, text := range texts {
		for _, p := range payloads {
			wrapped, err := Wrap(text, p)
			require.NoError(t, err)

			got := Extract[testDiagnostic](wrapped)

			assert.Equal(t, text, got.CleanText)
			require.NotNil(t, got.Payload)
			assert.Equal(t, p, *got.Payload)
		}
	}
}

func TestExtractNeverPanicsOnMalformedPayload(t *testing.T) {
	inner := []string{"{", "}", `{"score_confiance":}`, `{"score_confiance":"x"}`, "\x00\xff", `{"a":[1,2}`, "not json at all"}

	for _, in := range inner {
		assert.NotPanics(t, func() {
			got := Extract[testDiagnostic]("t" + Marker + in + Marker)
			assert.Nil(t, got.Payload)
			assert.NotContains(t, got.CleanText, Marker)
		})
	}
}

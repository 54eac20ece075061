package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingHandler struct {
	calls  []string
	tokens strings.Builder
	scores []ScoreDetails
	errors []string
}

func (h *recordingHandler) OnToken(text string) {
	h.calls = append(h.calls, "token")
	h.tokens.WriteString(text)
}

func (h *recordingHandler) OnEnrichment(map[string]EnrichmentPatch) {
	h.calls = append(h.calls, "enrichment")
}

func (h *recordingHandler) OnScore(details ScoreDetails) {
	h.calls = append(h.calls, "score")
	h.scores = append(h.scores, details)
}

func (h *recordingHandler) OnLearningTriggered(json.RawMessage) {
	h.calls = append(h.calls, "learning")
}

func (h *recordingHandler) OnServerError(message string) {
	h.calls = append(h.calls, "error")
	h.errors = append(h.errors, message)
}

// chunkReader returns one predefined chunk per Read and records Close.
type chunkReader struct {
	chunks []string
	closed atomic.Bool
	reads  int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.reads >= len(r.chunks) {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.reads])
	r.reads++
	return n, nil
}

func (r *chunkReader) Close() error {
	r.closed.Store(true)
	return nil
}

func TestSessionRunSplitToken(t *testing.T) {
	h := &recordingHandler{}
	body := &chunkReader{chunks: []string{`data: {"token":"Hel`, "lo\"}\n"}}

	s := NewSession(h)
	require.NoError(t, s.Run(context.Background(), body))

	assert.Equal(t, "Hello", h.tokens.String())
	assert.Equal(t, "Hello", s.FullText())
	assert.True(t, s.Closed())
	assert.True(t, body.closed.Load())
}

func TestSessionRunFullExchange(t *testing.T) {
	h := &recordingHandler{}
	body := &chunkReader{chunks: []string{
		"data: {\"token\":\"Bon\"}\n\n",
		"data: {\"token\":\"jour\"}\n\ndata: {\"enrich",
		"ment\":{\"botox\":{\"has_fiche\":true}}}\n\n",
		"data: this is not json\n\n",
		"data: {\"score_details\":{\"total\":70,\"scientific\":40,\"personal\":30}}\n\n",
		"data: {\"learning_triggered\":[]}\n\n",
		"data: {\"done\":true}\n\n",
	}}

	var dropped []string
	s := NewSession(h, WithDropFunc(func(line string, err error) {
		dropped = append(dropped, line)
	}))
	require.NoError(t, s.Run(context.Background(), body))

	assert.Equal(t, []string{"token", "token", "enrichment", "score", "learning"}, h.calls)
	assert.Equal(t, "Bonjour", s.FullText())
	assert.Equal(t, []ScoreDetails{{Total: 70, Scientific: 40, Personal: 30}}, h.scores)
	assert.Equal(t, 1, s.Dropped())
	assert.Equal(t, []string{"data: this is not json"}, dropped)
}

func TestSessionStopsAtDoneAndDrains(t *testing.T) {
	h := &recordingHandler{}
	pr, pw := io.Pipe()

	writerDone := make(chan error, 1)
	go func() {
		_, err := io.WriteString(pw, "data: {\"token\":\"a\"}\n\ndata: {\"done\":true}\n\n")
		if err == nil {
			// Late events after done must not be applied but must be consumed.
			_, err = io.WriteString(pw, "data: {\"token\":\"late\"}\n\n")
		}
		writerDone <- err
		pw.Close()
	}()

	s := NewSession(h, WithChunkSize(8))
	require.NoError(t, s.Run(context.Background(), pr))

	assert.NoError(t, <-writerDone)
	assert.Equal(t, "a", s.FullText())
	assert.True(t, s.Closed())
}

func TestSessionFlushesFinalUnterminatedLine(t *testing.T) {
	h := &recordingHandler{}
	body := &chunkReader{chunks: []string{"data: {\"token\":\"x\"}\ndata: {\"token\":\"y\"}"}}

	s := NewSession(h)
	require.NoError(t, s.Run(context.Background(), body))

	assert.Equal(t, "xy", s.FullText())
}

func TestSessionServerErrorDoesNotAbort(t *testing.T) {
	h := &recordingHandler{}
	body := &chunkReader{chunks: []string{"data: {\"token\":\"partial\"}\n\ndata: {\"error\":\"llm down\"}\n\n"}}

	s := NewSession(h)
	require.NoError(t, s.Run(context.Background(), body))

	assert.Equal(t, []string{"llm down"}, h.errors)
	assert.Equal(t, "partial", s.FullText())
}

type failingReader struct {
	closed bool
}

func (r *failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }
func (r *failingReader) Close() error             { r.closed = true; return nil }

func TestSessionReadErrorClosesBody(t *testing.T) {
	body := &failingReader{}

	err := NewSession(&recordingHandler{}).Run(context.Background(), body)

	assert.ErrorContains(t, err, "connection reset")
	assert.True(t, body.closed)
}

func TestSessionCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	body := &chunkReader{chunks: []string{"data: {\"token\":\"a\"}\n"}}

	err := NewSession(&recordingHandler{}).Run(ctx, body)

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, body.closed.Load())
	assert.Zero(t, body.reads)
}

func TestSessionCannotBeReused(t *testing.T) {
	s := NewSession(&recordingHandler{})
	require.NoError(t, s.Run(context.Background(), &chunkReader{}))

	assert.Error(t, s.Run(context.Background(), &chunkReader{}))
}

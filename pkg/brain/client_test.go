package brain

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bigsis-chat/internal/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDiagnosticStream(t *testing.T) {
	var got dto.DiagnosticChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/chat/diagnostic", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"token\":\"Salut\"}\n\ndata: {\"done\":true}\n\n")
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/v1/", time.Second)
	body, err := c.OpenDiagnosticStream(context.Background(), "tok", &dto.DiagnosticChatRequest{
		Messages: []dto.ChatMessageDTO{{Role: "user", Content: "front"}},
		Language: "fr",
		Context:  &dto.ChatContextDTO{Area: "front"},
	})
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `{"token":"Salut"}`)
	assert.Equal(t, "fr", got.Language)
	require.NotNil(t, got.Context)
	assert.Equal(t, "front", got.Context.Area)
}

func TestOpenDiagnosticStreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		http.Error(w, "model offline", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.OpenDiagnosticStream(context.Background(), "", &dto.DiagnosticChatRequest{Language: "fr"})

	require.ErrorIs(t, err, ErrUnexpectedStatus)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Equal(t, "model offline", se.Body)
	assert.False(t, IsUnauthorized(err))
}

func TestSaveAndFeedback(t *testing.T) {
	id := uuid.New()
	var calls []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodPost:
			var req dto.SaveDiagnosticRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "front", req.Area)
			_ = json.NewEncoder(w).Encode(dto.SaveDiagnosticResponse{Id: id, Status: dto.SaveStatusSaved})
		case http.MethodPatch:
			var req dto.FeedbackRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 5, req.Rating)
			_ = json.NewEncoder(w).Encode(dto.FeedbackResponse{Id: id, Status: "updated"})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.SaveDiagnostic(context.Background(), "tok", &dto.SaveDiagnosticRequest{Area: "front"})
	require.NoError(t, err)
	assert.Equal(t, id, res.Id)

	require.NoError(t, c.SubmitFeedback(context.Background(), "tok", id.String(), &dto.FeedbackRequest{Rating: 5}))
	assert.Equal(t, []string{
		"POST /users/diagnostics",
		"PATCH /users/diagnostics/" + id.String() + "/feedback",
	}, calls)
}

func TestUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.ListDiagnostics(context.Background(), "expired")
	assert.True(t, IsUnauthorized(err))
}

func TestRestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, 50*time.Millisecond)
	err := c.SubmitFeedback(context.Background(), "tok", "x", &dto.FeedbackRequest{Rating: 1})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnexpectedStatus)
}

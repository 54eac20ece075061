package server

import (
	"context"
	"net"
	"testing"
	"time"

	"bigsis-chat/internal/auth"
	"bigsis-chat/internal/bootstrap"
	"bigsis-chat/internal/config"
	"bigsis-chat/internal/constant"
	"bigsis-chat/internal/pkg/logger"
	"bigsis-chat/internal/pkg/serverutils"
	"bigsis-chat/internal/service"
	"bigsis-chat/pkg/brain"
	"bigsis-chat/pkg/conversation"
	"bigsis-chat/pkg/events"
	"bigsis-chat/pkg/sentinel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func startStub(t *testing.T) string {
	t.Helper()
	cfg := &config.Config{Stub: config.StubConfig{
		JwtSecret:          secret,
		CorsAllowedOrigins: "http://localhost:5173",
	}}
	srv := New(cfg, bootstrap.NewStubContainer(cfg, logger.NewNopLogger(), 0))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	return "http://" + ln.Addr().String() + "/api/v1"
}

func TestConversationAgainstStub(t *testing.T) {
	baseURL := startStub(t)
	ctx := context.Background()

	token, err := serverutils.SignToken(secret, "user-42", time.Hour)
	require.NoError(t, err)
	sessions := auth.NewTokenProvider(token)

	nop := logger.NewNopLogger()
	bus := events.NewBus(nop)
	defer bus.Close()
	saved, err := bus.Subscribe(ctx, events.TypeDiagnosticSaved)
	require.NoError(t, err)

	client := brain.NewClient(baseURL, 5*time.Second)
	store := conversation.NewStore(conversation.WithStrictFinalize())
	chat := service.NewChatbotService(store, client, sessions, bus, nop, "fr", service.WithChunkSize(3))
	diagnostics := service.NewDiagnosticService(store, client, sessions, bus, nop, "http://localhost:3000/login")

	first, err := chat.Send(ctx, "Bonjour")
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeCompleted, first.Outcome)
	assert.Equal(t, service.StubQuestion, first.Text)
	assert.Nil(t, first.Diagnostic)

	second, err := chat.Send(ctx, "Plutot le front, et ca reste marque au repos")
	require.NoError(t, err)
	require.Equal(t, service.OutcomeCompleted, second.Outcome)
	require.NotNil(t, second.Diagnostic)
	assert.NotContains(t, second.Text, sentinel.Marker)
	assert.Equal(t, "front", second.Diagnostic.Zone)
	assert.Equal(t, "rides statiques", second.Diagnostic.Concern)
	assert.Zero(t, second.DroppedLines)

	botox, ok := store.Enrichment().Get("botox")
	require.True(t, ok)
	assert.True(t, botox.HasPublishedSheet)
	require.NotNil(t, botox.TrustScore)
	assert.True(t, store.Enrichment().AnyLearning())
	_, ok = store.Score()
	assert.True(t, ok)

	fb, err := diagnostics.SubmitFeedback(ctx, constant.FeedbackRatingUseful, nil)
	require.NoError(t, err)
	assert.True(t, fb.Acknowledged)
	assert.True(t, fb.Sent)
	require.NotNil(t, fb.Save)
	assert.Equal(t, service.SaveStatusSaved, fb.Save.Status)

	select {
	case ev := <-saved:
		assert.Equal(t, fb.Save.Id, ev.Payload()["diagnostic_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("diagnostic saved event not delivered")
	}

	list, err := client.ListDiagnostics(ctx, token)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "front", list[0].Area)
	require.NotNil(t, list[0].FeedbackRating)
	assert.Equal(t, constant.FeedbackRatingUseful, *list[0].FeedbackRating)
	assert.Len(t, list[0].ChatMessages, 5)
}

func TestStubRejectsInvalidRequests(t *testing.T) {
	baseURL := startStub(t)
	ctx := context.Background()
	client := brain.NewClient(baseURL, 5*time.Second)

	alice, _ := serverutils.SignToken(secret, "alice", time.Hour)
	bob, _ := serverutils.SignToken(secret, "bob", time.Hour)
	forged, _ := serverutils.SignToken("not-the-secret", "alice", time.Hour)

	res, err := client.SaveDiagnostic(ctx, alice, nil)
	require.Error(t, err, "empty body fails validation")
	assert.Nil(t, res)

	_, err = client.ListDiagnostics(ctx, forged)
	assert.True(t, brain.IsUnauthorized(err))

	err = client.SubmitFeedback(ctx, bob, "not-a-uuid", nil)
	assert.ErrorIs(t, err, brain.ErrUnexpectedStatus)
}

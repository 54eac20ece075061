package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"

	"bigsis-chat/internal/auth"
	"bigsis-chat/internal/dto"
	"bigsis-chat/pkg/events"

	"github.com/google/uuid"
)

type fakeOpener struct {
	mu       sync.Mutex
	requests []*dto.DiagnosticChatRequest
	tokens   []string
	open     func(ctx context.Context) (io.ReadCloser, error)
}

func bodyOf(lines ...string) func(context.Context) (io.ReadCloser, error) {
	return func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(strings.Join(lines, ""))), nil
	}
}

func (f *fakeOpener) OpenDiagnosticStream(ctx context.Context, token string, req *dto.DiagnosticChatRequest) (io.ReadCloser, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
	return f.open(ctx)
}

type fakeSessions struct {
	session *auth.Session
	err     error
}

func (f *fakeSessions) Session() (*auth.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.session == nil {
		return nil, auth.ErrNoSession
	}
	return f.session, nil
}

func signedIn() *fakeSessions {
	return &fakeSessions{session: &auth.Session{Token: "tok", UserId: "u-1"}}
}

type fakeRemote struct {
	mu        sync.Mutex
	calls     []string
	saves     []dto.SaveDiagnosticRequest
	feedbacks []dto.FeedbackRequest
	ids       []string
	saveErr   error
	feedErr   error
	nextId    uuid.UUID
}

func (f *fakeRemote) SaveDiagnostic(_ context.Context, token string, req *dto.SaveDiagnosticRequest) (*dto.SaveDiagnosticResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "save")
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saves = append(f.saves, *req)
	if f.nextId == uuid.Nil {
		f.nextId = uuid.New()
	}
	return &dto.SaveDiagnosticResponse{Id: f.nextId, Status: dto.SaveStatusSaved}, nil
}

func (f *fakeRemote) SubmitFeedback(_ context.Context, token, id string, req *dto.FeedbackRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "feedback")
	f.ids = append(f.ids, id)
	if f.feedErr != nil {
		return f.feedErr
	}
	f.feedbacks = append(f.feedbacks, *req)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

var errNetwork = errors.New("connection refused")

func jsonString(t interface{ Helper() }, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

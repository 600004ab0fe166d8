package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bnema/clipmind/internal/domain"
	"github.com/bnema/clipmind/internal/ports"
	"github.com/bnema/clipmind/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSessionServiceShowAndClear(t *testing.T) {
	t.Parallel()
	fixture := newRouterFixture(t)
	service := NewSessionService(fixture.repo, fixture.store, nil)
	ctx := context.Background()

	_, err := service.Show(ctx, "s1")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = fixture.router.Handle(ctx, HandleRequest{SessionID: "s1", Utterance: "Transcribe the video", Video: "clip.mp4"})
	require.NoError(t, err)

	session, err := service.Show(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, session.Turns, 1)

	require.NoError(t, service.Clear(ctx, "s1", ClearOptions{}))
	require.NoError(t, service.Clear(ctx, "s1", ClearOptions{}))

	_, err = service.Show(ctx, "s1")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = fixture.router.Handle(ctx, HandleRequest{SessionID: "s1", Utterance: "Transcribe the video", Video: "clip.mp4"})
	require.NoError(t, err)
	assert.Equal(t, 2, fixture.transcription.calls())
}

// deletedDocuments records Delete calls and fails for paths listed in errs.
type deletedDocuments struct {
	mu    sync.Mutex
	paths []string
	errs  map[string]error
}

func (d *deletedDocuments) Put(context.Context, string, []byte) (string, error) {
	return "", errors.New("not used")
}

func (d *deletedDocuments) Delete(_ context.Context, path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.paths = append(d.paths, path)
	return d.errs[path]
}

func TestSessionServiceClearDeletesDocuments(t *testing.T) {
	t.Parallel()
	fixture := newRouterFixture(t)
	documents := &deletedDocuments{}
	service := NewSessionService(fixture.repo, fixture.store, documents)
	ctx := context.Background()

	_, err := fixture.router.Handle(ctx, HandleRequest{SessionID: "s1", Utterance: "Create a PDF summary", Video: "clip.mp4"})
	require.NoError(t, err)
	_, err = fixture.router.Handle(ctx, HandleRequest{SessionID: "s1", Utterance: "Create a PDF summary", Video: "clip.mp4"})
	require.NoError(t, err)

	require.NoError(t, service.Clear(ctx, "s1", ClearOptions{}))
	assert.Empty(t, documents.paths)

	_, err = fixture.router.Handle(ctx, HandleRequest{SessionID: "s1", Utterance: "Create a PDF summary", Video: "clip.mp4"})
	require.NoError(t, err)

	require.NoError(t, service.Clear(ctx, "s1", ClearOptions{Documents: true}))
	assert.Equal(t, []string{"/tmp/reports/summary.pdf"}, documents.paths)

	_, err = service.Show(ctx, "s1")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionServiceClearReportsDocumentErrors(t *testing.T) {
	t.Parallel()
	fixture := newRouterFixture(t)
	deleteErr := errors.New("read-only file system")
	documents := &deletedDocuments{errs: map[string]error{"/tmp/reports/summary.pdf": deleteErr}}
	service := NewSessionService(fixture.repo, fixture.store, documents)
	ctx := context.Background()

	_, err := fixture.router.Handle(ctx, HandleRequest{SessionID: "s1", Utterance: "Create a PDF summary", Video: "clip.mp4"})
	require.NoError(t, err)

	err = service.Clear(ctx, "s1", ClearOptions{Documents: true})
	require.ErrorIs(t, err, deleteErr)

	_, err = service.Show(ctx, "s1")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionServiceClearDocumentsNeedsStore(t *testing.T) {
	t.Parallel()
	fixture := newRouterFixture(t)

	err := NewSessionService(fixture.repo, fixture.store, nil).Clear(context.Background(), "s1", ClearOptions{Documents: true})
	require.Error(t, err)
}

func TestSessionServiceClearAll(t *testing.T) {
	t.Parallel()
	fixture := newRouterFixture(t)
	service := NewSessionService(fixture.repo, fixture.store, nil)
	ctx := context.Background()

	for _, id := range []domain.SessionID{"s1", "s2", "s3"} {
		_, err := fixture.router.Handle(ctx, HandleRequest{SessionID: id, Utterance: "Transcribe the video", Video: "clip.mp4"})
		require.NoError(t, err)
	}

	cleared, err := service.ClearAll(ctx, ClearOptions{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.SessionID{"s1", "s2", "s3"}, cleared)

	summaries, err := service.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)

	cleared, err = service.ClearAll(ctx, ClearOptions{})
	require.NoError(t, err)
	assert.Empty(t, cleared)
}

func TestSessionServiceListSortsByRecency(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockSessionRepository(t)
	older := ports.SessionSummary{ID: "old", TurnCount: 1, UpdatedAt: testNow.Add(-time.Hour)}
	newer := ports.SessionSummary{ID: "new", TurnCount: 3, UpdatedAt: testNow}
	repo.EXPECT().List(mock.Anything).Return([]ports.SessionSummary{older, newer}, nil)

	service := NewSessionService(repo, NewContextStore(repo, nil), nil)
	summaries, err := service.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ports.SessionSummary{newer, older}, summaries)
}

func TestSessionServiceListWrapsError(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockSessionRepository(t)
	listErr := errors.New("permission denied")
	repo.EXPECT().List(mock.Anything).Return(nil, listErr)

	_, err := NewSessionService(repo, NewContextStore(repo, nil), nil).List(context.Background())
	require.ErrorIs(t, err, listErr)
}

func TestSessionServiceResolveSessionIDIsStable(t *testing.T) {
	t.Parallel()

	service := NewSessionService(nil, nil, nil)
	first := service.ResolveSessionID("/home/me/videos")

	assert.Equal(t, first, service.ResolveSessionID(" /home/me/videos "))
	assert.NotEqual(t, first, service.ResolveSessionID("/home/me/other"))
	assert.NoError(t, domain.ValidateSessionID(first))
}

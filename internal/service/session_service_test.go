package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/tutor-portal/internal/docstore"
	"github.com/stemsi/tutor-portal/internal/model"
)

type fakeSessionSource struct {
	mu       sync.Mutex
	docs     map[string]docstore.Document
	results  map[string][]docstore.Document
	profile  chan docstore.DocSnapshot
	watches  map[string]chan docstore.Snapshot
	watchCtx map[string]context.Context
}

func newFakeSessionSource() *fakeSessionSource {
	return &fakeSessionSource{
		docs:     make(map[string]docstore.Document),
		results:  make(map[string][]docstore.Document),
		profile:  make(chan docstore.DocSnapshot, 4),
		watches:  make(map[string]chan docstore.Snapshot),
		watchCtx: make(map[string]context.Context),
	}
}

func (f *fakeSessionSource) Get(_ context.Context, path string) (*docstore.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[path]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return &d, nil
}

func (f *fakeSessionSource) Query(_ context.Context, q docstore.Query) ([]docstore.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results[q.Collection], nil
}

func (f *fakeSessionSource) Watch(ctx context.Context, q docstore.Query) (<-chan docstore.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan docstore.Snapshot, 4)
	f.watches[q.Collection] = ch
	f.watchCtx[q.Collection] = ctx
	return ch, nil
}

func (f *fakeSessionSource) WatchDoc(context.Context, string) (<-chan docstore.DocSnapshot, error) {
	return f.profile, nil
}

func (f *fakeSessionSource) watch(collection string) (chan docstore.Snapshot, context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.watches[collection], f.watchCtx[collection]
}

type fakeSignOut struct{ ch chan struct{} }

func (f fakeSignOut) WatchSignOut(context.Context, string) (<-chan struct{}, error) { return f.ch, nil }

func doc(path, id, data string) docstore.Document {
	return docstore.Document{Path: path, ID: id, Data: json.RawMessage(data)}
}

func next(t *testing.T, ch <-chan *model.Session) *model.Session {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.True(t, ok, "stream closed")
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session")
		return nil
	}
}

func TestSessionSnapshotWithoutProfileIsLoading(t *testing.T) {
	svc := NewSessionService(newFakeSessionSource(), fakeSignOut{}, zerolog.Nop())

	sess, err := svc.Snapshot(context.Background(), &model.Account{UID: "s1"})
	require.NoError(t, err)
	assert.True(t, sess.Loading)
	assert.Nil(t, sess.Profile)
	assert.Empty(t, sess.Groups)
	assert.NotNil(t, sess.Groups)
}

func TestSessionSnapshotResolvesOwnerScope(t *testing.T) {
	src := newFakeSessionSource()
	src.docs["students/s1"] = doc("students/s1", "s1", `{"fullName":"Aziza","adminId":"a1"}`)
	src.results["users/a1/groups"] = []docstore.Document{doc("users/a1/groups/g1", "g1", `{"courseId":"c1","students":["s1"]}`)}
	src.results["users/a1/courses"] = []docstore.Document{doc("users/a1/courses/c1", "c1", `{"courseTitle":"Math"}`)}
	src.results["students"] = []docstore.Document{doc("students/s1", "s1", `{"fullName":"Aziza","adminId":"a1"}`)}
	svc := NewSessionService(src, fakeSignOut{}, zerolog.Nop())

	sess, err := svc.Snapshot(context.Background(), &model.Account{UID: "s1"})
	require.NoError(t, err)
	assert.False(t, sess.Loading)
	assert.Equal(t, "a1", sess.AdminID)
	require.Len(t, sess.Groups, 1)
	assert.Equal(t, "g1", sess.Groups[0].ID)
	assert.Equal(t, "Math", sess.Courses[0].CourseTitle)
	assert.Empty(t, sess.Teachers)
	assert.Len(t, sess.Roster, 1)
}

func TestSessionObserveLifecycle(t *testing.T) {
	src := newFakeSessionSource()
	signOut := fakeSignOut{ch: make(chan struct{})}
	svc := NewSessionService(src, signOut, zerolog.Nop())

	stream, err := svc.Observe(context.Background(), &model.Account{UID: "s1"}, "jti-1")
	require.NoError(t, err)

	first := next(t, stream)
	assert.True(t, first.Loading)
	assert.Empty(t, first.Groups)

	src.profile <- docstore.DocSnapshot{Doc: &docstore.Document{
		Path: "students/s1", ID: "s1", Data: json.RawMessage(`{"fullName":"Aziza","adminId":"a1"}`),
	}}
	resolved := next(t, stream)
	assert.False(t, resolved.Loading)
	assert.Equal(t, "a1", resolved.AdminID)
	assert.Equal(t, "Aziza", resolved.Profile.FullName)

	groups, groupsCtx := src.watch("users/a1/groups")
	require.NotNil(t, groups)
	groups <- docstore.Snapshot{Docs: []docstore.Document{doc("users/a1/groups/g1", "g1", `{"students":["s1"]}`)}}
	withGroups := next(t, stream)
	require.Len(t, withGroups.Groups, 1)
	assert.Equal(t, "g1", withGroups.Groups[0].ID)

	close(signOut.ch)
	select {
	case _, ok := <-stream:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close on sign-out")
	}
	assert.Error(t, groupsCtx.Err())
}

func TestSessionObserveOwnerChangeRestartsWatches(t *testing.T) {
	src := newFakeSessionSource()
	svc := NewSessionService(src, fakeSignOut{}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := svc.Observe(ctx, &model.Account{UID: "s1"}, "jti-1")
	require.NoError(t, err)
	next(t, stream)

	src.profile <- docstore.DocSnapshot{Doc: &docstore.Document{ID: "s1", Data: json.RawMessage(`{"adminId":"a1"}`)}}
	next(t, stream)
	_, oldCtx := src.watch("users/a1/groups")

	src.profile <- docstore.DocSnapshot{Doc: &docstore.Document{ID: "s1", Data: json.RawMessage(`{"adminId":"a2"}`)}}
	moved := next(t, stream)

	assert.Equal(t, "a2", moved.AdminID)
	assert.Empty(t, moved.Groups)
	assert.Error(t, oldCtx.Err())
	newGroups, newCtx := src.watch("users/a2/groups")
	assert.NotNil(t, newGroups)
	assert.NoError(t, newCtx.Err())

	cancel()
	for range stream {
	}
}

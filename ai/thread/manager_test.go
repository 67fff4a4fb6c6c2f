package thread

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repcircle/repcircle/store"
)

type fakeThreadStore struct {
	threads map[int32]*store.ConversationThread
	getErr  error
	upserts int
}

func newFakeThreadStore() *fakeThreadStore {
	return &fakeThreadStore{threads: map[int32]*store.ConversationThread{}}
}

func (s *fakeThreadStore) GetConversationThread(_ context.Context, conversationID int32) (*store.ConversationThread, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.threads[conversationID], nil
}

func (s *fakeThreadStore) UpsertConversationThread(_ context.Context, upsert *store.UpsertConversationThread) (*store.ConversationThread, error) {
	s.upserts++
	thread := s.threads[upsert.ConversationID]
	if thread == nil {
		thread = &store.ConversationThread{ConversationID: upsert.ConversationID}
		s.threads[upsert.ConversationID] = thread
	}
	if upsert.ProviderConversationID != nil {
		thread.ProviderConversationID = upsert.ProviderConversationID
	}
	if upsert.LastResponseID != nil {
		thread.LastResponseID = upsert.LastResponseID
	}
	return thread, nil
}

type fakeProvider struct {
	conversationID string
	conversations  int
	createErr      error
	responseErr    error

	lastRequest *ResponseRequest
	response    *Response
}

func (p *fakeProvider) CreateConversation(context.Context) (string, error) {
	if p.createErr != nil {
		return "", p.createErr
	}
	p.conversations++
	return p.conversationID, nil
}

func (p *fakeProvider) CreateResponse(_ context.Context, req *ResponseRequest) (*Response, error) {
	if p.responseErr != nil {
		return nil, p.responseErr
	}
	p.lastRequest = req
	return p.response, nil
}

func TestGetOrCreate_CreatesOnceThenReuses(t *testing.T) {
	ctx := context.Background()
	fs := newFakeThreadStore()
	fp := &fakeProvider{conversationID: "conv_abc"}
	m := NewManager(fs, fp)

	first, err := m.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "conv_abc", first)
	assert.Equal(t, 1, fp.conversations)

	second, err := m.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "conv_abc", second)
	assert.Equal(t, 1, fp.conversations, "existing mapping must be reused")
}

func TestGetOrCreate_ProviderFailure(t *testing.T) {
	ctx := context.Background()
	fs := newFakeThreadStore()
	fp := &fakeProvider{createErr: errors.New("provider down")}
	m := NewManager(fs, fp)

	_, err := m.GetOrCreate(ctx, 1)

	require.Error(t, err)
	assert.Nil(t, fs.threads[1], "no mapping persisted on failure")
}

func TestRespond_FirstTurnAnchorsConversation(t *testing.T) {
	ctx := context.Background()
	fs := newFakeThreadStore()
	fp := &fakeProvider{
		conversationID: "conv_abc",
		response:       &Response{ID: "resp_1", Text: "try goblet squats"},
	}
	m := NewManager(fs, fp)

	text, err := m.Respond(ctx, 1, "be a coach", "leg day ideas?")

	require.NoError(t, err)
	assert.Equal(t, "try goblet squats", text)
	require.NotNil(t, fp.lastRequest)
	assert.Equal(t, "conv_abc", fp.lastRequest.ConversationID)
	assert.Empty(t, fp.lastRequest.PreviousResponseID)

	state := fs.threads[1]
	require.NotNil(t, state)
	require.NotNil(t, state.LastResponseID)
	assert.Equal(t, "resp_1", *state.LastResponseID)
	require.NotNil(t, state.ProviderConversationID)
	assert.Equal(t, "conv_abc", *state.ProviderConversationID)
}

func TestRespond_FollowUpChainsPreviousResponse(t *testing.T) {
	ctx := context.Background()
	fs := newFakeThreadStore()
	prev := "resp_1"
	convID := "conv_abc"
	fs.threads[1] = &store.ConversationThread{
		ConversationID:         1,
		ProviderConversationID: &convID,
		LastResponseID:         &prev,
	}
	fp := &fakeProvider{response: &Response{ID: "resp_2", Text: "add a warmup set"}}
	m := NewManager(fs, fp)

	_, err := m.Respond(ctx, 1, "be a coach", "and for warmup?")

	require.NoError(t, err)
	require.NotNil(t, fp.lastRequest)
	assert.Equal(t, "resp_1", fp.lastRequest.PreviousResponseID)
	assert.Empty(t, fp.lastRequest.ConversationID, "response anchor replaces the conversation anchor")
	assert.Equal(t, 0, fp.conversations, "no new conversation for a chained turn")

	require.NotNil(t, fs.threads[1].LastResponseID)
	assert.Equal(t, "resp_2", *fs.threads[1].LastResponseID)
}

func TestRespond_ProviderFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	fs := newFakeThreadStore()
	prev := "resp_1"
	fs.threads[1] = &store.ConversationThread{ConversationID: 1, LastResponseID: &prev}
	fp := &fakeProvider{responseErr: errors.New("provider down")}
	m := NewManager(fs, fp)

	_, err := m.Respond(ctx, 1, "be a coach", "hello?")

	require.Error(t, err)
	assert.Equal(t, "resp_1", *fs.threads[1].LastResponseID)
}

func TestUpdateLastResponse(t *testing.T) {
	ctx := context.Background()
	fs := newFakeThreadStore()
	convID := "conv_abc"
	fs.threads[7] = &store.ConversationThread{ConversationID: 7, ProviderConversationID: &convID}
	m := NewManager(fs, &fakeProvider{})

	require.NoError(t, m.UpdateLastResponse(ctx, 7, "resp_9"))

	state := fs.threads[7]
	require.NotNil(t, state.LastResponseID)
	assert.Equal(t, "resp_9", *state.LastResponseID)
	require.NotNil(t, state.ProviderConversationID, "partial upsert keeps the conversation id")
	assert.Equal(t, "conv_abc", *state.ProviderConversationID)
}

// internal/quota/gate_test.go
package quota

import (
	"context"
	"testing"
	"time"

	"interview-agent/internal/common/config"
	cerrors "interview-agent/internal/common/errors"
	"interview-agent/internal/common/logger"
	"interview-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounters struct {
	apiCalls map[string]int
}

func (f *fakeCounters) GetAPICallCount(ctx context.Context, userID string, window time.Duration) (int, error) {
	return f.apiCalls[userID], nil
}

func (f *fakeCounters) RecordAPICall(ctx context.Context, userID string, window time.Duration) error {
	if f.apiCalls == nil {
		f.apiCalls = map[string]int{}
	}
	f.apiCalls[userID]++
	return nil
}

func (f *fakeCounters) CreateStreamID(ctx context.Context, streamID, chatID string, ttl time.Duration) error {
	return nil
}

type fakeMessageCounts struct {
	counts map[string]int
}

func (f *fakeMessageCounts) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	return nil, nil
}
func (f *fakeMessageCounts) CreateChat(ctx context.Context, chat *models.Chat) error { return nil }
func (f *fakeMessageCounts) DeleteChat(ctx context.Context, id string) error         { return nil }
func (f *fakeMessageCounts) SaveMessages(ctx context.Context, m []models.Message) error {
	return nil
}
func (f *fakeMessageCounts) GetMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	return nil, nil
}
func (f *fakeMessageCounts) UpdateChatLastContext(ctx context.Context, chatID string, c []byte) error {
	return nil
}
func (f *fakeMessageCounts) GetMessageCount(ctx context.Context, userID string, window time.Duration) (int, error) {
	return f.counts[userID], nil
}

func testEntitlements() map[string]config.Entitlements {
	return map[string]config.Entitlements{
		"guest":   {MaxMessagesPerDay: 30, MaxChatAPICallsPerDay: 12},
		"regular": {MaxMessagesPerDay: 50, MaxChatAPICallsPerDay: 2},
	}
}

func newTestGate(t *testing.T, counters *fakeCounters, messages *fakeMessageCounts) *Gate {
	t.Helper()
	if counters == nil {
		counters = &fakeCounters{}
	}
	if messages == nil {
		messages = &fakeMessageCounts{}
	}
	return NewGate(counters, messages, testEntitlements(), logger.NewTestLogger(t))
}

func TestAdmit_UnderLimitChargesOneUnit(t *testing.T) {
	counters := &fakeCounters{}
	gate := newTestGate(t, counters, nil)

	err := gate.Admit(context.Background(), "user-1", models.UserClassGuest)

	require.NoError(t, err)
	assert.Equal(t, 1, counters.apiCalls["user-1"])
}

func TestAdmit_APICallLimitRejectsWithoutCharge(t *testing.T) {
	counters := &fakeCounters{apiCalls: map[string]int{"user-1": 12}}
	gate := newTestGate(t, counters, nil)

	err := gate.Admit(context.Background(), "user-1", models.UserClassGuest)

	require.Error(t, err)
	chatErr := cerrors.AsChatError(err)
	assert.Equal(t, cerrors.ErrCodeRateLimitedAPICalls, chatErr.Code)
	// A rejected turn at the API-call gate consumes nothing.
	assert.Equal(t, 12, counters.apiCalls["user-1"])
}

func TestAdmit_GuestRejectionMentionsRegularLimit(t *testing.T) {
	counters := &fakeCounters{apiCalls: map[string]int{"guest-1": 12}}
	gate := newTestGate(t, counters, nil)

	err := gate.Admit(context.Background(), "guest-1", models.UserClassGuest)

	require.Error(t, err)
	msg := cerrors.AsChatError(err).UserMessage()
	assert.Contains(t, msg, "12/day")
	assert.Contains(t, msg, "2/day")
	assert.Contains(t, msg, "register")
}

func TestAdmit_MessageLimitRejectionStillSpendsTheCharge(t *testing.T) {
	counters := &fakeCounters{}
	messages := &fakeMessageCounts{counts: map[string]int{"user-1": 30}}
	gate := newTestGate(t, counters, messages)

	err := gate.Admit(context.Background(), "user-1", models.UserClassGuest)

	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeRateLimitedMessages, cerrors.AsChatError(err).Code)
	// The API-call charge is irreversible even though the message check
	// rejected the turn afterwards.
	assert.Equal(t, 1, counters.apiCalls["user-1"])
}

func TestAdmit_RegularUserLimits(t *testing.T) {
	counters := &fakeCounters{apiCalls: map[string]int{"reg-1": 2}}
	gate := newTestGate(t, counters, nil)

	err := gate.Admit(context.Background(), "reg-1", models.UserClassRegular)

	require.Error(t, err)
	msg := cerrors.AsChatError(err).UserMessage()
	assert.Contains(t, msg, "2/day")
	assert.NotContains(t, msg, "register")
}

func TestEntitlement_UnknownClassFallsBackToGuest(t *testing.T) {
	gate := newTestGate(t, nil, nil)

	ent := gate.Entitlement(models.UserClass("superuser"))

	assert.Equal(t, 12, ent.MaxChatAPICallsPerDay)
	assert.Equal(t, 30, ent.MaxMessagesPerDay)
}

func TestUsage_ReportsUsedAndMax(t *testing.T) {
	counters := &fakeCounters{apiCalls: map[string]int{"user-1": 7}}
	gate := newTestGate(t, counters, nil)

	usage, err := gate.Usage(context.Background(), "user-1", models.UserClassGuest)

	require.NoError(t, err)
	assert.Equal(t, models.APICallsUsage{Used: 7, Max: 12, UserClass: models.UserClassGuest}, usage)
}

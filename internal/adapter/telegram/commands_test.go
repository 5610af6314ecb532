package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/katitusi/clawbot/internal/domain/session"
	"github.com/katitusi/clawbot/internal/infrastructure/gateway"
)

type stubGateway struct {
	health    *gateway.HealthInfo
	healthErr error
	skills    []string
	skillsErr error
	chat      *gateway.ChatResult
	chatErr   error
	chatQuery string
}

func (s *stubGateway) Health(context.Context) (*gateway.HealthInfo, error) {
	return s.health, s.healthErr
}

func (s *stubGateway) Skills(context.Context) ([]string, error) {
	return s.skills, s.skillsErr
}

func (s *stubGateway) Chat(_ context.Context, _ string, message string, _ gateway.ChatContext) (*gateway.ChatResult, error) {
	s.chatQuery = message
	return s.chat, s.chatErr
}

func newTestDispatcher(gw *stubGateway) (*Dispatcher, *session.Store, *stubMessenger) {
	store := session.NewStore()
	messenger := &stubMessenger{}
	d := NewDispatcher(gw, store, messenger, "/home/node/projects", zap.NewNop())
	return d, store, messenger
}

func TestDispatch_Start(t *testing.T) {
	d, _, messenger := newTestDispatcher(&stubGateway{})

	d.Dispatch(context.Background(), 100, 42, "/start")

	require.Len(t, messenger.texts, 1)
	assert.Contains(t, messenger.texts[0], "Clawbot")
	assert.Contains(t, messenger.texts[0], "/reset")
}

func TestDispatch_CaseInsensitiveWithArguments(t *testing.T) {
	d, _, messenger := newTestDispatcher(&stubGateway{})

	d.Dispatch(context.Background(), 100, 42, "/HELP whatever trailing words")

	require.Len(t, messenger.texts, 1)
	assert.Contains(t, messenger.texts[0], "Clawbot help")
}

func TestDispatch_HelpListsWorkingDirectories(t *testing.T) {
	d, _, messenger := newTestDispatcher(&stubGateway{})

	d.Dispatch(context.Background(), 100, 42, "/help")

	require.Len(t, messenger.texts, 1)
	assert.Contains(t, messenger.texts[0], "/home/node/projects")
	assert.Contains(t, messenger.texts[0], "/home/node/workspace")
}

func TestDispatch_UnknownCommand(t *testing.T) {
	d, _, messenger := newTestDispatcher(&stubGateway{})

	d.Dispatch(context.Background(), 100, 42, "/frobnicate")

	require.Len(t, messenger.texts, 1)
	assert.Contains(t, messenger.texts[0], "Unknown command: /frobnicate")
}

func TestDispatch_ID(t *testing.T) {
	d, _, messenger := newTestDispatcher(&stubGateway{})

	d.Dispatch(context.Background(), 100, 42, "/id")

	require.Len(t, messenger.texts, 1)
	assert.Contains(t, messenger.texts[0], "`42`")
}

func TestDispatch_ResetDeletesSession(t *testing.T) {
	d, store, messenger := newTestDispatcher(&stubGateway{})
	sess := store.GetOrCreate(42)
	sess.SetRemoteID("sess-1")

	d.Dispatch(context.Background(), 100, 42, "/reset")

	_, ok := store.Get(42)
	assert.False(t, ok, "session must be gone after /reset")
	require.Len(t, messenger.texts, 1)
	assert.Contains(t, messenger.texts[0], "Session reset")
}

func TestDispatch_Status(t *testing.T) {
	gw := &stubGateway{health: &gateway.HealthInfo{Version: "1.2.3", Uptime: 360}}
	gw.health.Memory.HeapUsed = 64 * 1024 * 1024
	d, _, messenger := newTestDispatcher(gw)

	d.Dispatch(context.Background(), 100, 42, "/status")

	assert.Equal(t, 1, messenger.typings, "status sends a typing indicator first")
	require.Len(t, messenger.texts, 1)
	assert.Contains(t, messenger.texts[0], "Gateway: Online")
	assert.Contains(t, messenger.texts[0], "1.2.3")
	assert.Contains(t, messenger.texts[0], "6 min")
	assert.Contains(t, messenger.texts[0], "64 MB")
}

func TestDispatch_StatusUnknownFields(t *testing.T) {
	d, _, messenger := newTestDispatcher(&stubGateway{health: &gateway.HealthInfo{}})

	d.Dispatch(context.Background(), 100, 42, "/status")

	require.Len(t, messenger.texts, 1)
	assert.Equal(t, 3, strings.Count(messenger.texts[0], "unknown"))
}

func TestDispatch_StatusFallback(t *testing.T) {
	d, _, messenger := newTestDispatcher(&stubGateway{healthErr: errors.New("connection refused")})

	d.Dispatch(context.Background(), 100, 42, "/status")

	require.Len(t, messenger.texts, 1)
	assert.Contains(t, messenger.texts[0], "Gateway unavailable")
	assert.Contains(t, messenger.texts[0], "docker compose up")
}

func TestDispatch_SkillsList(t *testing.T) {
	d, _, messenger := newTestDispatcher(&stubGateway{skills: []string{"files", "browser"}})

	d.Dispatch(context.Background(), 100, 42, "/skills")

	require.Len(t, messenger.texts, 1)
	assert.Contains(t, messenger.texts[0], "• files")
	assert.Contains(t, messenger.texts[0], "• browser")
}

func TestDispatch_SkillsEmptyShowsBuiltins(t *testing.T) {
	d, _, messenger := newTestDispatcher(&stubGateway{skills: nil})

	d.Dispatch(context.Background(), 100, 42, "/skills")

	require.Len(t, messenger.texts, 1)
	assert.Contains(t, messenger.texts[0], "built-in skills are active")
}

func TestDispatch_SkillsFallbackOnError(t *testing.T) {
	d, _, messenger := newTestDispatcher(&stubGateway{skillsErr: errors.New("boom")})

	d.Dispatch(context.Background(), 100, 42, "/skills")

	require.Len(t, messenger.texts, 1)
	assert.Contains(t, messenger.texts[0], "Built-in skills")
}

func TestDispatch_Projects(t *testing.T) {
	gw := &stubGateway{chat: &gateway.ChatResult{Response: "alpha\nbeta"}}
	d, _, messenger := newTestDispatcher(gw)

	d.Dispatch(context.Background(), 100, 42, "/projects")

	assert.Contains(t, gw.chatQuery, "/home/node/projects")
	require.Len(t, messenger.texts, 1)
	assert.Contains(t, messenger.texts[0], "alpha\nbeta")
}

func TestDispatch_ProjectsFallbackOnError(t *testing.T) {
	d, _, messenger := newTestDispatcher(&stubGateway{chatErr: errors.New("boom")})

	d.Dispatch(context.Background(), 100, 42, "/projects")

	require.Len(t, messenger.texts, 1)
	assert.Contains(t, messenger.texts[0], "Could not fetch the list")
}

func TestDispatch_ProjectsEmptyResponse(t *testing.T) {
	d, _, messenger := newTestDispatcher(&stubGateway{chat: &gateway.ChatResult{}})

	d.Dispatch(context.Background(), 100, 42, "/projects")

	require.Len(t, messenger.texts, 1)
	assert.Contains(t, messenger.texts[0], "empty or unavailable")
}

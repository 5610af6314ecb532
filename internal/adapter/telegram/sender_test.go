package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAPI scripts SendMessage outcomes per call.
type fakeAPI struct {
	sent       []*telego.SendMessageParams
	sendErrs   []error
	typingErrs []error
	typings    int
}

func (f *fakeAPI) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	call := len(f.sent)
	f.sent = append(f.sent, params)
	if call < len(f.sendErrs) && f.sendErrs[call] != nil {
		return nil, f.sendErrs[call]
	}
	return &telego.Message{}, nil
}

func (f *fakeAPI) SendChatAction(_ context.Context, _ *telego.SendChatActionParams) error {
	call := f.typings
	f.typings++
	if call < len(f.typingErrs) {
		return f.typingErrs[call]
	}
	return nil
}

func TestSendText_MarkdownFirst(t *testing.T) {
	bot := &fakeAPI{}
	sender := &Sender{bot: bot, logger: zap.NewNop()}

	err := sender.SendText(context.Background(), 100, "*hello*")

	require.NoError(t, err)
	require.Len(t, bot.sent, 1)
	assert.Equal(t, telego.ModeMarkdown, bot.sent[0].ParseMode)
	assert.Equal(t, int64(100), bot.sent[0].ChatID.ID)
	assert.Equal(t, "*hello*", bot.sent[0].Text)
}

func TestSendText_FallsBackToPlain(t *testing.T) {
	bot := &fakeAPI{sendErrs: []error{errors.New("can't parse entities")}}
	sender := &Sender{bot: bot, logger: zap.NewNop()}

	err := sender.SendText(context.Background(), 100, "broken *markup")

	require.NoError(t, err)
	require.Len(t, bot.sent, 2)
	assert.Equal(t, telego.ModeMarkdown, bot.sent[0].ParseMode)
	assert.Equal(t, "", bot.sent[1].ParseMode, "retry must be plain")
	assert.Equal(t, "broken *markup", bot.sent[1].Text, "retry must carry the same content")
}

func TestSendText_PlainFailureIsTerminal(t *testing.T) {
	bot := &fakeAPI{sendErrs: []error{errors.New("bad markup"), errors.New("chat not found")}}
	sender := &Sender{bot: bot, logger: zap.NewNop()}

	err := sender.SendText(context.Background(), 100, "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	assert.Len(t, bot.sent, 2, "no third attempt")
}

func TestSendTyping(t *testing.T) {
	bot := &fakeAPI{}
	sender := &Sender{bot: bot, logger: zap.NewNop()}

	err := sender.SendTyping(context.Background(), 100)

	require.NoError(t, err)
	assert.Equal(t, 1, bot.typings)
}

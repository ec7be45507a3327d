package telegram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

type sent struct {
	chatID int64
	text   string
}

type recordingBot struct {
	sent []sent
}

func (b *recordingBot) Start(context.Context) error { return nil }
func (b *recordingBot) Stop()                       {}
func (b *recordingBot) SetHandler(func(Update))     {}
func (b *recordingBot) SendMessage(_ context.Context, chatID int64, text string) error {
	b.sent = append(b.sent, sent{chatID: chatID, text: text})
	return nil
}

func TestCommandRegistry_RoutesAliasesCaseInsensitive(t *testing.T) {
	bot := &recordingBot{}
	reg := NewCommandRegistry(bot, logger.Nop())

	var got *CommandContext
	require.NoError(t, reg.Register(CommandConfig{
		Name:    "help",
		Aliases: []string{"start"},
		Handler: func(c *CommandContext) error { got = c; return c.Reply("ok") },
	}))

	require.NoError(t, reg.Handle(context.Background(), 7, 9, "START", "  x "))
	require.NotNil(t, got)
	assert.Equal(t, "help", got.Command)
	assert.Equal(t, "x", got.Args)
	assert.Equal(t, []sent{{chatID: 7, text: "ok"}}, bot.sent)
}

func TestCommandRegistry_UnknownCommand(t *testing.T) {
	bot := &recordingBot{}
	reg := NewCommandRegistry(bot, logger.Nop())

	require.NoError(t, reg.Handle(context.Background(), 1, 1, "nope", ""))
	require.Len(t, bot.sent, 1)
	assert.Equal(t, unknownCommandReply, bot.sent[0].text)
}

func TestCommandRegistry_ErrorReplies(t *testing.T) {
	bot := &recordingBot{}
	reg := NewCommandRegistry(bot, logger.Nop())

	require.NoError(t, reg.Register(CommandConfig{Name: "user", Handler: func(*CommandContext) error {
		return errors.Wrap(UserError{Message: "salah"}, "wrapped")
	}}))
	require.NoError(t, reg.Register(CommandConfig{Name: "boom", Handler: func(*CommandContext) error {
		return errors.ErrInternal
	}}))

	require.NoError(t, reg.Handle(context.Background(), 1, 1, "user", ""))
	require.NoError(t, reg.Handle(context.Background(), 1, 1, "boom", ""))
	assert.Equal(t, "salah", bot.sent[0].text)
	assert.Equal(t, genericFailureReply, bot.sent[1].text)
}

func TestCommandRegistry_MiddlewareOrderAndListing(t *testing.T) {
	reg := NewCommandRegistry(&recordingBot{}, logger.Nop())

	var order []string
	mw := func(name string) CommandMiddleware {
		return func(next CommandHandler) CommandHandler {
			return func(c *CommandContext) error {
				order = append(order, name)
				return next(c)
			}
		}
	}
	reg.Use(mw("first"))
	reg.Use(mw("second"))

	noop := func(*CommandContext) error { return nil }
	require.NoError(t, reg.Register(CommandConfig{Name: "wilayah", Handler: noop}))
	require.NoError(t, reg.Register(CommandConfig{Name: "help", Aliases: []string{"start"}, Handler: noop}))
	require.NoError(t, reg.Register(CommandConfig{Name: "secret", Hidden: true, Handler: noop}))
	assert.Error(t, reg.Register(CommandConfig{Name: "broken"}))

	require.NoError(t, reg.Handle(context.Background(), 1, 1, "wilayah", ""))
	assert.Equal(t, []string{"first", "second"}, order)

	cmds := reg.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, "help", cmds[0].Name)
	assert.Equal(t, "wilayah", cmds[1].Name)
	assert.True(t, reg.HasCommand("Start"))
}

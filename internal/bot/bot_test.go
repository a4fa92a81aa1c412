package bot

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/aadee-assistant/internal/bot/keyboard"
	"github.com/Proton-105/aadee-assistant/internal/flow"
	"github.com/Proton-105/aadee-assistant/internal/idempotency"
	"github.com/Proton-105/aadee-assistant/internal/ratelimit"
	"github.com/Proton-105/aadee-assistant/internal/transcript"
	"github.com/Proton-105/aadee-assistant/internal/widget"
	"github.com/Proton-105/aadee-assistant/internal/widget/widgettest"
	"github.com/Proton-105/aadee-assistant/pkg/config"
)

type sentMessage struct {
	text   string
	markup *telebot.ReplyMarkup
}

// fakeContext implements the parts of telebot.Context the router touches.
type fakeContext struct {
	telebot.Context
	chat      *telebot.Chat
	text      string
	msgID     int
	callback  *telebot.Callback
	sent      []sentMessage
	responses []*telebot.CallbackResponse
	edits     []*telebot.ReplyMarkup
}

func (f *fakeContext) Text() string                { return f.text }
func (f *fakeContext) Chat() *telebot.Chat         { return f.chat }
func (f *fakeContext) Sender() *telebot.User       { return &telebot.User{ID: f.chat.ID} }
func (f *fakeContext) Callback() *telebot.Callback { return f.callback }

func (f *fakeContext) Message() *telebot.Message {
	return &telebot.Message{ID: f.msgID, Chat: f.chat, Text: f.text}
}

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	msg := sentMessage{text: what.(string)}
	for _, opt := range opts {
		if markup, ok := opt.(*telebot.ReplyMarkup); ok {
			msg.markup = markup
		}
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeContext) Respond(resp ...*telebot.CallbackResponse) error {
	f.responses = append(f.responses, resp...)
	return nil
}

func (f *fakeContext) Edit(what interface{}, _ ...interface{}) error {
	f.edits = append(f.edits, what.(*telebot.ReplyMarkup))
	return nil
}

type chat struct {
	t      *testing.T
	router *Router
	id     int64
	nextID int
}

func (c *chat) say(text string) *fakeContext {
	c.nextID++
	ctx := &fakeContext{chat: &telebot.Chat{ID: c.id}, text: text, msgID: c.nextID}
	require.NoError(c.t, c.router.Route(ctx))
	return ctx
}

func (c *chat) press(data string) *fakeContext {
	c.nextID++
	ctx := &fakeContext{
		chat:     &telebot.Chat{ID: c.id},
		msgID:    c.nextID,
		callback: &telebot.Callback{ID: "cb" + strconv.Itoa(c.nextID), Data: data},
	}
	require.NoError(c.t, c.router.Route(ctx))
	return ctx
}

func newRouter(t *testing.T, stubs *widgettest.Stubs, guard *ratelimit.Guard) *Router {
	t.Helper()

	return newRouterFor(t, widgettest.NewRegistry(t, stubs), guard)
}

func newRouterFor(t *testing.T, registry *widget.Registry, guard *ratelimit.Guard) *Router {
	t.Helper()

	log := widgettest.Logger()
	r := NewRouter(log)
	registerRoutes(r, Deps{
		Conversations: registry,
		Guard:         guard,
		Idempotency:   idempotency.NewManager(idempotency.NewMemoryStore(), log),
		Translator:    widgettest.Translator(t),
		Keyboard:      keyboard.NewBuilder(time.UTC, log),
	}, log)
	return r
}

func lastText(ctx *fakeContext) string {
	if len(ctx.sent) == 0 {
		return ""
	}
	return ctx.sent[len(ctx.sent)-1].text
}

func TestRouter_BookingConversation(t *testing.T) {
	stubs := widgettest.NewStubs()
	c := &chat{t: t, router: newRouter(t, stubs, nil), id: 42}

	start := c.say("/start@aadee_bot")
	require.Len(t, start.sent, 1)
	assert.Equal(t, "Hi! How can I help you?", start.sent[0].text)
	require.NotNil(t, start.sent[0].markup)
	assert.Equal(t, "📅 Schedule a meeting", start.sent[0].markup.ReplyKeyboard[0][0].Text)

	purpose := c.say("📅 Schedule a meeting")
	assert.Equal(t, "Great—what is the meeting about?", lastText(purpose))

	times := c.say("logo design help")
	require.Len(t, times.sent, 1)
	assert.Equal(t, "Select a time that works for you:", times.sent[0].text)
	require.NotNil(t, times.sent[0].markup)
	assert.Equal(t, "slot:"+widgettest.Slot, times.sent[0].markup.InlineKeyboard[0][0].Data)

	page := c.press("day:1")
	require.Len(t, page.edits, 1)
	assert.Equal(t, "slot:2025-03-05T10:00:00Z", page.edits[0].InlineKeyboard[0][0].Data)

	chosen := c.press("slot:" + widgettest.Slot)
	assert.Contains(t, lastText(chosen), "Tue, Mar 4, 3:00 PM")

	stale := c.press("slot:" + widgettest.Slot)
	assert.Empty(t, stale.sent)
	require.Len(t, stale.responses, 1)
	assert.Equal(t, "That time is no longer on the list.", stale.responses[0].Text)

	c.say("a@b.com")
	c.say("Jane")
	booked := c.say("skip")

	assert.Contains(t, lastText(booked), "https://cal/x")
	require.Len(t, stubs.Drafts, 1)
	assert.Equal(t, "logo design help", stubs.Drafts[0].Purpose)
	assert.Empty(t, stubs.Drafts[0].Phone)
}

func TestRouter_FreeTextAndHelp(t *testing.T) {
	stubs := widgettest.NewStubs()
	c := &chat{t: t, router: newRouter(t, stubs, nil), id: 7}

	reply := c.say("what do you do?")
	require.Len(t, reply.sent, 2)
	assert.Equal(t, "Hi! How can I help you?", reply.sent[0].text)
	assert.Nil(t, reply.sent[0].markup)
	assert.Equal(t, "We design logos and websites.", reply.sent[1].text)
	assert.Equal(t, "schedule", reply.sent[1].markup.InlineKeyboard[0][0].Data)

	again := c.say("and websites?")
	require.Len(t, again.sent, 1)
	assert.Equal(t, "We design logos and websites.", again.sent[0].text)

	help := c.say("/help")
	assert.Contains(t, lastText(help), "/schedule")
	assert.Equal(t, []string{"what do you do?", "and websites?"}, stubs.Messages)
}

func TestRouter_EvictedConversationGreetsAgain(t *testing.T) {
	stubs := widgettest.NewStubs()
	registry := widgettest.NewRegistry(t, stubs)
	c := &chat{t: t, router: newRouterFor(t, registry, nil), id: 11}

	c.say("/start")
	c.say("📅 Schedule a meeting")
	c.say("logo design help")
	c.press("slot:" + widgettest.Slot)

	require.Equal(t, 1, registry.EvictIdle(time.Now().Add(time.Hour), time.Minute))

	next := c.say("a@b.com")

	require.Len(t, next.sent, 2)
	assert.Equal(t, "Hi! How can I help you?", next.sent[0].text)
	assert.Equal(t, "We design logos and websites.", next.sent[1].text)
	assert.Empty(t, stubs.Drafts)
}

func TestRouter_RateLimited(t *testing.T) {
	guard := ratelimit.NewGuard(ratelimit.NewMemoryLimiter(nil), config.RateLimitConfig{
		Enabled: true,
		PerUser: config.RateLimitRule{Limit: 1, Window: time.Minute},
	}, widgettest.Logger())
	stubs := widgettest.NewStubs()
	c := &chat{t: t, router: newRouter(t, stubs, guard), id: 9}

	c.say("hello")
	limited := c.say("hello again")

	assert.Contains(t, lastText(limited), "Too many messages. Please wait")
	assert.Len(t, stubs.Messages, 1)
}

func TestRouter_DuplicateUpdateHandledOnce(t *testing.T) {
	stubs := widgettest.NewStubs()
	router := newRouter(t, stubs, nil)
	update := func() *fakeContext {
		ctx := &fakeContext{chat: &telebot.Chat{ID: 5}, text: "hello", msgID: 100}
		require.NoError(t, router.Route(ctx))
		return ctx
	}

	update()
	second := update()

	assert.Empty(t, second.sent)
	assert.Len(t, stubs.Messages, 1)
}

func TestPresenter_Markup(t *testing.T) {
	p := NewPresenter(keyboard.NewBuilder(time.UTC, nil), nil, nil)

	testCases := []struct {
		name     string
		snap     widget.Snapshot
		wantData string
	}{
		{name: "slots shown", snap: widget.Snapshot{State: flow.StateChoosingTime, ShowingSlots: true, Slots: widgettest.DefaultSlots()}, wantData: "slot:" + widgettest.Slot},
		{name: "after failed booking", snap: widget.Snapshot{State: flow.StateChoosingTime, CanShowTimes: true}, wantData: "times"},
		{name: "idle", snap: widget.Snapshot{State: flow.StateIdle}, wantData: "schedule"},
		{name: "collecting contact details", snap: widget.Snapshot{State: flow.StateAskEmail}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			markup := p.Markup(tc.snap)
			if tc.wantData == "" {
				assert.Nil(t, markup)
				return
			}
			require.NotNil(t, markup)
			assert.Equal(t, tc.wantData, markup.InlineKeyboard[0][0].Data)
		})
	}
}

func TestAssistantReplies(t *testing.T) {
	messages := []transcript.Message{
		transcript.Assistant("hi"),
		transcript.User("book"),
		transcript.Assistant("purpose?"),
	}

	assert.Equal(t, []string{"purpose?"}, AssistantReplies(messages, 1))
	assert.Equal(t, []string{"hi", "purpose?"}, AssistantReplies(messages, 10))
	assert.Nil(t, AssistantReplies(messages, 3))
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "/start", commandName("/Start@aadee_bot payload"))
	assert.Equal(t, "/cancel", commandName("/cancel"))
}

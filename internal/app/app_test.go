package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kittclouds/okai/internal/config"
	"github.com/kittclouds/okai/internal/store"
	"github.com/kittclouds/okai/pkg/convlog"
	"github.com/kittclouds/okai/pkg/notify"
	"github.com/kittclouds/okai/pkg/openrouter"
	"github.com/kittclouds/okai/pkg/persona"
)

type echoCompleter struct{}

func (echoCompleter) Complete(_ context.Context, _ string, msgs []openrouter.Message) (string, error) {
	return "echo: " + msgs[len(msgs)-1].Content, nil
}

func newContext(t *testing.T, medium store.Medium) *Context {
	t.Helper()
	c, err := New(Options{
		Config:    config.Default(),
		Medium:    medium,
		Logger:    zaptest.NewLogger(t),
		Completer: echoCompleter{},
		Clock:     func() time.Time { return time.UnixMilli(1_700_000_000_000) },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewRequiresMediumAndValidConfig(t *testing.T) {
	_, err := New(Options{Config: config.Default()})
	assert.ErrorIs(t, err, ErrNoMedium)

	bad := config.Default()
	bad.RetentionDays = 0
	_, err = New(Options{Config: bad, Medium: store.NewMemoryMedium(0)})
	assert.ErrorContains(t, err, "retention_days")
}

func TestNewSeedsPersonas(t *testing.T) {
	c := newContext(t, store.NewMemoryMedium(0))
	list := c.Personas.List()
	require.Len(t, list, len(persona.Seeds()))
	assert.Equal(t, "okai", list[0].ID)
}

func TestSendMessageThroughContext(t *testing.T) {
	c := newContext(t, store.NewMemoryMedium(0))

	reply, err := c.Chat.SendMessage(context.Background(), "elonmusk", []convlog.Message{{Role: "user", Content: "Mars"}})
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "echo: Mars")

	conv, ok := c.Logs.GetPersonaLogs("elonmusk")
	require.True(t, ok)
	assert.Equal(t, "Elon Musk", conv.PersonaName)
}

func TestHandleExternalChange(t *testing.T) {
	medium := store.NewMemoryMedium(0)
	a := newContext(t, medium)
	b := newContext(t, medium)

	p, ok := b.Personas.Get("okai")
	require.True(t, ok)
	assert.Positive(t, b.Personas.Store().CacheLen())

	var events []notify.Event
	b.Bus.Subscribe(func(ev notify.Event) { events = append(events, ev) })

	p.Description = "updated elsewhere"
	require.NoError(t, a.Personas.Save("okai", p))
	require.NoError(t, a.Logs.LogConversation([]convlog.Message{{Role: "user", Content: "hi"}}, "okai"))

	assert.False(t, b.HandleExternalChange("unrelated_key"))
	assert.Empty(t, events)

	assert.True(t, b.HandleExternalChange(b.Keys.Logs()))
	assert.Equal(t, []notify.Event{{Signal: notify.StorageChanged, Source: notify.External}}, events)
	assert.Zero(t, b.Personas.Store().CacheLen())

	got, _ := b.Personas.Get("okai")
	assert.Equal(t, "updated elsewhere", got.Description)
	_, ok = b.Logs.GetPersonaLogs("okai")
	assert.True(t, ok)

	assert.True(t, b.HandleExternalChange(""))
}

func TestSetAPIKey(t *testing.T) {
	c := newContext(t, store.NewMemoryMedium(0))
	history := []convlog.Message{{Role: "user", Content: "hi"}}

	require.NoError(t, c.SetAPIKey("", ""))
	_, err := c.Chat.SendMessage(context.Background(), "okai", history)
	assert.ErrorIs(t, err, openrouter.ErrMissingKey)

	require.NoError(t, c.SetAPIKey("sk-test", "https://okai.example"))
}

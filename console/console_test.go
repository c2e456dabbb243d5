package console

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuffer(t *testing.T) {
	t.Run("KeepsOrder", func(t *testing.T) {
		b := NewBuffer(10)
		b.OnMessage(Message{Kind: KindLog, Text: "one"})
		b.OnMessage(Message{Kind: KindError, Text: "two"})

		msgs := b.Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, "one", msgs[0].Text)
		assert.Equal(t, KindError, msgs[1].Kind)
	})

	t.Run("DropsOldestWhenFull", func(t *testing.T) {
		b := NewBuffer(2)
		for _, text := range []string{"a", "b", "c"} {
			b.OnMessage(Message{Kind: KindLog, Text: text})
		}

		msgs := b.Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, "b", msgs[0].Text)
		assert.Equal(t, "c", msgs[1].Text)
	})

	t.Run("MessagesReturnsCopy", func(t *testing.T) {
		b := NewBuffer(2)
		b.OnMessage(Message{Text: "original"})
		msgs := b.Messages()
		msgs[0].Text = "changed"
		assert.Equal(t, "original", b.Messages()[0].Text)
	})

	t.Run("Clear", func(t *testing.T) {
		b := NewBuffer(2)
		b.OnMessage(Message{Text: "x"})
		b.Clear()
		assert.Empty(t, b.Messages())
	})
}

func TestMulti(t *testing.T) {
	first, second := NewBuffer(5), NewBuffer(5)
	sink := Multi(first, second, Discard)

	sink.OnMessage(Message{Kind: KindWarn, Text: "careful"})

	assert.Len(t, first.Messages(), 1)
	assert.Len(t, second.Messages(), 1)
}

func TestZapSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewZapSink(zap.New(core))

	sink.OnMessage(Message{Kind: KindError, Text: "boom", Timestamp: time.Now()})
	sink.OnMessage(Message{Kind: KindLog, Text: "hello", Timestamp: time.Now()})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "boom", entries[0].Message)
	assert.Equal(t, "console", entries[0].LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterDelivers(t *testing.T) {
	e := NewEmitter(4)
	e.Emit(EventTurnStart, map[string]interface{}{"n": 1})

	event := <-e.Events()
	assert.Equal(t, EventTurnStart, event.Kind)
	assert.Equal(t, 1, event.Data["n"])
	assert.False(t, event.Timestamp.IsZero())
}

func TestEmitterDropsWhenFull(t *testing.T) {
	e := NewEmitter(1)
	e.Emit(EventTurnStart, nil)
	e.Emit(EventTurnEnd, nil) // buffer full, dropped without blocking

	event := <-e.Events()
	assert.Equal(t, EventTurnStart, event.Kind)

	select {
	case extra := <-e.Events():
		t.Fatalf("expected drop, got %v", extra.Kind)
	default:
	}
}

func TestEmitterNilReceiver(t *testing.T) {
	var e *Emitter
	require.NotPanics(t, func() { e.Emit(EventError, nil) })
}

func TestEmitterCloseIdempotent(t *testing.T) {
	e := NewEmitter(1)
	e.Close()
	require.NotPanics(t, func() { e.Close() })
	require.NotPanics(t, func() { e.Emit(EventTurnStart, nil) })

	_, open := <-e.Events()
	assert.False(t, open)
}

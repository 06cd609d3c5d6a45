package rabbitmq

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopologyDeclare(t *testing.T) {
	t.Run("declares queue only when no exchange is set", func(t *testing.T) {
		ch := &fakeChannel{conn: &fakeConnection{}}
		top := Topology{Queue: "q1"}

		require.NoError(t, top.Declare(ch))
		assert.Equal(t, []string{"queue:q1"}, ch.ops)
	})

	t.Run("declares exchange, queue and binding when exchange is set", func(t *testing.T) {
		ch := &fakeChannel{conn: &fakeConnection{}}
		top := Topology{Queue: "q3", Exchange: "ex1", ExchangeType: "direct"}

		require.NoError(t, top.Declare(ch))
		assert.Equal(t, []string{"exchange:ex1", "queue:q3", "bind:q3:ex1"}, ch.ops)
		assert.Equal(t, "direct", ch.exchanges["ex1"])
	})

	t.Run("defaults exchange type to fanout", func(t *testing.T) {
		ch := &fakeChannel{conn: &fakeConnection{}}
		top := Topology{Queue: "q3", Exchange: "ex1"}

		require.NoError(t, top.Declare(ch))
		assert.Equal(t, "fanout", ch.exchanges["ex1"])
	})

	t.Run("redeclaring is safe", func(t *testing.T) {
		ch := &fakeChannel{conn: &fakeConnection{}}
		top := Topology{Queue: "q1"}

		require.NoError(t, top.Declare(ch))
		require.NoError(t, top.Declare(ch))
		assert.Equal(t, []string{"queue:q1", "queue:q1"}, ch.ops)
	})

	t.Run("rejects an empty queue name", func(t *testing.T) {
		ch := &fakeChannel{conn: &fakeConnection{}}
		err := Topology{}.Declare(ch)
		assert.ErrorIs(t, err, ErrInvalidTopology)
	})

	t.Run("wraps declaration failures in TopologyError", func(t *testing.T) {
		declErr := errors.New("precondition failed")
		ch := &fakeChannel{conn: &fakeConnection{}, declareErr: declErr}

		err := Topology{Queue: "q1"}.Declare(ch)
		require.Error(t, err)

		var topErr *TopologyError
		require.ErrorAs(t, err, &topErr)
		assert.Equal(t, "queue", topErr.Component)
		assert.Equal(t, "q1", topErr.Name)
		assert.ErrorIs(t, err, declErr)

		// Declaration failures are not connection failures; never retried.
		assert.False(t, IsConnectionError(err))
	})
}

func TestTopologyPublishTarget(t *testing.T) {
	t.Run("routes by queue name through the default exchange", func(t *testing.T) {
		exchange, key := Topology{Queue: "q1"}.PublishTarget()
		assert.Empty(t, exchange)
		assert.Equal(t, "q1", key)
	})

	t.Run("routes through the named exchange", func(t *testing.T) {
		exchange, key := Topology{Queue: "q1", Exchange: "ex1"}.PublishTarget()
		assert.Equal(t, "ex1", exchange)
		assert.Equal(t, "q1", key)
	})
}

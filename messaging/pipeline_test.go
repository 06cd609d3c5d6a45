package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(b *memBroker, consumeQueue, publishQueue string, options ...PipelineOption[point, point]) *Pipeline[point, point] {
	base := []PipelineOption[point, point]{
		WithPipelineRetry[point, point](fastRetry(5)),
		WithPipelineLogging[point, point](false),
	}
	return NewPipeline[point, point](b.managers(), consumeQueue, publishQueue, append(base, options...)...)
}

func TestPipelineRun(t *testing.T) {
	t.Run("consumes from one queue and publishes the result to another", func(t *testing.T) {
		broker := newMemBroker()
		broker.seed("q1", []byte(`{"x": 3}`))
		pipe := newTestPipeline(broker, "q1", "q2", WithPipelineSingleFetch[point, point]())

		err := pipe.Run(context.Background(), func(ctx context.Context, msg point) (point, error) {
			return point{Y: msg.X * 2}, nil
		})
		require.NoError(t, err)

		results := decodeAll[point](t, broker.messages("q2"))
		require.Len(t, results, 1)
		assert.Equal(t, point{Y: 6}, results[0])
	})

	t.Run("logging stays available when enabled", func(t *testing.T) {
		broker := newMemBroker()
		broker.seed("q1", []byte(`{"x": 1}`))
		pipe := NewPipeline[point, point](broker.managers(), "q1", "q2",
			WithPipelineRetry[point, point](fastRetry(5)),
			WithPipelineSingleFetch[point, point](),
		)

		require.NoError(t, pipe.Run(context.Background(), func(ctx context.Context, msg point) (point, error) {
			return msg, nil
		}))
		assert.Len(t, broker.messages(DefaultLoggingQueue), 1)
		assert.Len(t, broker.messages("q2"), 1)
	})

	t.Run("wrap decorates the handler as a runnable stage", func(t *testing.T) {
		broker := newMemBroker()
		broker.seed("q1", []byte(`{"x": 4}`))
		pipe := newTestPipeline(broker, "q1", "q2", WithPipelineSingleFetch[point, point]())

		stage := pipe.Wrap(func(ctx context.Context, msg point) (point, error) {
			return point{Y: msg.X + 1}, nil
		})
		require.NoError(t, stage(context.Background()))

		results := decodeAll[point](t, broker.messages("q2"))
		require.Len(t, results, 1)
		assert.Equal(t, point{Y: 5}, results[0])
	})
}

func TestPipelineClose(t *testing.T) {
	broker := newMemBroker()
	broker.seed("q1", []byte(`{"x": 1}`))
	pipe := newTestPipeline(broker, "q1", "q2", WithPipelineSingleFetch[point, point]())

	require.NoError(t, pipe.Run(context.Background(), func(ctx context.Context, msg point) (point, error) {
		return msg, nil
	}))
	assert.NoError(t, pipe.Close())
}

package generation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer(t *testing.T) {
	t.Parallel()

	p := NewPacer(0)
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}

	p = NewPacer(time.Hour)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Wait(ctx), "second call inside the interval must wait past the deadline")
}

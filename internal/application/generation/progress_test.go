package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressEstimator(t *testing.T) {
	t.Run("maps produced runes into stream band", func(t *testing.T) {
		e := newProgressEstimator(1000, 0)
		assert.Equal(t, progressStreamFloor, e.estimate(0))
		assert.Equal(t, progressStreamFloor+42, e.estimate(500))
		assert.Equal(t, progressStreamCeil, e.estimate(1000))
	})

	t.Run("never exceeds stream ceiling", func(t *testing.T) {
		e := newProgressEstimator(100, 0)
		assert.Equal(t, progressStreamCeil, e.estimate(100000))
	})

	t.Run("monotonic in produced runes", func(t *testing.T) {
		e := newProgressEstimator(2000, 0)
		prev := 0
		for produced := 0; produced <= 4000; produced += 137 {
			p := e.estimate(produced)
			assert.GreaterOrEqual(t, p, prev)
			prev = p
		}
	})

	t.Run("falls back when estimate missing", func(t *testing.T) {
		e := newProgressEstimator(0, 500)
		assert.Equal(t, 500, e.totalRunes)

		e = newProgressEstimator(0, 0)
		assert.Equal(t, 1, e.totalRunes)
	})
}

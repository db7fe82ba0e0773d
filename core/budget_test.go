package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIterationBudget(t *testing.T) {
	t.Run("exhausts after the limit", func(t *testing.T) {
		b := NewIterationBudget(2)

		assert.True(t, b.Spend())
		assert.True(t, b.Spend())
		assert.False(t, b.Spend())
		assert.Equal(t, 2, b.Used(), "a refused spend does not count")
	})

	t.Run("zero limit never exhausts", func(t *testing.T) {
		b := NewIterationBudget(0)

		for i := 0; i < 100; i++ {
			assert.True(t, b.Spend())
		}
		assert.Equal(t, 100, b.Used())
	})
}

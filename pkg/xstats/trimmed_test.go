package xstats

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrim(t *testing.T) {
	us := make([]uint64, 0, 100)
	for i := 1; i <= 100; i++ {
		us = append(us, uint64(i))
	}
	rand.Shuffle(len(us), func(i, j int) { us[i], us[j] = us[j], us[i] })

	assert.Equal(t, Trimmed{P90: 45, P95: 48, P99: 50}, trim(us))
	assert.Equal(t, Trimmed{}, trim(nil))
	// too few samples to trim anything
	assert.Equal(t, Trimmed{}, trim([]uint64{7}))
}

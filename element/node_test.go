package element

import (
	"sync"
	"testing"

	"trafsim/utils"

	"github.com/stretchr/testify/assert"
)

func TestNodeBlockIsCompareAndSet(t *testing.T) {
	n := NewNode(7, utils.Vec2{1, 2})
	assert.False(t, n.Blocked())
	assert.True(t, n.Block())
	assert.False(t, n.Block())
	assert.True(t, n.Blocked())
	assert.True(t, n.Unblock())
	assert.False(t, n.Unblock())
	assert.False(t, n.Blocked())
}

func TestNodeConcurrentBlockHasSingleWinner(t *testing.T) {
	n := NewNode(1, utils.Vec2{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if n.Block() {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestNodeCounter(t *testing.T) {
	n := NewNode(1, utils.Vec2{})
	n.IncrementCounter(1.5)
	n.IncrementCounter(3.25)
	assert.Equal(t, int64(2), n.Passes())
	assert.Equal(t, 3.25, n.LastPass())
}

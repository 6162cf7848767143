package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyMutexSerializesSameKey(t *testing.T) {
	km := NewKeyMutex(64)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("user-1")
			counter++
			km.Unlock("user-1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyMutexRoundsStripesToPowerOfTwo(t *testing.T) {
	cases := map[uint32]uint32{
		0:   64,
		1:   1,
		3:   4,
		64:  64,
		100: 128,
	}
	for in, want := range cases {
		km := NewKeyMutex(in)
		assert.Equal(t, int(want), len(km.stripes), "stripes for %d", in)
	}
}

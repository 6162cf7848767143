package util

import (
	"hash/fnv"
	"sync"
)

// KeyMutex provides striped locking: mutations for the same key always
// serialize, mutations for different keys usually run in parallel. Stripe
// count is fixed at construction and must be a power of two.
type KeyMutex struct {
	stripes []sync.Mutex
	mask    uint32
}

func NewKeyMutex(stripes uint32) *KeyMutex {
	if stripes == 0 || stripes&(stripes-1) != 0 {
		stripes = nextPowerOf2(stripes)
	}
	return &KeyMutex{
		stripes: make([]sync.Mutex, stripes),
		mask:    stripes - 1,
	}
}

func (km *KeyMutex) Lock(key string) {
	km.stripes[km.index(key)].Lock()
}

func (km *KeyMutex) Unlock(key string) {
	km.stripes[km.index(key)].Unlock()
}

func (km *KeyMutex) index(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() & km.mask
}

func nextPowerOf2(n uint32) uint32 {
	if n == 0 {
		return 64
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

package violations

import "sync"

// mapGuard exists to make clear the mutex covers only map structure; record
// contents are serialized by the tracker's key mutex.
type mapGuard struct {
	sync.Mutex
}

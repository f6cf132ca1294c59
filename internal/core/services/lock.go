package services

import "sync"

// keyedMutex serialises writers per key. Writers for different keys do
// not block each other. Entries are never evicted; the key space is
// bounded by the corpus.
type keyedMutex struct {
	locks sync.Map // key -> *sync.Mutex
}

// Lock acquires the mutex for key and returns its unlock func.
func (k *keyedMutex) Lock(key string) func() {
	v, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

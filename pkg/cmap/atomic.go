package cmap

// SetIfAbsent sets the value only if the key does not exist.
// Returns true if the value was set.
func (m *Map[K, V]) SetIfAbsent(key K, value V) bool {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; ok {
		return false
	}
	s.items[key] = value
	return true
}

// Compute replaces the value at key with the result of fn, under the shard
// lock. fn receives the current value and whether it exists. When fn
// returns an error the map is left unchanged and the error is returned.
func (m *Map[K, V]) Compute(key K, fn func(old V, exists bool) (V, error)) (V, error) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	old, exists := s.items[key]
	v, err := fn(old, exists)
	if err != nil {
		var zero V
		return zero, err
	}
	s.items[key] = v
	return v, nil
}

// Range iterates over all key-value pairs until fn returns false.
// Locks are taken shard by shard; fn must not call back into the map.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// Keys returns all keys.
func (m *Map[K, V]) Keys() []K {
	return m.KeysFunc(func(K) bool { return true })
}

// KeysFunc returns the keys for which match reports true.
func (m *Map[K, V]) KeysFunc(match func(key K) bool) []K {
	var keys []K
	m.Range(func(k K, _ V) bool {
		if match(k) {
			keys = append(keys, k)
		}
		return true
	})
	return keys
}

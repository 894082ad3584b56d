package composer

import "sync"

// SignatureMemory remembers the last outfit signature returned per request
// context so consecutive identical requests avoid repeating themselves.
type SignatureMemory struct {
	mu   sync.Mutex
	last map[string]string
}

// NewSignatureMemory creates an empty memory
func NewSignatureMemory() *SignatureMemory {
	return &SignatureMemory{last: make(map[string]string)}
}

// Last returns the previous signature for a key, "" when none
func (m *SignatureMemory) Last(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last[key]
}

// Remember records the signature for a key
func (m *SignatureMemory) Remember(key, signature string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[key] = signature
}

// Len returns the number of remembered contexts
func (m *SignatureMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.last)
}

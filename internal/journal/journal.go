// Package journal records synchronization decisions and outcomes for
// troubleshooting the recompute policy.
package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"

	"github.com/gokulnk/panchanga/internal/store"
)

// Writer persists journal entries through the store.
type Writer struct {
	store *store.Store
}

// NewWriter creates a new journal writer.
func NewWriter(s *store.Store) *Writer {
	return &Writer{store: s}
}

// Record writes one entry. Journal failures are logged, never propagated;
// the sync engine must not fail because bookkeeping did.
func (w *Writer) Record(action string, inputs interface{}, outcome, details string) {
	if _, err := w.store.WriteJournal(action, hashInputs(inputs), outcome, details); err != nil {
		log.Printf("Error writing journal entry for %s: %v", action, err)
	}
}

// hashInputs creates a SHA256 hash of the inputs for reproducibility.
func hashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

package ecs

import "github.com/kamstrup/intmap"

// SignatureTable holds one Signature per live entity. An entity without a record
// is unknown to the store, either never created or already destroyed.
type SignatureTable struct {
	records *intmap.Map[EntityId, Signature]
}

func newSignatureTable(capacity int) *SignatureTable {
	return &SignatureTable{
		records: intmap.New[EntityId, Signature](capacity),
	}
}

// Init starts an all-zero record for id.
func (t *SignatureTable) Init(id EntityId) {
	t.records.Put(id, Signature{})
}

// Get returns id's signature and whether id has a record.
func (t *SignatureTable) Get(id EntityId) (Signature, bool) {
	return t.records.Get(id)
}

// Set replaces the record for id.
func (t *SignatureTable) Set(id EntityId, sig Signature) {
	t.records.Put(id, sig)
}

// Delete drops the record for id.
func (t *SignatureTable) Delete(id EntityId) {
	t.records.Del(id)
}

func (t *SignatureTable) Has(id EntityId) bool {
	return t.records.Has(id)
}

// Len returns the number of live records.
func (t *SignatureTable) Len() int {
	return t.records.Len()
}

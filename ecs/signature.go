package ecs

import "math/bits"

// SignatureWidth is the number of distinct component types a Signature can track.
const SignatureWidth = 256

// Signature records which component types an entity carries. Bit k is set when the
// entity holds the component whose ComponentTypeId is k.
type Signature [SignatureWidth / 64]uint64

// Set enables the bit for id.
func (s *Signature) Set(id ComponentTypeId) {
	s[id>>6] |= 1 << (id & 63)
}

// Clear disables the bit for id.
func (s *Signature) Clear(id ComponentTypeId) {
	s[id>>6] &^= 1 << (id & 63)
}

// Has reports whether the bit for id is set. Ids past SignatureWidth are never set.
func (s Signature) Has(id ComponentTypeId) bool {
	if id >= SignatureWidth {
		return false
	}
	return s[id>>6]&(1<<(id&63)) != 0
}

// ContainsAll reports whether every bit set in sub is also set in s.
func (s Signature) ContainsAll(sub Signature) bool {
	for i := range s {
		if s[i]&sub[i] != sub[i] {
			return false
		}
	}
	return true
}

func (s Signature) IsZero() bool {
	return s == Signature{}
}

// Count returns the number of set bits.
func (s Signature) Count() int {
	n := 0
	for _, w := range s {
		n += bits.OnesCount64(w)
	}
	return n
}

// With returns a copy of s with id set.
func (s Signature) With(id ComponentTypeId) Signature {
	s.Set(id)
	return s
}

// Without returns a copy of s with id cleared.
func (s Signature) Without(id ComponentTypeId) Signature {
	s.Clear(id)
	return s
}

// Or returns the union of s and o.
func (s Signature) Or(o Signature) Signature {
	for i := range s {
		s[i] |= o[i]
	}
	return s
}

// Ids returns the set component type ids in ascending order.
func (s Signature) Ids() []ComponentTypeId {
	ids := make([]ComponentTypeId, 0, s.Count())
	for i, w := range s {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			ids = append(ids, ComponentTypeId(i*64+b))
			w &= w - 1
		}
	}
	return ids
}

// SignatureOf builds a signature with the given ids set.
func SignatureOf(ids ...ComponentTypeId) Signature {
	var s Signature
	for _, id := range ids {
		s.Set(id)
	}
	return s
}

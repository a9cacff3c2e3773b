package store

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"

	"nodestore/internal/logger"
)

// ErrInvalidArgument is returned when a write is called with an input that
// breaks its contract, such as a hash write naming neither a single field
// nor a mapping.
var ErrInvalidArgument = errors.New("invalid argument")

// Store maps keys to typed values. A key holds exactly one value type at a
// time; a write of a different type replaces the old value.
//
// Store is not safe for concurrent use. Callers sharing a Store across
// goroutines must serialize access themselves.
type Store struct {
	slots map[string]value
}

// New creates an empty store
func New() *Store {
	return &Store{slots: make(map[string]value)}
}

// slotFor returns the slot for key, replacing it with an empty container of
// kind k when the key is absent or holds another kind.
func (s *Store) slotFor(key []byte, k Kind) value {
	v, ok := s.slots[string(key)]
	if ok && v.kind() == k {
		return v
	}
	if ok {
		logger.Debugf("key %q holds %s, replacing with empty %s", key, v.kind(), k)
	}
	v = newValue(k)
	s.slots[string(key)] = v
	return v
}

// lookup returns the slot for key only when it holds kind k
func (s *Store) lookup(key []byte, k Kind) (value, bool) {
	v, ok := s.slots[string(key)]
	if !ok || v.kind() != k {
		return nil, false
	}
	return v, true
}

// Delete removes key regardless of its type. Returns 1 if it existed.
func (s *Store) Delete(key []byte) int {
	if _, ok := s.slots[string(key)]; !ok {
		return 0
	}
	delete(s.slots, string(key))
	return 1
}

// Type reports the kind held by key, or KindNone
func (s *Store) Type(key []byte) Kind {
	v, ok := s.slots[string(key)]
	if !ok {
		return KindNone
	}
	return v.kind()
}

// Len returns the number of keys
func (s *Store) Len() int {
	return len(s.slots)
}

// Strings

// Set stores value under key, discarding whatever the key held before
func (s *Store) Set(key, value []byte) {
	s.slots[string(key)] = bytesValue{data: cloneBytes(value)}
}

// Get returns the string stored at key
func (s *Store) Get(key []byte) ([]byte, bool) {
	v, ok := s.lookup(key, KindString)
	if !ok {
		return nil, false
	}
	return cloneBytes(v.(bytesValue).data), true
}

// Lists

// LPush inserts values at the head of the list at key
func (s *Store) LPush(key []byte, values ...[]byte) int {
	return s.slotFor(key, KindList).(listValue).list.PushFront(values...)
}

// RPush appends values to the tail of the list at key
func (s *Store) RPush(key []byte, values ...[]byte) int {
	return s.slotFor(key, KindList).(listValue).list.PushBack(values...)
}

// LRange returns list elements start..end inclusive; end -1 means the tail
func (s *Store) LRange(key []byte, start, end int) [][]byte {
	v, ok := s.lookup(key, KindList)
	if !ok {
		return [][]byte{}
	}
	return v.(listValue).list.Range(start, end)
}

// Sets

// SAdd adds members to the set at key and returns how many were new
func (s *Store) SAdd(key []byte, members ...[]byte) int {
	set := s.slotFor(key, KindSet).(setValue)
	added := 0
	for _, m := range members {
		if _, exists := set.members[string(m)]; !exists {
			set.members[string(m)] = struct{}{}
			added++
		}
	}

	logger.Debugf("SADD added %d new members, set size: %d", added, len(set.members))
	return added
}

// SMembers returns every member of the set at key in byte order
func (s *Store) SMembers(key []byte) [][]byte {
	v, ok := s.lookup(key, KindSet)
	if !ok {
		return [][]byte{}
	}
	set := v.(setValue)
	members := make([][]byte, 0, len(set.members))
	for m := range set.members {
		members = append(members, []byte(m))
	}
	sort.Slice(members, func(i, j int) bool {
		return bytes.Compare(members[i], members[j]) < 0
	})
	return members
}

// Hashes

// HashWrite is a hash update as received from a caller: either a single
// Field/Value pair or a Fields mapping, never both.
type HashWrite struct {
	Field  []byte
	Value  []byte
	Fields map[string][]byte
}

// HSet sets one field of the hash at key. Returns 1 if the field is new.
func (s *Store) HSet(key, field, value []byte) int {
	h := s.slotFor(key, KindHash).(hashValue)
	_, exists := h.fields[string(field)]
	h.fields[string(field)] = cloneBytes(value)
	if exists {
		return 0
	}
	return 1
}

// HSetFields sets every field in fields and returns the number of fields
// that did not exist before. An empty mapping is rejected.
func (s *Store) HSetFields(key []byte, fields map[string][]byte) (int, error) {
	if len(fields) == 0 {
		return 0, fmt.Errorf("hash set %q: no fields given: %w", key, ErrInvalidArgument)
	}

	h := s.slotFor(key, KindHash).(hashValue)
	created := 0
	for f, v := range fields {
		if _, exists := h.fields[f]; !exists {
			created++
		}
		h.fields[f] = cloneBytes(v)
	}
	return created, nil
}

// HSetRequest applies w to the hash at key. Exactly one of a field/value
// pair or a mapping must be present.
func (s *Store) HSetRequest(key []byte, w HashWrite) (int, error) {
	hasPair := w.Field != nil || w.Value != nil
	hasMapping := w.Fields != nil

	switch {
	case hasPair && hasMapping:
		return 0, fmt.Errorf("hash set %q: specify either field+value or mapping, not both: %w", key, ErrInvalidArgument)
	case hasMapping:
		return s.HSetFields(key, w.Fields)
	case w.Field != nil && w.Value != nil:
		return s.HSet(key, w.Field, w.Value), nil
	default:
		return 0, fmt.Errorf("hash set %q: specify either field+value or mapping: %w", key, ErrInvalidArgument)
	}
}

// HGet returns the value of field in the hash at key
func (s *Store) HGet(key, field []byte) ([]byte, bool) {
	v, ok := s.lookup(key, KindHash)
	if !ok {
		return nil, false
	}
	val, ok := v.(hashValue).fields[string(field)]
	if !ok {
		return nil, false
	}
	return cloneBytes(val), true
}

// HGetAll returns a copy of every field of the hash at key
func (s *Store) HGetAll(key []byte) map[string][]byte {
	v, ok := s.lookup(key, KindHash)
	if !ok {
		return map[string][]byte{}
	}
	fields := v.(hashValue).fields
	result := make(map[string][]byte, len(fields))
	for f, val := range fields {
		result[f] = cloneBytes(val)
	}
	return result
}

// Sorted sets

// ZAdd upserts member scores and returns how many members were new. A NaN
// score has no place in the ordering, so the whole call is rejected before
// the key is touched.
func (s *Store) ZAdd(key []byte, members map[string]float64) (int, error) {
	for m, score := range members {
		if math.IsNaN(score) {
			return 0, fmt.Errorf("zadd %q: score for member %q is NaN: %w", key, m, ErrInvalidArgument)
		}
	}

	z := s.slotFor(key, KindSortedSet).(sortedSetValue)
	added := 0
	for m, score := range members {
		if _, exists := z.scores[m]; !exists {
			added++
		}
		z.scores[m] = score
	}
	return added, nil
}

// ZRange returns members start..end inclusive in ascending score order
func (s *Store) ZRange(key []byte, start, end int) [][]byte {
	entries := s.ZRangeWithScores(key, start, end)
	members := make([][]byte, len(entries))
	for i, e := range entries {
		members[i] = e.Member
	}
	return members
}

// ZRangeWithScores returns members start..end inclusive with their scores,
// ordered by ascending score. Equal scores are ordered by member bytes.
func (s *Store) ZRangeWithScores(key []byte, start, end int) []ScoredMember {
	v, ok := s.lookup(key, KindSortedSet)
	if !ok {
		return []ScoredMember{}
	}
	scores := v.(sortedSetValue).scores

	order := make([]ScoredMember, 0, len(scores))
	for m, score := range scores {
		order = append(order, ScoredMember{Member: []byte(m), Score: score})
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].Score == order[j].Score {
			return bytes.Compare(order[i].Member, order[j].Member) < 0
		}
		return order[i].Score < order[j].Score
	})

	lo, hi, ok := resolveRange(start, end, len(order))
	if !ok {
		return []ScoredMember{}
	}
	result := make([]ScoredMember, hi-lo+1)
	copy(result, order[lo:hi+1])
	return result
}

// resolveRange converts an inclusive start..end request over n elements,
// where end -1 means the last element, into slice bounds. It follows the
// same rules as LinkedList.Range: negative starts clamp to zero and ends
// past the tail clamp to the tail.
func resolveRange(start, end, n int) (lo, hi int, ok bool) {
	if end == -1 {
		end = n - 1
	}
	if start < 0 {
		start = 0
	}
	if end >= n {
		end = n - 1
	}
	if start > end {
		return 0, 0, false
	}
	return start, end, true
}

package store

import "nodestore/internal/logger"

// nilIndex marks a missing neighbour in the node arena.
const nilIndex = -1

// listNode is one element of a LinkedList. Links are indices into the
// owning list's node table rather than pointers.
type listNode struct {
	value []byte
	prev  int
	next  int
}

// LinkedList is a doubly linked list of byte values backed by an arena of
// nodes addressed by stable indices. Nodes are never removed individually,
// so the arena only grows.
type LinkedList struct {
	nodes []listNode
	head  int
	tail  int
}

// NewLinkedList creates an empty list
func NewLinkedList() *LinkedList {
	return &LinkedList{
		nodes: make([]listNode, 0, 8),
		head:  nilIndex,
		tail:  nilIndex,
	}
}

func (l *LinkedList) alloc(value []byte) int {
	l.nodes = append(l.nodes, listNode{value: cloneBytes(value), prev: nilIndex, next: nilIndex})
	return len(l.nodes) - 1
}

// PushFront inserts each value at the head in call order, so the last
// argument ends up first. Returns the new length.
func (l *LinkedList) PushFront(values ...[]byte) int {
	for _, v := range values {
		idx := l.alloc(v)
		if l.head == nilIndex {
			l.head, l.tail = idx, idx
			continue
		}
		l.nodes[idx].next = l.head
		l.nodes[l.head].prev = idx
		l.head = idx
	}

	logger.Debugf("list push front added %d elements, length: %d", len(values), l.Len())
	return l.Len()
}

// PushBack appends each value at the tail in call order. Returns the new length.
func (l *LinkedList) PushBack(values ...[]byte) int {
	for _, v := range values {
		idx := l.alloc(v)
		if l.tail == nilIndex {
			l.head, l.tail = idx, idx
			continue
		}
		l.nodes[idx].prev = l.tail
		l.nodes[l.tail].next = idx
		l.tail = idx
	}

	logger.Debugf("list push back added %d elements, length: %d", len(values), l.Len())
	return l.Len()
}

// Len returns the number of elements
func (l *LinkedList) Len() int {
	return len(l.nodes)
}

// Range returns copies of the elements at positions start..end inclusive,
// walking from the head. An end of -1 means the last element. Positions
// outside the list are skipped; the result is empty rather than nil.
func (l *LinkedList) Range(start, end int) [][]byte {
	if end == -1 {
		end = l.Len() - 1
	}

	result := make([][]byte, 0)
	for i, cur := 0, l.head; cur != nilIndex && i <= end; i, cur = i+1, l.nodes[cur].next {
		if i >= start {
			result = append(result, cloneBytes(l.nodes[cur].value))
		}
	}
	return result
}

// cloneBytes returns an independent copy of b. A nil input yields an empty,
// non-nil slice so stored values never alias caller memory.
func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

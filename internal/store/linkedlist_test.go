package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func b(values ...string) [][]byte {
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = []byte(v)
	}
	return out
}

func TestNewLinkedList(t *testing.T) {
	list := NewLinkedList()
	require.NotNil(t, list)
	assert.Equal(t, 0, list.Len())
	assert.Empty(t, list.Range(0, -1))
	assert.NotNil(t, list.Range(0, -1))
}

func TestLinkedListPushFront(t *testing.T) {
	list := NewLinkedList()

	assert.Equal(t, 1, list.PushFront([]byte("a")))
	assert.Equal(t, 3, list.PushFront(b("b", "c")...))

	// each value becomes the new head in turn
	assert.Equal(t, b("c", "b", "a"), list.Range(0, -1))
}

func TestLinkedListPushBack(t *testing.T) {
	list := NewLinkedList()

	assert.Equal(t, 1, list.PushBack([]byte("a")))
	assert.Equal(t, 3, list.PushBack(b("b", "c")...))

	assert.Equal(t, b("a", "b", "c"), list.Range(0, -1))
}

func TestLinkedListMixedPush(t *testing.T) {
	list := NewLinkedList()
	list.PushFront(b("a", "b")...)
	list.PushBack([]byte("c"))
	list.PushFront([]byte("z"))

	assert.Equal(t, b("z", "b", "a", "c"), list.Range(0, -1))
	assert.Equal(t, 4, list.Len())
}

func TestLinkedListRange(t *testing.T) {
	list := NewLinkedList()
	list.PushBack(b("a", "b", "c", "d", "e")...)

	tests := []struct {
		name       string
		start, end int
		expected   [][]byte
	}{
		{"full", 0, -1, b("a", "b", "c", "d", "e")},
		{"prefix", 0, 1, b("a", "b")},
		{"single", 2, 2, b("c")},
		{"tail from middle", 3, -1, b("d", "e")},
		{"end past tail", 3, 100, b("d", "e")},
		{"start past tail", 10, 20, b()},
		{"start after end", 3, 1, b()},
		{"negative start", -3, 1, b("a", "b")},
		{"negative end other than -1", 0, -2, b()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, list.Range(tt.start, tt.end))
		})
	}
}

func TestLinkedListRangeDoesNotMutate(t *testing.T) {
	list := NewLinkedList()
	list.PushBack(b("a", "b")...)

	first := list.Range(0, -1)
	first[0][0] = 'x'

	assert.Equal(t, b("a", "b"), list.Range(0, -1))
	assert.Equal(t, 2, list.Len())
}

func TestLinkedListCopiesPushedValues(t *testing.T) {
	list := NewLinkedList()
	v := []byte("abc")
	list.PushBack(v)
	v[0] = 'x'

	assert.Equal(t, b("abc"), list.Range(0, -1))
}

func TestLinkedListLinks(t *testing.T) {
	list := NewLinkedList()
	list.PushBack([]byte("b"))
	list.PushFront([]byte("a"))
	list.PushBack([]byte("c"))

	// walk backwards from the tail to check prev links
	var reversed []string
	for cur := list.tail; cur != nilIndex; cur = list.nodes[cur].prev {
		reversed = append(reversed, string(list.nodes[cur].value))
	}
	assert.Equal(t, []string{"c", "b", "a"}, reversed)
	assert.Equal(t, nilIndex, list.nodes[list.head].prev)
	assert.Equal(t, nilIndex, list.nodes[list.tail].next)
}

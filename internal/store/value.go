package store

// Kind identifies which value type a key currently holds
type Kind int

const (
	KindNone Kind = iota
	KindString
	KindList
	KindSet
	KindHash
	KindSortedSet
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindHash:
		return "hash"
	case KindSortedSet:
		return "zset"
	default:
		return "none"
	}
}

// value is the closed set of slot variants. Only types in this file
// implement it.
type value interface {
	kind() Kind
}

type bytesValue struct {
	data []byte
}

type listValue struct {
	list *LinkedList
}

type setValue struct {
	members map[string]struct{}
}

type hashValue struct {
	fields map[string][]byte
}

type sortedSetValue struct {
	scores map[string]float64
}

func (bytesValue) kind() Kind { return KindString }
func (listValue) kind() Kind { return KindList }
func (setValue) kind() Kind { return KindSet }
func (hashValue) kind() Kind { return KindHash }
func (sortedSetValue) kind() Kind { return KindSortedSet }

// newValue returns a fresh, empty container of the given kind
func newValue(k Kind) value {
	switch k {
	case KindList:
		return listValue{list: NewLinkedList()}
	case KindSet:
		return setValue{members: make(map[string]struct{})}
	case KindHash:
		return hashValue{fields: make(map[string][]byte)}
	case KindSortedSet:
		return sortedSetValue{scores: make(map[string]float64)}
	default:
		return bytesValue{data: []byte{}}
	}
}

// ScoredMember is a sorted set member paired with its score
type ScoredMember struct {
	Member []byte
	Score  float64
}

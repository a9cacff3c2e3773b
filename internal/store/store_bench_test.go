package store

import (
	"strconv"
	"testing"
)

// BenchmarkStoreSet measures the performance of string writes
func BenchmarkStoreSet(b *testing.B) {
	s := New()
	value := []byte("value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Set([]byte("key"+strconv.Itoa(i%10000)), value)
	}
}

// BenchmarkStoreGet measures the performance of string reads
func BenchmarkStoreGet(b *testing.B) {
	s := New()
	for i := 0; i < 10000; i++ {
		s.Set([]byte("key"+strconv.Itoa(i)), []byte("value"))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Get([]byte("key" + strconv.Itoa(i%10000)))
	}
}

func BenchmarkLinkedListPush(b *testing.B) {
	l := NewLinkedList()
	value := []byte("v")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%2 == 0 {
			l.PushFront(value)
		} else {
			l.PushBack(value)
		}
	}
}

func BenchmarkLRange(b *testing.B) {
	s := New()
	key := []byte("list")
	for i := 0; i < 1000; i++ {
		s.RPush(key, []byte(strconv.Itoa(i)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.LRange(key, 0, 99)
	}
}

func BenchmarkZAdd(b *testing.B) {
	s := New()
	key := []byte("zset")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.ZAdd(key, map[string]float64{strconv.Itoa(i % 1000): float64(i)})
	}
}

func BenchmarkZRange(b *testing.B) {
	s := New()
	key := []byte("zset")
	for i := 0; i < 1000; i++ {
		_, _ = s.ZAdd(key, map[string]float64{strconv.Itoa(i): float64(i % 37)})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.ZRange(key, 0, 99)
	}
}

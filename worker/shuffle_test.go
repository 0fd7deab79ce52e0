package worker

import (
	"fmt"
	"sort"
	"sync"
	"testing"
)

func TestShuffleKeepsEveryPair(t *testing.T) {
	s := NewShuffle(5)
	var emitted []KV
	var wg sync.WaitGroup
	var mu sync.Mutex
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			var kvs []KV
			for i := 0; i < 200; i++ {
				kvs = append(kvs, KV{Key: fmt.Sprintf("k%d", i%17), Value: fmt.Sprintf("w%d", w)})
			}
			s.Add(kvs)
			mu.Lock()
			emitted = append(emitted, kvs...)
			mu.Unlock()
		}(w)
	}
	wg.Wait()

	if s.Len() != len(emitted) {
		t.Fatalf("expected %d pairs, got %d", len(emitted), s.Len())
	}

	var grouped []string
	seen := map[string]bool{}
	for _, g := range s.AllGroups() {
		if seen[g.Key] {
			t.Fatalf("key %q appears in more than one group", g.Key)
		}
		seen[g.Key] = true
		for _, v := range g.Values {
			grouped = append(grouped, g.Key+"="+v)
		}
	}
	var want []string
	for _, kv := range emitted {
		want = append(want, kv.Key+"="+kv.Value)
	}
	sort.Strings(grouped)
	sort.Strings(want)
	if len(grouped) != len(want) {
		t.Fatalf("expected %d grouped values, got %d", len(want), len(grouped))
	}
	for i := range want {
		if grouped[i] != want[i] {
			t.Fatalf("multiset mismatch at %d: %q != %q", i, grouped[i], want[i])
		}
	}
	if len(seen) != 17 {
		t.Fatalf("expected 17 groups, got %d", len(seen))
	}
}

func TestShuffleKeepsDuplicates(t *testing.T) {
	s := NewShuffle(1)
	s.Add([]KV{{"a", "x.txt"}, {"a", "x.txt"}})
	groups := s.Groups(0)
	if len(groups) != 1 || len(groups[0].Values) != 2 {
		t.Fatalf("expected one group with two values, got %+v", groups)
	}
}

func TestShuffleArrivalOrder(t *testing.T) {
	s := NewShuffle(3)
	s.Add([]KV{{"k", "1"}, {"k", "2"}})
	s.Add([]KV{{"k", "3"}})
	for _, g := range s.AllGroups() {
		if g.Key == "k" {
			if fmt.Sprint(g.Values) != "[1 2 3]" {
				t.Fatalf("expected arrival order, got %v", g.Values)
			}
			return
		}
	}
	t.Fatalf("group k not found")
}

func TestCombineLocal(t *testing.T) {
	sum := func(key string, values []string) string { return fmt.Sprint(len(values)) }
	got := combineLocal([]KV{{"b", "1"}, {"a", "1"}, {"b", "1"}}, sum)
	want := []KV{{"b", "2"}, {"a", "1"}}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if out := combineLocal(nil, sum); len(out) != 0 {
		t.Fatalf("expected empty output, got %v", out)
	}
}

func TestReducerForKeyStable(t *testing.T) {
	first := reducerForKey("same-key", 8)
	for i := 0; i < 100; i++ {
		if got := reducerForKey("same-key", 8); got != first {
			t.Fatalf("expected stable partition for key: %d != %d", got, first)
		}
	}
}

func TestReducerForKeyRange(t *testing.T) {
	for _, key := range []string{"a", "b", "the", "cat", "el_quijote", "don't", ""} {
		if got := reducerForKey(key, 7); got < 0 || got >= 7 {
			t.Fatalf("partition out of range for key %q: %d", key, got)
		}
	}
}

func TestNewShuffleClampsPartitions(t *testing.T) {
	if n := NewShuffle(0).Partitions(); n != 1 {
		t.Fatalf("expected 1 partition, got %d", n)
	}
}

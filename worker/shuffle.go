package worker

import (
	"hash/fnv"
	"sort"
	"sync"
)

type partition struct {
	mux    sync.Mutex
	groups map[string][]string
	pairs  int
}

// Shuffle groups pairs by key across all mapping goroutines. Keys are
// spread over partitions so concurrent flushes only contend per partition.
type Shuffle struct {
	parts []*partition
}

func NewShuffle(nReduce int) *Shuffle {
	if nReduce <= 0 {
		nReduce = 1
	}
	s := &Shuffle{parts: make([]*partition, nReduce)}
	for i := range s.parts {
		s.parts[i] = &partition{groups: make(map[string][]string)}
	}
	return s
}

func reducerForKey(key string, nReduce int) int {
	if nReduce <= 0 {
		panic("nReduce must be > 0")
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()&0x7fffffff) % nReduce
}

func (s *Shuffle) Partitions() int {
	return len(s.parts)
}

// Add appends kvs to their groups. Safe for concurrent use.
func (s *Shuffle) Add(kvs []KV) {
	if len(kvs) == 0 {
		return
	}
	buckets := make([][]KV, len(s.parts))
	for _, kv := range kvs {
		id := reducerForKey(kv.Key, len(s.parts))
		buckets[id] = append(buckets[id], kv)
	}
	for id, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		p := s.parts[id]
		p.mux.Lock()
		for _, kv := range bucket {
			p.groups[kv.Key] = append(p.groups[kv.Key], kv.Value)
		}
		p.pairs += len(bucket)
		p.mux.Unlock()
	}
}

// Groups returns the groups of one partition sorted by key. It must only be
// called once every Add has returned.
func (s *Shuffle) Groups(id int) []Group {
	p := s.parts[id]
	p.mux.Lock()
	defer p.mux.Unlock()

	keys := make([]string, 0, len(p.groups))
	for k := range p.groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Group, 0, len(keys))
	for _, k := range keys {
		out = append(out, Group{Key: k, Values: p.groups[k]})
	}
	return out
}

func (s *Shuffle) AllGroups() []Group {
	var out []Group
	for id := range s.parts {
		out = append(out, s.Groups(id)...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len is the number of pairs accepted so far.
func (s *Shuffle) Len() int {
	n := 0
	for _, p := range s.parts {
		p.mux.Lock()
		n += p.pairs
		p.mux.Unlock()
	}
	return n
}

// NumGroups is the number of distinct keys.
func (s *Shuffle) NumGroups() int {
	n := 0
	for _, p := range s.parts {
		p.mux.Lock()
		n += len(p.groups)
		p.mux.Unlock()
	}
	return n
}

// combineLocal pre-reduces one unit's pairs. Output order follows first
// arrival of each key.
func combineLocal(kvs []KV, combine CombineFunc) []KV {
	if combine == nil || len(kvs) == 0 {
		return kvs
	}
	order := []string{}
	grouped := make(map[string][]string)
	for _, kv := range kvs {
		if _, ok := grouped[kv.Key]; !ok {
			order = append(order, kv.Key)
		}
		grouped[kv.Key] = append(grouped[kv.Key], kv.Value)
	}
	out := make([]KV, 0, len(order))
	for _, k := range order {
		out = append(out, KV{Key: k, Value: combine(k, grouped[k])})
	}
	return out
}

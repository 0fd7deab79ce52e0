package mrapps

import (
	"sort"
	"strings"

	"github.com/emptyOVO/textjobs/worker"
)

// InvertedIndexReduce lists the distinct files a word appears in, sorted.
func InvertedIndexReduce(key string, values []string) (worker.KV, bool) {
	seen := make(map[string]struct{}, len(values))
	names := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		names = append(names, v)
	}
	sort.Strings(names)
	return worker.KV{Key: key, Value: strings.Join(names, ", ")}, true
}

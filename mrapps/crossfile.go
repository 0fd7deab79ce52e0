package mrapps

import (
	"strconv"
	"strings"

	"github.com/emptyOVO/textjobs/worker"
	log "github.com/sirupsen/logrus"
)

// CrossFileReduce tallies a word per file and emits
// "word, n1, n2, ..." in column order once the word was seen in at least
// minFiles distinct files. Files outside columns still count as distinct
// files but have no column of their own.
func CrossFileReduce(columns []string, minFiles int) worker.ReduceFunc {
	cols := append([]string(nil), columns...)
	known := make(map[string]bool, len(cols))
	for _, c := range cols {
		known[c] = true
	}
	return func(key string, values []string) (worker.KV, bool) {
		counts := make(map[string]int)
		for _, v := range values {
			counts[v]++
		}
		if len(counts) < minFiles {
			return worker.KV{}, false
		}
		for name := range counts {
			if !known[name] {
				log.Debugf("[CrossFile] %q seen in unconfigured file %q, not tallied", key, name)
			}
		}
		var b strings.Builder
		b.WriteString(key)
		for _, c := range cols {
			b.WriteString(", ")
			b.WriteString(strconv.Itoa(counts[c]))
		}
		return worker.KV{Key: b.String(), Value: ""}, true
	}
}

package mrapps

import (
	"strconv"
	"strings"

	"github.com/emptyOVO/textjobs/worker"
	log "github.com/sirupsen/logrus"
)

// CountMapper emits (word, 1) for every token.
func CountMapper() worker.Mapper {
	return TokenMapper{Tag: ConstTag("1"), Keep: NonEmpty}
}

func sumCounts(key string, values []string) int {
	total := 0
	for _, s := range values {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			log.Warnf("[Count] skip non-numeric value %q for key %q", s, key)
			continue
		}
		total += n
	}
	return total
}

// SumCombine pre-sums a unit's counts. Applying it any number of times
// leaves the final sum unchanged.
func SumCombine(key string, values []string) string {
	return strconv.Itoa(sumCounts(key, values))
}

// SumReduce emits the total count of a word.
func SumReduce(key string, values []string) (worker.KV, bool) {
	return worker.KV{Key: key, Value: strconv.Itoa(sumCounts(key, values))}, true
}

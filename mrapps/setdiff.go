package mrapps

import "github.com/emptyOVO/textjobs/worker"

// SetDifferenceReduce emits (word, "") when the word was tagged include
// somewhere and never tagged exclude.
func SetDifferenceReduce(include, exclude string) worker.ReduceFunc {
	return func(key string, values []string) (worker.KV, bool) {
		var seenInclude, seenExclude bool
		for _, v := range values {
			switch v {
			case include:
				seenInclude = true
			case exclude:
				seenExclude = true
			}
		}
		if seenInclude && !seenExclude {
			return worker.KV{Key: key, Value: ""}, true
		}
		return worker.KV{}, false
	}
}

package worker

import (
	"bufio"
	"io"
	"strings"
)

// WriteRecords writes one "key<TAB>value" line per record. The TAB is
// written even for an empty value, matching Hadoop text output.
func WriteRecords(w io.Writer, kvs []KV) error {
	bw := bufio.NewWriter(w)
	for _, kv := range kvs {
		bw.WriteString(kv.Key)
		bw.WriteByte('\t')
		bw.WriteString(kv.Value)
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodeRecords parses the output of WriteRecords. Lines without a
// separator are skipped.
func DecodeRecords(raw string) []KV {
	raw = strings.TrimRight(raw, "\n")
	if raw == "" {
		return nil
	}
	lines := strings.Split(raw, "\n")
	out := make([]KV, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		out = append(out, KV{Key: parts[0], Value: parts[1]})
	}
	return out
}

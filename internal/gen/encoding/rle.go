// Package encoding converts dense chunk arrays to the run-length wire form
// and assembles the external chunk records.
package encoding

import (
	"fmt"
	"strconv"
	"strings"
)

// EncodeRuns encodes ids as "value:count" pairs joined by commas, scanning
// in storage order. The encoding is total: a uniform array is one run.
func EncodeRuns(ids []uint16) string {
	if len(ids) == 0 {
		return ""
	}

	var b strings.Builder
	cur := ids[0]
	run := 1
	flush := func() {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(cur)))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(run))
	}
	for _, v := range ids[1:] {
		if v == cur {
			run++
			continue
		}
		flush()
		cur = v
		run = 1
	}
	flush()
	return b.String()
}

// DecodeRuns reconstructs the exact array EncodeRuns was given.
func DecodeRuns(s string) ([]uint16, error) {
	if s == "" {
		return nil, nil
	}
	var out []uint16
	for len(s) > 0 {
		pair := s
		if i := strings.IndexByte(s, ','); i >= 0 {
			pair, s = s[:i], s[i+1:]
		} else {
			s = ""
		}
		colon := strings.IndexByte(pair, ':')
		if colon < 0 {
			return nil, fmt.Errorf("rle: bad pair %q", pair)
		}
		val, err := strconv.ParseUint(pair[:colon], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("rle: bad value in %q: %w", pair, err)
		}
		run, err := strconv.Atoi(pair[colon+1:])
		if err != nil {
			return nil, fmt.Errorf("rle: bad count in %q: %w", pair, err)
		}
		if run <= 0 {
			return nil, fmt.Errorf("rle: non-positive count in %q", pair)
		}
		for i := 0; i < run; i++ {
			out = append(out, uint16(val))
		}
	}
	return out, nil
}

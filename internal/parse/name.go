package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	seqRe   = regexp.MustCompile(`\s+(\d+)\s*$`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// SeqWidth is the zero padding applied to generated sequence numbers.
const SeqWidth = 3

// ParsedName holds the structured data parsed from a machine's display name.
type ParsedName struct {
	Prefix string
	Seq    int
}

// FormatName builds the sequence name given to batch-created machines,
// e.g. "Carding 001".
func FormatName(prefix string, seq int) string {
	return fmt.Sprintf("%s %0*d", prefix, SeqWidth, seq)
}

// ParseName splits a machine name into its prefix and trailing sequence
// number. Names without a trailing number parse with Seq 0.
func ParseName(raw string) (ParsedName, error) {
	s := strings.TrimSpace(spaceRe.ReplaceAllString(raw, " "))
	if s == "" {
		return ParsedName{}, fmt.Errorf("unable to parse empty name: %q", raw)
	}

	if loc := seqRe.FindStringSubmatchIndex(s); loc != nil {
		// loc: [fullStart, fullEnd, group1Start, group1End]
		if n, err := strconv.Atoi(s[loc[2]:loc[3]]); err == nil {
			return ParsedName{Prefix: strings.TrimSpace(s[:loc[0]]), Seq: n}, nil
		}
	}
	return ParsedName{Prefix: s, Seq: 0}, nil
}

// Less orders names naturally: by prefix, then by numeric sequence, so that
// "Carding 2" sorts before "Carding 10".
func Less(a, b string) bool {
	pa, errA := ParseName(a)
	pb, errB := ParseName(b)
	if errA != nil || errB != nil {
		return a < b
	}
	if pa.Prefix != pb.Prefix {
		return pa.Prefix < pb.Prefix
	}
	return pa.Seq < pb.Seq
}

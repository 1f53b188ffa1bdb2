package stitch

// suffixPrefixOverlap returns the longest proper overlap where a
// suffix of five matches a prefix of three, or "" when none exists.
func suffixPrefixOverlap(five, three string) string {
	max := len(five)
	if len(three) < max {
		max = len(three)
	}
	for n := max - 1; n > 0; n-- {
		if five[len(five)-n:] == three[:n] {
			return three[:n]
		}
	}
	return ""
}

// FindVOverlap finds where an observed junction-spanning nucleotide
// sequence takes over from the germline V. Progressively shortened
// prefixes of the germline are scanned for a suffix equal to a prefix
// of the observed sequence, allowing a generous number of deletions
// from the V 3' end. It returns the germline truncated just before the
// best overlap, plus the overlap itself. The tie-break is deliberate
// and arbitrary: the longest overlap wins, and among equal lengths the
// first found in scanning order (least-shortened prefix first).
func FindVOverlap(vGermline, observed string) (trimmed, overlap string) {
	longest := ""
	index := 0
	low := len(vGermline) - len(observed) + 1
	for i := len(vGermline); i >= low && i > 0; i-- {
		o := suffixPrefixOverlap(vGermline[:i], observed)
		if len(o) > len(longest) {
			longest = o
			index = i
		}
	}
	if longest == "" {
		return vGermline, ""
	}
	return vGermline[:index-len(longest)], longest
}

// FindJOverlap finds where the germline J takes over from the observed
// junction-spanning sequence, scanning suffixes of the observed
// sequence against prefixes of progressively shifted germline. It
// returns the germline with the overlapping prefix removed, plus the
// overlap itself. Same tie-break as FindVOverlap (here: least-shifted
// germline first).
func FindJOverlap(observed, jGermline string) (trimmed, overlap string) {
	longest := ""
	index := 0
	for i := 0; i < len(jGermline); i++ {
		o := suffixPrefixOverlap(observed, jGermline[i:])
		if len(o) > len(longest) {
			longest = o
			index = i
		}
	}
	if longest == "" {
		return jGermline, ""
	}
	return jGermline[index+len(longest):], longest
}

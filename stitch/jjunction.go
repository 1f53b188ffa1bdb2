package stitch

import (
	"fmt"
	"strings"
)

// jFarMatch is the number of residues into the J beyond which a
// germline match is biologically implausible.
const jFarMatch = 22

// findCDR3CTerm returns the indices of all occurrences of chunk in
// jAA that sit at the conserved junction-terminal spot: the hit must
// be followed by a G one position after the chunk, or three positions
// after (non-strict), or both (strict GXG). Positions falling outside
// the translation reject the hit. Both placements are accepted in
// non-strict mode without a locus check, matching observed FGXG/WGXG
// variation.
func findCDR3CTerm(chunk, jAA string, strict bool) []int {
	var hits []int
	for i := 0; ; {
		idx := strings.Index(jAA[i:], chunk)
		if idx < 0 {
			break
		}
		pos := i + idx
		after := pos + len(chunk)
		g1 := after < len(jAA) && jAA[after] == 'G'
		g3 := after+2 < len(jAA) && jAA[after+2] == 'G'
		if strict {
			if g1 && g3 {
				hits = append(hits, pos)
			}
		} else if g1 || g3 {
			hits = append(hits, pos)
		}
		i = pos + 1
	}
	return hits
}

// ResolveJJunction determines the germline J contribution to the
// CDR3's C terminus. Starting from nearly the whole remaining CDR3 it
// searches successively shorter C-terminal chunks within the first
// jNTLen/3 residues of the J translation, motif-aware. The first chunk
// length with exactly one accepted hit fixes the split; an ambiguous
// single-residue chunk is retried under the strict GXG pattern. It
// returns the C-terminal nucleotides from the split onward and the
// number of remaining CDR3 residues that are non-templated.
func ResolveJJunction(cdr3CTerm, ctermNT, ctermAA string, jNTLen, warnThreshold int) (trimmed string, nonTemplated int, advisories []string, err error) {
	// Only search as far into the C terminus as the J gene stretches.
	searchLen := jNTLen / 3
	if searchLen > len(ctermAA) {
		searchLen = len(ctermAA)
	}
	window := ctermAA[:searchLen]

	for c := len(cdr3CTerm) - 1; c >= 1; c-- {
		chunk := cdr3CTerm[len(cdr3CTerm)-c:]
		hits := findCDR3CTerm(chunk, window, false)
		if len(hits) == 0 {
			continue
		}

		if len(hits) == 1 {
			idx := hits[0]
			if idx > jFarMatch {
				advisories = append(advisories, fmt.Sprintf(
					"germline match %q was found %d residues past the start of the J, which is an extremely unlikely receptor", chunk, idx))
			}
			if c <= warnThreshold {
				advisories = append(advisories, fmt.Sprintf(
					"a C-terminal CDR3:J germline match was found, but it was only the string %q", chunk))
			}
			return ctermNT[idx*3:], len(cdr3CTerm) - c, advisories, nil
		}

		// Multiple hits for a single conserved residue: retry with the
		// strict GXG pattern before giving up.
		if c == 1 {
			advisories = append(advisories, fmt.Sprintf(
				"a C-terminal CDR3:J germline match was found, but it was only the string %q, which occurs in %d positions", chunk, len(hits)))
			strictHits := findCDR3CTerm(chunk, window, true)
			if len(strictHits) == 1 {
				return ctermNT[strictHits[0]*3:], len(cdr3CTerm) - c, advisories, nil
			}
			return "", 0, advisories, ErrJJunctionAmbiguous
		}
		return "", 0, advisories, ErrJJunctionAmbiguous
	}
	return "", 0, advisories, ErrJJunctionNotFound
}

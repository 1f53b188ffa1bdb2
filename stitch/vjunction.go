package stitch

import (
	"github.com/tcrbuild/restitch/bio"
)

const (
	// maxVChunk bounds how many N-terminal CDR3 residues are searched
	// for in the V: germline V rarely contributes more than 4 residues
	// before the hypervariable loop begins.
	maxVChunk = 4
	// maxVDeletions bounds how far from the V 3' end a match may sit,
	// representing up to 10 deleted residues during recombination.
	maxVDeletions = 10
)

// TidyNTerm trims the germline N-terminal half (leader+V) to a
// multiple of 3 by dropping trailing partial-codon bases, and returns
// the trimmed sequence with its translation.
func TidyNTerm(ntermNT string) (string, string, error) {
	if m := len(ntermNT) % 3; m != 0 {
		ntermNT = ntermNT[:len(ntermNT)-m]
	}
	aa, err := bio.Translate(ntermNT)
	return ntermNT, aa, err
}

// ResolveVJunction determines the germline V contribution to the
// CDR3's N terminus. It searches for the longest CDR3 prefix (down
// from 4 residues) matching the V translation at each deletion offset
// from the 3' end, longest chunk first, and returns the germline
// trimmed to the matched boundary plus the number of CDR3 residues
// that are germline-encoded.
func ResolveVJunction(cdr3, ntermNT, ntermAA string) (trimmed string, cdr3NOffset int, err error) {
	maxChunk := maxVChunk
	if len(cdr3) < maxChunk {
		maxChunk = len(cdr3)
	}
	aaLen := len(ntermAA)

	for c := maxChunk; c >= 1; c-- {
		chunk := cdr3[:c]
		for v := 0; v < maxVDeletions; v++ {
			if aaLen-(c+v) < 0 {
				break
			}
			if ntermAA[aaLen-(c+v):aaLen-v] == chunk {
				return ntermNT[:(aaLen-v)*3], c, nil
			}
		}
	}
	return "", 0, ErrVJunctionNotFound
}

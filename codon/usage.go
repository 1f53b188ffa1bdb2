package codon

import (
	"bytes"
	"fmt"
)

// Usage maps an amino-acid symbol to the single codon chosen for
// back-translation. Residues absent from the map cannot be
// back-translated.
type Usage map[byte]string

// UnknownResidueError is returned when back-translation meets a
// residue with no chosen codon.
type UnknownResidueError struct {
	Residue byte
}

func (e *UnknownResidueError) Error() string {
	return fmt.Sprintf("no codon available for residue %q", e.Residue)
}

// Optimal reduces a frequency table to the most frequent codon per
// residue. Ties are broken by the order codons appeared in the source.
func Optimal(freqs Frequencies) Usage {
	u := make(Usage, len(freqs))
	for aa, codons := range freqs {
		best := codons[0]
		for _, cf := range codons[1:] {
			if cf.Freq > best.Freq {
				best = cf
			}
		}
		u[aa] = best.Codon
	}
	return u
}

// BackTranslate converts an amino-acid sequence into nucleotides,
// codon by codon. A residue with no table entry is an error, not a
// skip: a silently dropped codon would corrupt the reading frame of
// everything downstream.
func (u Usage) BackTranslate(aa string) (string, error) {
	var buffer bytes.Buffer
	for i := 0; i < len(aa); i++ {
		codon, ok := u[aa[i]]
		if !ok {
			return "", &UnknownResidueError{Residue: aa[i]}
		}
		buffer.WriteString(codon)
	}
	return buffer.String(), nil
}

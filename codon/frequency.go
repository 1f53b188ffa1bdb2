// Package codon handles codon usage frequencies and back-translation
// with the most frequent codon per residue.
package codon

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/tcrbuild/restitch/bio"
)

// parenRe strips the parenthesized counts of Kazusa-style tables.
var parenRe = regexp.MustCompile(`\(.+?\)`)

// CodonFreq is a single codon with its usage frequency.
type CodonFreq struct {
	Codon string
	Freq  float64
}

// Frequencies maps an amino-acid symbol to its codons and their
// frequencies, in the order they were read.
type Frequencies map[byte][]CodonFreq

// ReadFrequencies reads a Kazusa-formatted codon usage table from a
// reader: whitespace separated codon/frequency pairs, optionally with
// parenthesized raw counts, U or T alphabet.
func ReadFrequencies(rd io.Reader) (Frequencies, error) {
	freqs := make(Frequencies)

	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		line := parenRe.ReplaceAllString(scanner.Text(), "")
		line = strings.Replace(strings.ToUpper(line), "U", "T", -1)
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields)%2 != 0 {
			return nil, errors.New("unexpected format in codon usage file")
		}
		for i := 0; i < len(fields); i += 2 {
			codon := fields[i]
			aa, err := bio.Translate(codon)
			if err != nil {
				return nil, err
			}
			if len(aa) != 1 {
				return nil, errors.New("codon usage file entry is not a codon: " + codon)
			}
			f, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, err
			}
			freqs[aa[0]] = append(freqs[aa[0]], CodonFreq{Codon: codon, Freq: f})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return freqs, nil
}

// NResidues returns the number of distinct residues covered by the
// table (stop codons included if present).
func (f Frequencies) NResidues() int {
	return len(f)
}

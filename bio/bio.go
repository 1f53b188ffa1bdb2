// Package bio provides the genetic code, nucleotide translation and
// FASTA handling.
package bio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// Stop is the amino-acid symbol for a stop codon.
	Stop = '*'
	// Unknown is the symbol emitted for frame-padding codons
	// containing the placeholder base N.
	Unknown = '_'
)

var (
	// GeneticCode is a map, codon string (capital letters) is the key,
	// amino acids (capital letter) are values. Stop codons map to '*'.
	GeneticCode = map[string]byte{
		"ATA": 'I', "ATC": 'I', "ATT": 'I', "ATG": 'M',
		"ACA": 'T', "ACC": 'T', "ACG": 'T', "ACT": 'T',
		"AAC": 'N', "AAT": 'N', "AAA": 'K', "AAG": 'K',
		"AGC": 'S', "AGT": 'S', "AGA": 'R', "AGG": 'R',
		"CTA": 'L', "CTC": 'L', "CTG": 'L', "CTT": 'L',
		"CCA": 'P', "CCC": 'P', "CCG": 'P', "CCT": 'P',
		"CAC": 'H', "CAT": 'H', "CAA": 'Q', "CAG": 'Q',
		"CGA": 'R', "CGC": 'R', "CGG": 'R', "CGT": 'R',
		"GTA": 'V', "GTC": 'V', "GTG": 'V', "GTT": 'V',
		"GCA": 'A', "GCC": 'A', "GCG": 'A', "GCT": 'A',
		"GAC": 'D', "GAT": 'D', "GAA": 'E', "GAG": 'E',
		"GGA": 'G', "GGC": 'G', "GGG": 'G', "GGT": 'G',
		"TCA": 'S', "TCC": 'S', "TCG": 'S', "TCT": 'S',
		"TTC": 'F', "TTT": 'F', "TTA": 'L', "TTG": 'L',
		"TAC": 'Y', "TAT": 'Y', "TAA": '*', "TAG": '*',
		"TGC": 'C', "TGT": 'C', "TGA": '*', "TGG": 'W'}
	// RGeneticCode is mapping amino acids to their codons.
	RGeneticCode map[byte][]string
)

func init() {
	// initialize RGeneticCode
	RGeneticCode = make(map[byte][]string, 21)
	for codon, aa := range GeneticCode {
		RGeneticCode[aa] = append(RGeneticCode[aa], codon)
	}

	// Codons padded with a leading N (or NN) translate to the unknown
	// residue, so sequences prefixed for frame bookkeeping still
	// translate. NNN stays untranslatable.
	bases := []byte{'A', 'C', 'G', 'T'}
	for _, b2 := range bases {
		for _, b3 := range bases {
			GeneticCode["N"+string(b2)+string(b3)] = Unknown
		}
		GeneticCode["NN"+string(b2)] = Unknown
	}
}

// UnknownCodonError is returned when a triplet is neither in the
// genetic code nor an N-padding triplet.
type UnknownCodonError struct {
	Codon string
}

func (e *UnknownCodonError) Error() string {
	return fmt.Sprintf("cannot translate codon: %s", e.Codon)
}

// Translate translates a nucleotide sequence string into the protein
// string. Codons are read from position 0; a trailing partial codon is
// silently dropped. Stop codons translate to '*', N-padded codons to
// '_'. An UnknownCodonError is returned for any other unknown triplet.
func Translate(nseq string) (string, error) {
	var buffer bytes.Buffer

	// Convert all the letters to uppercase and U->T.
	nseq = strings.Replace(strings.ToUpper(nseq), "U", "T", -1)

	for i := 0; i+3 <= len(nseq); i += 3 {
		codon := nseq[i : i+3]
		aa, ok := GeneticCode[codon]
		if !ok {
			return buffer.String(), &UnknownCodonError{Codon: codon}
		}
		buffer.WriteByte(aa)
	}
	return buffer.String(), nil
}

// IsStopCodon tests if the string is a stop-codon (DNA alphabet,
// capital letters).
func IsStopCodon(codon string) bool {
	return GeneticCode[codon] == Stop
}

// IsDNA reports whether a sequence consists only of A/C/G/T/N
// (case-insensitive), i.e. is plausibly translatable DNA.
func IsDNA(seq string) bool {
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'A', 'C', 'G', 'T', 'N', 'a', 'c', 'g', 't', 'n':
		default:
			return false
		}
	}
	return true
}

// Sequence is a type which is intended for storing nucleotide or
// protein sequence with it's name.
type Sequence struct {
	Name     string
	Sequence string
}

// Sequences stores multiple sequences.
type Sequences []Sequence

// ParseFasta parses FASTA sequences from a reader.
func ParseFasta(rd io.Reader) (seqs Sequences, err error) {
	seqs = make(Sequences, 0, 10)
	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == '>' {
			seq := Sequence{Name: line[1:]}
			seqs = append(seqs, seq)
		} else {
			if len(seqs) == 0 {
				return nil, errors.New("sequence w/o prefix")
			}
			line = strings.ToUpper(strings.Replace(line, " ", "", -1))
			seqs[len(seqs)-1].Sequence += line
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}
	return
}

// Wrap inputs a string and wraps it so string length is n characters
// or less.
func Wrap(seq string, n int) (s string) {
	for i := 0; i < len(seq); i += n {
		end := i + n
		if end > len(seq) {
			end = len(seq)
		}
		s += seq[i:end] + "\n"
	}
	return
}

// String returns a sequence in FASTA format.
func (seq Sequence) String() (s string) {
	s = ">" + seq.Name + "\n" + Wrap(seq.Sequence, 60)
	return
}

// String returns sequences in FASTA format.
func (seqs Sequences) String() (s string) {
	for _, seq := range seqs {
		s += seq.String()
	}
	if len(s) > 0 {
		s = s[:len(s)-1]
	}
	return s
}

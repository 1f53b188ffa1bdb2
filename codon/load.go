package codon

import "os"

// LoadUsage reads a Kazusa-formatted codon usage file and reduces it
// to the optimal codon per residue. The residue count is returned so
// callers can warn about incomplete tables (under 20 residues,
// back-translation may fail).
func LoadUsage(path string) (Usage, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	freqs, err := ReadFrequencies(f)
	if err != nil {
		return nil, 0, err
	}
	return Optimal(freqs), freqs.NResidues(), nil
}

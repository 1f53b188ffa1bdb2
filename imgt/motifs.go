package imgt

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// JMotifs records, per J gene, the expected C-terminal CDR3 residue
// and whether that call is low confidence (no clear FGXG-like motif
// was found when the table was built).
type JMotifs struct {
	Residues      map[string]string
	LowConfidence map[string]bool
}

// CMotifs records, per C gene, the exon configuration label, the
// amino-acid motif starting the true constant-region translation, and
// an optional motif marking a late in-frame stop codon.
type CMotifs struct {
	Exons map[string]string
	Start map[string]string
	Stop  map[string]string
}

// LoadJMotifs reads <dataDir>/<species>/J-region-motifs.tsv: a header
// line, then J gene / residue / confident? columns.
func LoadJMotifs(dataDir, species string) (*JMotifs, error) {
	path := filepath.Join(dataDir, species, "J-region-motifs.tsv")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	jm := &JMotifs{
		Residues:      make(map[string]string),
		LowConfidence: make(map[string]bool),
	}

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if line == 1 {
			continue
		}
		bits := strings.Split(strings.TrimRight(scanner.Text(), "\r\n"), "\t")
		if len(bits) < 3 {
			return nil, fmt.Errorf("%s line %d: expected at least 3 columns", path, line)
		}
		jm.Residues[bits[0]] = bits[1]
		if bits[2] != "Y" {
			jm.LowConfidence[bits[0]] = true
		}
	}
	return jm, scanner.Err()
}

// LoadCMotifs reads <dataDir>/<species>/C-region-motifs.tsv: a header
// line, then C gene / exons / start motif / optional stop motif.
func LoadCMotifs(dataDir, species string) (*CMotifs, error) {
	path := filepath.Join(dataDir, species, "C-region-motifs.tsv")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cm := &CMotifs{
		Exons: make(map[string]string),
		Start: make(map[string]string),
		Stop:  make(map[string]string),
	}

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if line == 1 {
			continue
		}
		bits := strings.Split(strings.TrimRight(scanner.Text(), "\r\n"), "\t")
		if len(bits) < 3 {
			return nil, fmt.Errorf("%s line %d: expected at least 3 columns", path, line)
		}
		cm.Exons[bits[0]] = bits[1]
		cm.Start[bits[0]] = bits[2]
		if len(bits) > 3 && bits[3] != "" {
			cm.Stop[bits[0]] = bits[3]
		}
	}
	return cm, scanner.Err()
}

package imgt

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tcrbuild/restitch/bio"
)

// LoadLinkers reads the named multi-chain linker sequences from
// <dataDir>/linkers.tsv (name and sequence columns, no header).
func LoadLinkers(dataDir string) (map[string]string, error) {
	path := filepath.Join(dataDir, "linkers.tsv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s not detected, please check the linker file is present: %w", path, err)
	}
	defer f.Close()

	linkers := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		bits := strings.Split(strings.TrimRight(scanner.Text(), "\r\n"), "\t")
		if len(bits) < 2 {
			continue
		}
		linkers[bits[0]] = bits[1]
	}
	return linkers, scanner.Err()
}

// LinkerSeq resolves a linker field to a nucleotide sequence: either a
// known linker name, or a raw DNA sequence supplied by the user. A raw
// sequence whose length is not a multiple of 3 yields an advisory,
// since a downstream gene would fall out of frame unless that is
// deliberate.
func LinkerSeq(text string, linkers map[string]string) (string, []string, error) {
	if seq, ok := linkers[text]; ok {
		return seq, nil, nil
	}
	if bio.IsDNA(text) && text != "" {
		var advisories []string
		if len(text)%3 != 0 {
			advisories = append(advisories,
				fmt.Sprintf("length of linker sequence %q is not divisible by 3; if this was supposed to be a skip sequence the downstream gene will not be in frame", text))
		}
		return strings.ToUpper(text), advisories, nil
	}
	return "", nil, fmt.Errorf("%q is not a recognised linker name and does not seem to be DNA", text)
}

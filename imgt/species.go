package imgt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DataDir resolves the germline data directory: an explicit path
// wins, then the RESTITCH_DATA environment variable, then ./data.
func DataDir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("RESTITCH_DATA"); env != "" {
		return env
	}
	return "./data"
}

// SpeciesCovered lists the species directories available under the
// data directory.
func SpeciesCovered(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, err
	}
	var species []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || name == "kazusa" || name == "GUI-Examples" || strings.Contains(name, "__") {
			continue
		}
		species = append(species, name)
	}
	if len(species) == 0 {
		return nil, fmt.Errorf("no species data detected in %s, please install germline data first", dataDir)
	}
	sort.Strings(species)
	return species, nil
}

// InferSpecies guesses the species from an input file name, returning
// the empty string unless exactly one covered species matches.
func InferSpecies(path string, covered []string) string {
	base := strings.ToUpper(filepath.Base(path))
	var found []string
	for _, s := range covered {
		if strings.Contains(base, s) {
			found = append(found, s)
		}
	}
	if len(found) == 1 {
		return found[0]
	}
	return ""
}

// Chain determines the locus in use from the V and J gene names.
func Chain(v, j string) (string, error) {
	switch {
	case strings.HasPrefix(v, "TRB") && strings.HasPrefix(j, "TRB"):
		return "TRB", nil
	case (strings.HasPrefix(v, "TRA") || strings.HasPrefix(v, "TRD")) && strings.HasPrefix(j, "TRA"):
		return "TRA", nil
	case strings.HasPrefix(v, "TRG") && strings.HasPrefix(j, "TRG"):
		return "TRG", nil
	case strings.HasPrefix(v, "TRD") && strings.HasPrefix(j, "TRD"):
		return "TRD", nil
	case strings.HasPrefix(v, "IGH") && strings.HasPrefix(j, "IGH"):
		return "IGH", nil
	case strings.HasPrefix(v, "IGL") && strings.HasPrefix(j, "IGL"):
		return "IGL", nil
	case strings.HasPrefix(v, "IGK") && strings.HasPrefix(j, "IGK"):
		return "IGK", nil
	}
	return "", errors.New("please provide full gene names from the same chain, starting TR[ABGD] or IG[HKL]")
}

// DefaultConstant picks the conventional constant-region gene for a
// chain when none is given. Only human and mouse defaults are known;
// other species must specify the constant region explicitly.
func DefaultConstant(chain, species, j string) (string, error) {
	if species != "HUMAN" && species != "MOUSE" {
		return "", errors.New("constant region cannot be inferred for non-human/non-mouse receptors, please specify it explicitly")
	}

	switch chain {
	case "TRA":
		return "TRAC*01", nil
	case "TRB":
		if strings.Contains(j, "TRBJ1") {
			return "TRBC1*01", nil
		}
		if strings.Contains(j, "TRBJ2") {
			return "TRBC2*01", nil
		}
	case "TRD":
		return "TRDC*01", nil
	case "TRG":
		if species == "HUMAN" {
			if strings.Contains(j, "TRGJ2") || strings.Contains(j, "TRGJP2") {
				return "TRGC2*02", nil
			}
			return "TRGC1*01", nil
		}
		switch {
		case strings.Contains(j, "TRGJ1"):
			return "TRGC1*01", nil
		case strings.Contains(j, "TRGJ2"):
			return "TRGC2*01", nil
		case strings.Contains(j, "TRGJ3"):
			return "TRGC3*01", nil
		case strings.Contains(j, "TRGJ4"):
			return "TRGC4*01", nil
		}
	}
	return "", fmt.Errorf("no default constant region known for %s with J gene %s", chain, j)
}

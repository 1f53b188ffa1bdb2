package imgt

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Preferences maps region -> gene -> the allele to use when a gene
// call carries no explicit allele.
type Preferences map[Region]map[string]string

// LoadPreferredAlleles reads a TSV of preferred alleles (header line,
// then gene / allele / region / loci / source columns). Entries for
// other loci are silently skipped; invalid entries for this locus are
// reported as advisories and dropped rather than failing the load.
func LoadPreferredAlleles(path, locus string, cd *ChainData) (Preferences, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not find a preferred allele file at %s: %w", path, err)
	}
	defer f.Close()

	prefs := make(Preferences, len(Regions))
	for _, r := range Regions {
		prefs[r] = make(map[string]string)
	}

	var advisories []string
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if line == 1 {
			continue
		}
		bits := strings.Split(strings.TrimRight(scanner.Text(), "\r\n"), "\t")
		if len(bits) < 5 {
			return nil, nil, fmt.Errorf("%s line %d: expected 5 columns", path, line)
		}
		gene, allele, region := bits[0], bits[1], Region(bits[2])

		covered := strings.Split(strings.Replace(bits[3], " ", "", -1), ",")
		inLocus := false
		for _, l := range covered {
			if l == locus {
				inLocus = true
				break
			}
		}
		if !inLocus {
			continue
		}

		base := fmt.Sprintf("requested preferred allele %s*%s cannot be used for the %s region, ", gene, allele, region)
		switch {
		case !validRegion(region):
			advisories = append(advisories, base+"as this is not a valid region")
		case cd.Genes[region][gene] == nil:
			advisories = append(advisories, base+"as this gene is not present in the input data for this species")
		case cd.Genes[region][gene][allele] == "":
			advisories = append(advisories, base+"as this allele is not present in the input data for this species")
		case cd.Partial[gene][allele] != "":
			advisories = append(advisories, base+"as the sequence for this allele is flagged as partial")
		default:
			prefs[region][gene] = allele
		}
	}
	return prefs, advisories, scanner.Err()
}

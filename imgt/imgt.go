// Package imgt loads IMGT-derived germline gene data: per-locus FASTA
// files of leader/V/J/C sequences, motif tables and linkers.
package imgt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/op/go-logging"

	"github.com/tcrbuild/restitch/bio"
)

// log is the global logging variable.
var log = logging.MustGetLogger("imgt")

// Region is the type of a germline gene segment within a receptor
// chain, in IMGT nomenclature.
type Region string

// The four gene regions making up a full-length chain.
const (
	Leader   Region = "LEADER"
	Variable Region = "VARIABLE"
	Joining  Region = "JOINING"
	Constant Region = "CONSTANT"
)

// Regions lists the regions expected in a final receptor mRNA.
var Regions = []Region{Leader, Variable, Joining, Constant}

// Loci lists the supported receptor loci.
var Loci = []string{"TRA", "TRB", "TRG", "TRD", "IGH", "IGL", "IGK"}

// GeneSet maps region -> gene -> allele -> nucleotide sequence
// (uppercase A/C/G/T/N). Lookups are explicit: an absent gene is a
// reported condition, never an auto-created empty entry.
type GeneSet map[Region]map[string]map[string]string

// Functionality maps gene -> allele -> the IMGT functionality call
// (F/ORF/P, possibly bracketed).
type Functionality map[string]map[string]string

// Partials maps gene -> allele -> partial-sequence flag for genes
// excluded from the usable set.
type Partials map[string]map[string]string

// ChainData holds everything loaded for one species/locus pair.
type ChainData struct {
	Genes         GeneSet
	Functionality Functionality
	Partial       Partials
}

func validLocus(locus string) bool {
	for _, l := range Loci {
		if l == locus {
			return true
		}
	}
	return false
}

func validRegion(r Region) bool {
	for _, reg := range Regions {
		if reg == r {
			return true
		}
	}
	return false
}

// splitHeader extracts gene, allele, functionality, partial flag and
// sequence type from an IMGT-style FASTA header.
func splitHeader(header string) (gene, allele, functionality, partial string, region Region, err error) {
	bits := strings.Split(header, "|")
	if len(bits) < 14 {
		return "", "", "", "", "", fmt.Errorf("FASTA header does not fit the IMGT format: %s", header)
	}
	name := strings.SplitN(bits[1], "*", 2)
	if len(name) != 2 {
		return "", "", "", "", "", fmt.Errorf("FASTA header lacks a gene*allele name: %s", header)
	}
	tilde := strings.SplitN(header, "~", 2)
	if len(tilde) != 2 {
		return "", "", "", "", "", fmt.Errorf("FASTA header lacks a ~sequence-type field: %s", header)
	}
	return name[0], name[1], bits[3], bits[13], Region(tilde[1]), nil
}

// LoadChainData reads the germline data for one species/locus from
// <dataDir>/<species>/<locus>.fasta. Genes flagged as partial go to
// the exclusion set instead of the gene table.
func LoadChainData(dataDir, species, locus string) (*ChainData, error) {
	if !validLocus(locus) {
		return nil, fmt.Errorf("incorrect chain %q, cannot load IMGT data", locus)
	}

	path := filepath.Join(dataDir, species, locus+".fasta")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("no data for species/locus %s/%s: %w", species, locus, err)
	}
	defer f.Close()

	seqs, err := bio.ParseFasta(f)
	if err != nil {
		return nil, err
	}

	cd := &ChainData{
		Genes:         make(GeneSet, len(Regions)),
		Functionality: make(Functionality),
		Partial:       make(Partials),
	}
	for _, r := range Regions {
		cd.Genes[r] = make(map[string]map[string]string)
	}

	for _, seq := range seqs {
		gene, allele, fn, partial, region, err := splitHeader(seq.Name)
		if err != nil {
			return nil, err
		}
		if !validRegion(region) {
			return nil, fmt.Errorf("unknown sequence type %q in %s", region, path)
		}

		set(cd.Functionality, gene, allele, fn)

		if strings.Contains(partial, "partial") {
			set(cd.Partial, gene, allele, partial)
			continue
		}
		if cd.Genes[region][gene] == nil {
			cd.Genes[region][gene] = make(map[string]string)
		}
		cd.Genes[region][gene][allele] = strings.ToUpper(seq.Sequence)
	}

	for _, r := range Regions {
		if len(cd.Genes[r]) == 0 {
			return nil, fmt.Errorf("no entries for %s in IMGT data for %s/%s", r, species, locus)
		}
	}

	log.Debugf("loaded %s/%s: %d V genes, %d J genes", species, locus,
		len(cd.Genes[Variable]), len(cd.Genes[Joining]))
	return cd, nil
}

func set(m map[string]map[string]string, gene, allele, val string) {
	if m[gene] == nil {
		m[gene] = make(map[string]string)
	}
	m[gene][allele] = val
}

// AddAdditionalGenes supplements the chain data with sequences from an
// additional-genes FASTA file (non-database or engineered sequences).
// Its headers are |-split with gene*allele at field 1, an optional
// functionality at field 3 and a ~sequence-type suffix.
func (cd *ChainData) AddAdditionalGenes(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	seqs, err := bio.ParseFasta(f)
	if err != nil {
		return err
	}

	for _, seq := range seqs {
		bits := strings.Split(seq.Name, "|")
		if len(bits) < 5 {
			return fmt.Errorf("additional gene header doesn't have enough fields: %s", seq.Name)
		}
		if !strings.Contains(bits[1], "*") {
			return fmt.Errorf("additional gene name %q is not in gene*allele format: %s", bits[1], seq.Name)
		}
		name := strings.SplitN(strings.ToUpper(bits[1]), "*", 2)

		fn := "F"
		if bits[3] != "" {
			fn = stripFunctionality(bits[3])
		}

		tilde := strings.SplitN(seq.Name, "~", 2)
		if len(tilde) != 2 {
			return fmt.Errorf("additional gene header lacks the required '~' character: %s", seq.Name)
		}
		region := Region(tilde[1])
		if !validRegion(region) {
			return fmt.Errorf("additional gene header has invalid gene type %q: %s", region, seq.Name)
		}

		if cd.Genes[region][name[0]] == nil {
			cd.Genes[region][name[0]] = make(map[string]string)
		}
		cd.Genes[region][name[0]][name[1]] = strings.ToUpper(seq.Sequence)
		set(cd.Functionality, name[0], name[1], fn)
	}
	return nil
}

// stripFunctionality reduces an IMGT functionality string to its core
// F/ORF/P call, minus any brackets.
func stripFunctionality(s string) string {
	return strings.NewReplacer("(", "", ")", "", "[", "", "]", "").Replace(s)
}

// Pick resolves a gene call to a concrete germline sequence. An empty
// allele falls back to the preferred-allele table, then to *01.
// Single-digit alleles are zero-padded. Non-functional genes yield an
// advisory, absent genes or alleles an error.
func (cd *ChainData) Pick(region Region, gene, allele string, prefs Preferences) (seq, used string, advisories []string, err error) {
	if allele == "" {
		if p := prefs[region][gene]; p != "" {
			allele = p
		} else {
			allele = "01"
		}
	}
	if len(allele) == 1 {
		allele = "0" + allele
	}

	alleles, ok := cd.Genes[region][gene]
	if !ok {
		if len(cd.Partial[gene]) > 0 {
			return "", "", nil, fmt.Errorf("gene %s is only available as a partial sequence, cannot use for the %s region", gene, region)
		}
		return "", "", nil, fmt.Errorf("gene %s not found in the %s region data", gene, region)
	}
	seq, ok = alleles[allele]
	if !ok {
		if p := cd.Partial[gene][allele]; p != "" {
			return "", "", nil, fmt.Errorf("allele %s*%s is flagged %q, cannot use for the %s region", gene, allele, p, region)
		}
		return "", "", nil, fmt.Errorf("allele %s*%s not found in the %s region data", gene, allele, region)
	}

	if fn := stripFunctionality(cd.Functionality[gene][allele]); fn != "" && fn != "F" {
		advisories = append(advisories,
			fmt.Sprintf("gene %s*%s has the functionality label %q, and may not encode a working protein", gene, allele, fn))
	}

	return seq, gene + "*" + allele, advisories, nil
}

// SplitGene splits a gene call like TRBV19*01 into gene name and
// allele; the allele is empty when not specified.
func SplitGene(call string) (gene, allele string) {
	bits := strings.SplitN(call, "*", 2)
	if len(bits) == 2 {
		return bits[0], bits[1]
	}
	return call, ""
}

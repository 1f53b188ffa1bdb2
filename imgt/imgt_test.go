package imgt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fastaHeader builds an IMGT-style header: |-separated with the
// gene*allele in field 1, functionality in field 3, the partial flag in
// field 13 and the sequence type after a tilde.
func fastaHeader(name, fn, partial, region string) string {
	bits := make([]string, 14)
	bits[0] = "X00000"
	bits[1] = name
	bits[2] = "Homo sapiens"
	bits[3] = fn
	bits[13] = partial + "~" + region
	return strings.Join(bits, "|")
}

func writeTestData(tst *testing.T) string {
	dataDir := tst.TempDir()
	human := filepath.Join(dataDir, "HUMAN")
	if err := os.MkdirAll(filepath.Join(dataDir, "kazusa"), 0777); err != nil {
		tst.Fatal(err)
	}
	if err := os.MkdirAll(human, 0777); err != nil {
		tst.Fatal(err)
	}

	fasta := strings.Join([]string{
		">" + fastaHeader("TRBV7-9*01", "F", "", "LEADER"),
		"ATGGGC",
		">" + fastaHeader("TRBV7-9*01", "F", "", "VARIABLE"),
		"gaagattgtgccagcagttat",
		">" + fastaHeader("TRBV7-9*02", "ORF", "", "VARIABLE"),
		"GAAGATTGTGCCAGCAGTTAC",
		">" + fastaHeader("TRBV5-2*01", "P", "partial in 3'", "VARIABLE"),
		"GAAGAT",
		">" + fastaHeader("TRBJ2-3*01", "F", "", "JOINING"),
		"GCTAATACTCAGTATTTTGGCCCAGGAACCAGGCTGCTGGTG",
		">" + fastaHeader("TRBC2*01", "F", "", "CONSTANT"),
		"GAGGACCTGAAAAAC",
	}, "\n")
	if err := os.WriteFile(filepath.Join(human, "TRB.fasta"), []byte(fasta), 0666); err != nil {
		tst.Fatal(err)
	}
	return dataDir
}

func TestLoadChainData(tst *testing.T) {
	dataDir := writeTestData(tst)

	cd, err := LoadChainData(dataDir, "HUMAN", "TRB")
	if err != nil {
		tst.Fatal("Error loading chain data:", err)
	}
	if cd.Genes[Variable]["TRBV7-9"]["01"] != "GAAGATTGTGCCAGCAGTTAT" {
		tst.Error("Wrong V sequence:", cd.Genes[Variable]["TRBV7-9"]["01"])
	}
	if len(cd.Genes[Variable]["TRBV7-9"]) != 2 {
		tst.Error("Expected 2 TRBV7-9 alleles")
	}

	// partial sequences are excluded from the usable set
	if cd.Genes[Variable]["TRBV5-2"] != nil {
		tst.Error("Partial gene should not be usable")
	}
	if cd.Partial["TRBV5-2"]["01"] != "partial in 3'" {
		tst.Error("Partial flag not recorded:", cd.Partial["TRBV5-2"])
	}

	if _, err = LoadChainData(dataDir, "HUMAN", "TRQ"); err == nil {
		tst.Error("Expected an error for an invalid locus")
	}
	if _, err = LoadChainData(dataDir, "MOUSE", "TRB"); err == nil {
		tst.Error("Expected an error for a species with no data")
	}
}

func TestPick(tst *testing.T) {
	dataDir := writeTestData(tst)
	cd, err := LoadChainData(dataDir, "HUMAN", "TRB")
	if err != nil {
		tst.Fatal("Error loading chain data:", err)
	}

	// no allele defaults to *01
	seq, used, advisories, err := cd.Pick(Variable, "TRBV7-9", "", nil)
	if err != nil || used != "TRBV7-9*01" || seq != "GAAGATTGTGCCAGCAGTTAT" {
		tst.Error("Error picking the default allele:", used, err)
	}
	if len(advisories) != 0 {
		tst.Error("Unexpected advisories:", advisories)
	}

	// single-digit alleles are zero padded
	_, used, _, err = cd.Pick(Variable, "TRBV7-9", "1", nil)
	if err != nil || used != "TRBV7-9*01" {
		tst.Error("Error padding the allele:", used, err)
	}

	// non-F functionality yields an advisory
	_, used, advisories, err = cd.Pick(Variable, "TRBV7-9", "02", nil)
	if err != nil || used != "TRBV7-9*02" {
		tst.Error("Error picking allele 02:", used, err)
	}
	if len(advisories) != 1 || !strings.Contains(advisories[0], "ORF") {
		tst.Error("Expected a functionality advisory, got", advisories)
	}

	// preferred alleles replace the *01 default
	prefs := Preferences{Variable: {"TRBV7-9": "02"}}
	_, used, _, err = cd.Pick(Variable, "TRBV7-9", "", prefs)
	if err != nil || used != "TRBV7-9*02" {
		tst.Error("Error picking the preferred allele:", used, err)
	}

	if _, _, _, err = cd.Pick(Variable, "TRBV99", "", nil); err == nil {
		tst.Error("Expected an error for an unknown gene")
	}
	if _, _, _, err = cd.Pick(Variable, "TRBV7-9", "09", nil); err == nil {
		tst.Error("Expected an error for an unknown allele")
	}

	// partial-only genes are reported as such
	_, _, _, err = cd.Pick(Variable, "TRBV5-2", "", nil)
	if err == nil || !strings.Contains(err.Error(), "partial") {
		tst.Error("Expected a partial-sequence error, got", err)
	}
}

func TestAddAdditionalGenes(tst *testing.T) {
	dataDir := writeTestData(tst)
	cd, err := LoadChainData(dataDir, "HUMAN", "TRB")
	if err != nil {
		tst.Fatal("Error loading chain data:", err)
	}

	extra := ">custom|TRBV99-1*01|test|F|x~VARIABLE\nTGTGCCAGC\n"
	path := filepath.Join(dataDir, "additional-genes.fasta")
	if err = os.WriteFile(path, []byte(extra), 0666); err != nil {
		tst.Fatal(err)
	}

	if err = cd.AddAdditionalGenes(path); err != nil {
		tst.Fatal("Error adding additional genes:", err)
	}
	if cd.Genes[Variable]["TRBV99-1"]["01"] != "TGTGCCAGC" {
		tst.Error("Additional gene not loaded:", cd.Genes[Variable]["TRBV99-1"])
	}
}

func TestSplitGene(tst *testing.T) {
	gene, allele := SplitGene("TRBV19*01")
	if gene != "TRBV19" || allele != "01" {
		tst.Error("Error splitting TRBV19*01:", gene, allele)
	}
	gene, allele = SplitGene("TRBV19")
	if gene != "TRBV19" || allele != "" {
		tst.Error("Error splitting TRBV19:", gene, allele)
	}
}

func TestChain(tst *testing.T) {
	for _, tc := range []struct{ v, j, chain string }{
		{"TRBV19", "TRBJ2-3", "TRB"},
		{"TRAV1-2", "TRAJ33", "TRA"},
		{"TRDV2", "TRAJ29", "TRA"},
		{"TRGV9", "TRGJ1", "TRG"},
		{"TRDV1", "TRDJ1", "TRD"},
		{"IGHV1-2", "IGHJ4", "IGH"},
	} {
		chain, err := Chain(tc.v, tc.j)
		if err != nil || chain != tc.chain {
			tst.Error("Error determining the chain for", tc.v, tc.j, ":", chain, err)
		}
	}

	if _, err := Chain("TRBV19", "TRAJ33"); err == nil {
		tst.Error("Expected an error for mixed loci")
	}
}

func TestDefaultConstant(tst *testing.T) {
	c, err := DefaultConstant("TRB", "HUMAN", "TRBJ1-1")
	if err != nil || c != "TRBC1*01" {
		tst.Error("Wrong TRBJ1 default:", c, err)
	}
	c, err = DefaultConstant("TRB", "HUMAN", "TRBJ2-3")
	if err != nil || c != "TRBC2*01" {
		tst.Error("Wrong TRBJ2 default:", c, err)
	}
	c, err = DefaultConstant("TRA", "MOUSE", "TRAJ33")
	if err != nil || c != "TRAC*01" {
		tst.Error("Wrong TRA default:", c, err)
	}
	c, err = DefaultConstant("TRG", "HUMAN", "TRGJ2")
	if err != nil || c != "TRGC2*02" {
		tst.Error("Wrong human TRGJ2 default:", c, err)
	}
	c, err = DefaultConstant("TRG", "MOUSE", "TRGJ3")
	if err != nil || c != "TRGC3*01" {
		tst.Error("Wrong mouse TRGJ3 default:", c, err)
	}

	if _, err = DefaultConstant("TRB", "RHESUS", "TRBJ1-1"); err == nil {
		tst.Error("Expected an error for a species with no defaults")
	}
}

func TestMotifs(tst *testing.T) {
	dataDir := writeTestData(tst)
	human := filepath.Join(dataDir, "HUMAN")

	jTSV := "Gene\tResidue\tConfident\nTRBJ2-3*01\tF\tY\nTRAJ33*01\tW\tN\n"
	if err := os.WriteFile(filepath.Join(human, "J-region-motifs.tsv"), []byte(jTSV), 0666); err != nil {
		tst.Fatal(err)
	}
	jm, err := LoadJMotifs(dataDir, "HUMAN")
	if err != nil {
		tst.Fatal("Error loading J motifs:", err)
	}
	if jm.Residues["TRBJ2-3*01"] != "F" || jm.LowConfidence["TRBJ2-3*01"] {
		tst.Error("Wrong TRBJ2-3 motif:", jm.Residues["TRBJ2-3*01"])
	}
	if !jm.LowConfidence["TRAJ33*01"] {
		tst.Error("TRAJ33 motif should be low confidence")
	}

	cTSV := "Gene\tExons\tStart\tStop\nTRBC2*01\tEX1+EX2+EX3+EX4\tEDLKN\t\nTRGC1*01\tEX1+EX2+EX3\tDKQLD\t*AA\n"
	if err := os.WriteFile(filepath.Join(human, "C-region-motifs.tsv"), []byte(cTSV), 0666); err != nil {
		tst.Fatal(err)
	}
	cm, err := LoadCMotifs(dataDir, "HUMAN")
	if err != nil {
		tst.Fatal("Error loading C motifs:", err)
	}
	if cm.Start["TRBC2*01"] != "EDLKN" || cm.Stop["TRBC2*01"] != "" {
		tst.Error("Wrong TRBC2 motifs:", cm.Start["TRBC2*01"], cm.Stop["TRBC2*01"])
	}
	if cm.Stop["TRGC1*01"] != "*AA" {
		tst.Error("Wrong TRGC1 stop motif:", cm.Stop["TRGC1*01"])
	}

	if _, err = LoadJMotifs(dataDir, "MOUSE"); err == nil {
		tst.Error("Expected an error for a missing motif table")
	}
}

func TestLoadPreferredAlleles(tst *testing.T) {
	dataDir := writeTestData(tst)
	cd, err := LoadChainData(dataDir, "HUMAN", "TRB")
	if err != nil {
		tst.Fatal("Error loading chain data:", err)
	}

	tsv := strings.Join([]string{
		"Gene\tAllele\tRegion\tLoci\tSource",
		"TRBV7-9\t02\tVARIABLE\tTRB\ttest",
		"TRAV1-2\t02\tVARIABLE\tTRA\ttest",
		"TRBV99\t01\tVARIABLE\tTRB\ttest",
	}, "\n") + "\n"
	path := filepath.Join(dataDir, "prefs.tsv")
	if err = os.WriteFile(path, []byte(tsv), 0666); err != nil {
		tst.Fatal(err)
	}

	prefs, advisories, err := LoadPreferredAlleles(path, "TRB", cd)
	if err != nil {
		tst.Fatal("Error loading preferred alleles:", err)
	}
	if prefs[Variable]["TRBV7-9"] != "02" {
		tst.Error("Preferred allele not loaded:", prefs[Variable])
	}
	// the TRA entry is skipped silently, the unknown gene is reported
	if len(advisories) != 1 || !strings.Contains(advisories[0], "TRBV99") {
		tst.Error("Expected one advisory for the unknown gene, got", advisories)
	}

	if _, _, err = LoadPreferredAlleles(filepath.Join(dataDir, "missing.tsv"), "TRB", cd); err == nil {
		tst.Error("Expected an error for a missing preferences file")
	}
}

func TestLinkers(tst *testing.T) {
	dataDir := writeTestData(tst)
	tsv := "P2A\tGGAAGCGGAGCTACTAACTTCAGC\nT2A\tGAGGGCAGAGGAAGTCTGCTAACA\n"
	if err := os.WriteFile(filepath.Join(dataDir, "linkers.tsv"), []byte(tsv), 0666); err != nil {
		tst.Fatal(err)
	}

	linkers, err := LoadLinkers(dataDir)
	if err != nil {
		tst.Fatal("Error loading linkers:", err)
	}
	if len(linkers) != 2 || linkers["P2A"] != "GGAAGCGGAGCTACTAACTTCAGC" {
		tst.Error("Wrong linkers:", linkers)
	}

	seq, advisories, err := LinkerSeq("P2A", linkers)
	if err != nil || seq != linkers["P2A"] || len(advisories) != 0 {
		tst.Error("Error resolving a named linker:", seq, advisories, err)
	}

	// raw DNA passes through, with a frame note when not codon sized
	seq, advisories, err = LinkerSeq("acgtacg", linkers)
	if err != nil || seq != "ACGTACG" {
		tst.Error("Error resolving a raw linker:", seq, err)
	}
	if len(advisories) != 1 || !strings.Contains(advisories[0], "not divisible by 3") {
		tst.Error("Expected a frame advisory, got", advisories)
	}

	if _, _, err = LinkerSeq("NOTALINKER", linkers); err == nil {
		tst.Error("Expected an error for an unknown linker name")
	}
}

func TestDataDir(tst *testing.T) {
	if DataDir("/tmp/x") != "/tmp/x" {
		tst.Error("Explicit path should win")
	}

	tst.Setenv("RESTITCH_DATA", "/tmp/env")
	if DataDir("") != "/tmp/env" {
		tst.Error("Environment variable should be used")
	}

	tst.Setenv("RESTITCH_DATA", "")
	if DataDir("") != "./data" {
		tst.Error("Expected the ./data fallback")
	}
}

func TestSpeciesCovered(tst *testing.T) {
	dataDir := writeTestData(tst)
	if err := os.MkdirAll(filepath.Join(dataDir, "MOUSE"), 0777); err != nil {
		tst.Fatal(err)
	}

	covered, err := SpeciesCovered(dataDir)
	if err != nil {
		tst.Fatal("Error listing species:", err)
	}
	if len(covered) != 2 || covered[0] != "HUMAN" || covered[1] != "MOUSE" {
		tst.Error("Wrong species list:", covered)
	}

	if s := InferSpecies("/some/path/human-tcrs.tsv", covered); s != "HUMAN" {
		tst.Error("Error inferring the species:", s)
	}
	if s := InferSpecies("/some/path/tcrs.tsv", covered); s != "" {
		tst.Error("Expected no inference, got", s)
	}
}

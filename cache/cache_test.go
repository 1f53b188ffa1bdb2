package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tcrbuild/restitch/imgt"
)

func testChainData() *imgt.ChainData {
	return &imgt.ChainData{
		Genes: imgt.GeneSet{
			imgt.Leader:   {"TRBV7-9": {"01": "ATGGGC"}},
			imgt.Variable: {"TRBV7-9": {"01": "GAAGATTGT"}},
			imgt.Joining:  {"TRBJ2-3": {"01": "GCTAATACT"}},
			imgt.Constant: {"TRBC2": {"01": "GAGGAC"}},
		},
		Functionality: imgt.Functionality{"TRBV7-9": {"01": "F"}},
		Partial:       imgt.Partials{},
	}
}

func TestChainDataRoundTrip(tst *testing.T) {
	db, err := Open(filepath.Join(tst.TempDir(), "genes.db"))
	if err != nil {
		tst.Fatal("Error opening the cache:", err)
	}
	defer db.Close()

	// a miss is nil, not an error
	cd, err := LoadChainData(db, "HUMAN", "TRB")
	if err != nil || cd != nil {
		tst.Error("Expected a cache miss:", cd, err)
	}

	if err = SaveChainData(db, "HUMAN", "TRB", testChainData()); err != nil {
		tst.Fatal("Error saving a gene set:", err)
	}

	cd, err = LoadChainData(db, "HUMAN", "TRB")
	if err != nil || cd == nil {
		tst.Fatal("Error loading a gene set:", cd, err)
	}
	if cd.Genes[imgt.Variable]["TRBV7-9"]["01"] != "GAAGATTGT" {
		tst.Error("Wrong cached sequence:", cd.Genes[imgt.Variable])
	}
	if cd.Functionality["TRBV7-9"]["01"] != "F" {
		tst.Error("Wrong cached functionality:", cd.Functionality)
	}

	// a different locus is still a miss
	cd, err = LoadChainData(db, "HUMAN", "TRA")
	if err != nil || cd != nil {
		tst.Error("Expected a miss for another locus:", cd, err)
	}
}

func TestNilDB(tst *testing.T) {
	if err := SaveChainData(nil, "HUMAN", "TRB", testChainData()); err != nil {
		tst.Error("Saving to a nil database should be a no-op:", err)
	}
	cd, err := LoadChainData(nil, "HUMAN", "TRB")
	if err != nil || cd != nil {
		tst.Error("Loading from a nil database should be a miss:", cd, err)
	}
}

// imgtHeader builds a minimal IMGT-style FASTA header.
func imgtHeader(name, region string) string {
	bits := make([]string, 14)
	bits[1] = name
	bits[3] = "F"
	bits[13] = "~" + region
	return ">" + strings.Join(bits, "|")
}

func TestLoadOrParse(tst *testing.T) {
	dataDir := tst.TempDir()
	human := filepath.Join(dataDir, "HUMAN")
	if err := os.MkdirAll(human, 0777); err != nil {
		tst.Fatal(err)
	}
	fasta := strings.Join([]string{
		imgtHeader("TRBV7-9*01", "LEADER"), "ATGGGC",
		imgtHeader("TRBV7-9*01", "VARIABLE"), "GAAGATTGT",
		imgtHeader("TRBJ2-3*01", "JOINING"), "GCTAATACT",
		imgtHeader("TRBC2*01", "CONSTANT"), "GAGGAC",
	}, "\n")
	if err := os.WriteFile(filepath.Join(human, "TRB.fasta"), []byte(fasta), 0666); err != nil {
		tst.Fatal(err)
	}

	db, err := Open(filepath.Join(tst.TempDir(), "genes.db"))
	if err != nil {
		tst.Fatal("Error opening the cache:", err)
	}
	defer db.Close()

	cd, err := LoadOrParse(db, dataDir, "HUMAN", "TRB")
	if err != nil {
		tst.Fatal("Error parsing through the cache:", err)
	}
	if cd.Genes[imgt.Variable]["TRBV7-9"]["01"] != "GAAGATTGT" {
		tst.Error("Wrong parsed sequence:", cd.Genes[imgt.Variable])
	}

	// the parse should now be cached: remove the data and load again
	if err = os.Remove(filepath.Join(human, "TRB.fasta")); err != nil {
		tst.Fatal(err)
	}
	cd, err = LoadOrParse(db, dataDir, "HUMAN", "TRB")
	if err != nil || cd == nil {
		tst.Fatal("Expected a cache hit after removing the data:", err)
	}
	if cd.Genes[imgt.Joining]["TRBJ2-3"]["01"] != "GCTAATACT" {
		tst.Error("Wrong cached sequence:", cd.Genes[imgt.Joining])
	}
}

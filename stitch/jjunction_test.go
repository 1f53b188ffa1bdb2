package stitch

import (
	"errors"
	"strings"
	"testing"
)

// J+C used throughout: ANTQYFGPGTRLLV from the J, EDLKN from the C
const (
	jNT     = "GCTAATACTCAGTATTTTGGCCCAGGAACCAGGCTGCTGGTG"
	cNT     = "GAGGACCTGAAAAAC"
	ctermNT = jNT + cNT
	ctermAA = "ANTQYFGPGTRLLVEDLKN"
)

func TestResolveJJunction(tst *testing.T) {
	trimmed, nonTemplated, advisories, err := ResolveJJunction("YLNTQYF", ctermNT, ctermAA, len(jNT), 3)
	if err != nil {
		tst.Error("Error resolving the J junction:", err)
	}
	if nonTemplated != 2 {
		tst.Error("Expected 2 non-templated residues, got", nonTemplated)
	}
	if trimmed != ctermNT[3:] {
		tst.Error("Wrong trimmed germline:", trimmed)
	}
	if len(advisories) != 0 {
		tst.Error("Unexpected advisories:", advisories)
	}
}

func TestResolveJJunctionShortMatch(tst *testing.T) {
	// only the conserved F matches, which is worth a note
	trimmed, nonTemplated, advisories, err := ResolveJJunction("LF", ctermNT, ctermAA, len(jNT), 3)
	if err != nil {
		tst.Error("Error resolving a single-residue match:", err)
	}
	if nonTemplated != 1 || trimmed != ctermNT[15:] {
		tst.Error("Wrong single-residue split:", nonTemplated, trimmed)
	}
	if len(advisories) != 1 || !strings.Contains(advisories[0], "only the string") {
		tst.Error("Expected a short-match advisory, got", advisories)
	}
}

func TestResolveJJunctionStrictRetry(tst *testing.T) {
	// two relaxed hits for F, but only the first fits the strict GXG
	nt := "TTTGGCGCTGGCTTTGGCCAGAAAACCAGG"
	aa := "FGAGFGQKTR"

	trimmed, nonTemplated, advisories, err := ResolveJJunction("AF", nt, aa, len(nt), 0)
	if err != nil {
		tst.Error("Error resolving with the strict pattern:", err)
	}
	if nonTemplated != 1 || trimmed != nt {
		tst.Error("Wrong strict-pattern split:", nonTemplated, trimmed)
	}
	if len(advisories) != 1 || !strings.Contains(advisories[0], "occurs in 2 positions") {
		tst.Error("Expected a multi-position advisory, got", advisories)
	}
}

func TestResolveJJunctionAmbiguous(tst *testing.T) {
	// two hits even under the strict GXG pattern
	nt := "TTTGGCGCTGGCTTTGGCCAGGGCACCAAACTG"
	aa := "FGAGFGQGTKL"

	_, _, _, err := ResolveJJunction("AF", nt, aa, len(nt), 0)
	if !errors.Is(err, ErrJJunctionAmbiguous) {
		tst.Error("Expected ErrJJunctionAmbiguous, got", err)
	}

	// a multi-residue chunk found twice is ambiguous right away
	nt = "AATACTCAGTATTTTGGCAATACTCAGTATTTTGGC"
	aa = "NTQYFGNTQYFG"

	_, _, _, err = ResolveJJunction("GTQYF", nt, aa, len(nt), 0)
	if !errors.Is(err, ErrJJunctionAmbiguous) {
		tst.Error("Expected ErrJJunctionAmbiguous for a repeated chunk, got", err)
	}
}

func TestResolveJJunctionNotFound(tst *testing.T) {
	_, _, _, err := ResolveJJunction("WW", ctermNT, ctermAA, len(jNT), 3)
	if !errors.Is(err, ErrJJunctionNotFound) {
		tst.Error("Expected ErrJJunctionNotFound, got", err)
	}
}

func TestResolveJJunctionFarMatch(tst *testing.T) {
	// a hit deep into the J is possible but extremely unlikely
	nt := strings.Repeat("CTG", 23) + "CAGTATTTTGGC"
	aa := strings.Repeat("L", 23) + "QYFG"

	trimmed, nonTemplated, advisories, err := ResolveJJunction("AQYF", nt, aa, len(nt), 3)
	if err != nil {
		tst.Error("Error resolving a far match:", err)
	}
	if nonTemplated != 1 || trimmed != nt[69:] {
		tst.Error("Wrong far-match split:", nonTemplated, trimmed)
	}
	if len(advisories) != 2 ||
		!strings.Contains(advisories[0], "extremely unlikely") ||
		!strings.Contains(advisories[1], "only the string") {
		tst.Error("Expected far-match and short-match advisories, got", advisories)
	}
}

package stitch

import (
	"fmt"
	"strings"

	"github.com/tcrbuild/restitch/bio"
	"github.com/tcrbuild/restitch/imgt"
)

// expectedCFrame is the reading frame conventionally expected for the
// J+C concatenation.
const expectedCFrame = 2

// findStop returns the position of the first stop codon in a
// translation, or the full length when there is none.
func findStop(aa string) int {
	if i := strings.IndexByte(aa, bio.Stop); i >= 0 {
		return i
	}
	return len(aa)
}

// TidyCTerm finds the correct translation frame for the germline
// C-terminal half (J+C). When the C gene has a registered start motif
// (and checks are not skipped) the frame whose translation contains
// that motif is selected, truncating past a registered stop motif to
// drop trailing untranslated bases. Otherwise the frame with the
// longest run before its first stop codon wins, with an advisory when
// it is not the conventional one. Four candidate offsets are tried;
// ErrNoValidFrame is returned if the motif is found in none of them.
func TidyCTerm(ctermNT string, skip bool, motifs *imgt.CMotifs, cGene string) (string, string, []string, error) {
	var advisories []string

	start := ""
	if motifs != nil {
		start = motifs.Start[cGene]
	}
	// Both paths can apply at once: with a registered motif the motif
	// match wins even when checks are skipped, and the heuristic backs
	// it up when the motif is absent.
	heuristic := skip || start == ""
	useMotif := start != ""

	translations := make([]string, 0, 4)
	for f := 0; f < 4 && f <= len(ctermNT); f++ {
		translated, err := bio.Translate(ctermNT[f:])
		if err != nil {
			return "", "", advisories, err
		}
		translations = append(translations, translated)

		if useMotif && strings.Contains(translated, start) {
			// Account for late stop codons in a terminal UTR exon.
			if stop := motifs.Stop[cGene]; stop != "" {
				if idx := strings.Index(translated, stop); idx >= 0 {
					// Offset by the frame to prevent trailing nt.
					ctermNT = ctermNT[:idx*3+f]
					translated, err = bio.Translate(ctermNT[f:])
					if err != nil {
						return "", "", advisories, err
					}
					if !strings.Contains(motifs.Exons[cGene], "UTR") {
						advisories = append(advisories, fmt.Sprintf(
							"the constant region %s contains a stop codon, yet its exon label (%s) doesn't suggest there should be one - this could indicate incorrect exon annotations", cGene, motifs.Exons[cGene]))
					}
				}
			}
			return ctermNT[f:], translated, advisories, nil
		}
	}

	if heuristic {
		best, pos := 0, -1
		for f, tr := range translations {
			if s := findStop(tr); s > pos {
				best, pos = f, s
			}
		}
		if best == expectedCFrame {
			advisories = append(advisories, fmt.Sprintf(
				"expected reading frame %d used for translating the C terminus", best))
		} else {
			advisories = append(advisories, fmt.Sprintf(
				"reading frame %d used for translating the C terminus instead of the expected frame %d - double check the output sequence", best, expectedCFrame))
		}
		return ctermNT[best:], translations[best], advisories, nil
	}
	return "", "", advisories, ErrNoValidFrame
}

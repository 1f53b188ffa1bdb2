// Package stitch assembles full-length coding nucleotide sequences for
// immune-receptor chains from gene calls and a CDR3 junction.
//
// The germline V and J segments only partially encode the CDR3; the
// remainder is non-templated. Stitching locates the germline/junction
// split points on both sides, back-translates the non-templated gap
// with the most frequent codon per residue, and frame-corrects the
// constant region, so that the assembled sequence translates back to
// the input CDR3 exactly.
package stitch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/op/go-logging"

	"github.com/tcrbuild/restitch/bio"
	"github.com/tcrbuild/restitch/codon"
	"github.com/tcrbuild/restitch/imgt"
)

// log is the global logging variable.
var log = logging.MustGetLogger("stitch")

// minSeamlessOverlap is the overlap length below which a seamless
// splice is reported as thin.
const minSeamlessOverlap = 10

// Params describes one receptor chain to assemble. Gene calls may
// carry an allele (TRBV19*01) or not (TRBV19, defaulting to *01 or the
// preferred allele). In seamless mode CDR3 holds an observed
// nucleotide sequence spanning the junction instead of amino acids.
type Params struct {
	Name string

	V, J, C string
	// L names the gene whose leader to use; empty means the V gene's
	// own (proximal) leader.
	L string

	CDR3 string

	// Optional extra sequence appended untranslated-as-given to the 5'
	// or 3' end of the assembly.
	FivePrime, ThreePrime string

	Seamless    bool
	SkipCChecks bool
}

// Result is the outcome of one successful stitch: the full coding
// nucleotide sequence, the number of leading pad bases needed to
// translate it in frame, the advisory messages collected along the
// way, and the concrete gene alleles used.
type Result struct {
	Sequence   string
	Offset     int
	Advisories []string

	Name                       string
	VUsed, JUsed, CUsed, LUsed string
	CDR3                       string
	FivePrime, ThreePrime      string
}

// AA returns the translation of the assembled sequence from the
// chain's true reading frame, padding the frame offset with N.
func (r *Result) AA() (string, error) {
	return bio.Translate(strings.Repeat("N", r.Offset) + r.Sequence)
}

// Stitch assembles the coding sequence for one chain. Stages run
// strictly in order: tidy the germline N terminus, frame-correct the
// germline C terminus, resolve the V and J junctions (or splice an
// observed sequence seamlessly), back-translate the non-templated gap,
// and concatenate. The first failing stage aborts the call; advisories
// never alter the computed output.
func Stitch(p Params, data *imgt.ChainData, prefs imgt.Preferences, usage codon.Usage,
	jMotifs *imgt.JMotifs, cMotifs *imgt.CMotifs, jWarnThreshold int) (*Result, error) {

	res := &Result{
		Name:       p.Name,
		CDR3:       strings.ToUpper(p.CDR3),
		FivePrime:  strings.ToUpper(p.FivePrime),
		ThreePrime: strings.ToUpper(p.ThreePrime),
	}
	advise := func(msgs ...string) { res.Advisories = append(res.Advisories, msgs...) }

	lCall := p.L
	if lCall == "" {
		lCall = p.V
	}

	vGene, vAllele := imgt.SplitGene(strings.ToUpper(p.V))
	jGene, jAllele := imgt.SplitGene(strings.ToUpper(p.J))
	cGene, cAllele := imgt.SplitGene(strings.ToUpper(p.C))
	lGene, lAllele := imgt.SplitGene(strings.ToUpper(lCall))

	leaderSeq, lUsed, adv, err := data.Pick(imgt.Leader, lGene, lAllele, prefs)
	advise(adv...)
	if err != nil {
		return nil, err
	}
	vSeq, vUsed, adv, err := data.Pick(imgt.Variable, vGene, vAllele, prefs)
	advise(adv...)
	if err != nil {
		return nil, err
	}
	jSeq, jUsed, adv, err := data.Pick(imgt.Joining, jGene, jAllele, prefs)
	advise(adv...)
	if err != nil {
		return nil, err
	}
	cSeq, cUsed, adv, err := data.Pick(imgt.Constant, cGene, cAllele, prefs)
	advise(adv...)
	if err != nil {
		return nil, err
	}
	res.VUsed, res.JUsed, res.CUsed, res.LUsed = vUsed, jUsed, cUsed, lUsed

	checkExtra := func(end, seq string) error {
		if seq == "" {
			return nil
		}
		if !bio.IsDNA(seq) {
			return fmt.Errorf("provided %s sequence contains non-DNA characters", end)
		}
		if len(seq)%3 != 0 {
			advise(fmt.Sprintf("length of the %s sequence provided is not divisible by 3, ensure it is padded properly if it needs to be in frame", end))
		}
		return nil
	}
	if err := checkExtra("5'", res.FivePrime); err != nil {
		return nil, err
	}
	if err := checkExtra("3'", res.ThreePrime); err != nil {
		return nil, err
	}

	ntermNT, ntermAA, err := TidyNTerm(leaderSeq + vSeq)
	if err != nil {
		return nil, err
	}

	ctermNT, ctermAA, adv, err := TidyCTerm(jSeq+cSeq, p.SkipCChecks, cMotifs, cUsed)
	advise(adv...)
	if err != nil {
		return nil, err
	}

	var core string
	if p.Seamless {
		core, err = res.spliceSeamless(ntermNT, ctermNT)
	} else {
		core, err = res.resolveJunctions(ntermNT, ntermAA, ctermNT, ctermAA,
			len(jSeq), usage, jMotifs, jUsed, jGene, jWarnThreshold)
	}
	if err != nil {
		return nil, err
	}

	res.Sequence = res.FivePrime + core + res.ThreePrime
	if m := len(res.FivePrime) % 3; m != 0 {
		res.Offset = 3 - m
	}

	log.Debugf("stitched %s: %d nt, offset %d, %d advisories",
		res.Name, len(res.Sequence), res.Offset, len(res.Advisories))
	return res, nil
}

// resolveJunctions handles the amino-acid CDR3 mode: locate germline V
// and J contributions and back-translate whatever lies between them.
func (r *Result) resolveJunctions(ntermNT, ntermAA, ctermNT, ctermAA string,
	jNTLen int, usage codon.Usage, jMotifs *imgt.JMotifs, jUsed, jGene string, jWarnThreshold int) (string, error) {

	cdr3 := r.CDR3
	if cdr3 == "" {
		return "", errors.New("a CDR3 junction sequence is required")
	}
	if cdr3[0] != 'C' {
		r.Advisories = append(r.Advisories,
			"provided CDR3 junction does not start with the conserved cysteine")
	}
	if jMotifs != nil {
		expected := jMotifs.Residues[jUsed]
		if expected == "" {
			expected = jMotifs.Residues[jGene]
		}
		if expected != "" && !strings.HasSuffix(cdr3, expected) {
			r.Advisories = append(r.Advisories, fmt.Sprintf(
				"provided CDR3 junction does not end with the expected residue %q for %s", expected, jUsed))
		}
		if jMotifs.LowConfidence[jUsed] || jMotifs.LowConfidence[jGene] {
			r.Advisories = append(r.Advisories, fmt.Sprintf(
				"the junction-terminal residue call for %s is low confidence", jUsed))
		}
	}

	vTrimmed, nOffset, err := ResolveVJunction(cdr3, ntermNT, ntermAA)
	if err != nil {
		return "", err
	}
	remaining := cdr3[nOffset:]

	cTrimmed, nonTemplated, adv, err := ResolveJJunction(remaining, ctermNT, ctermAA, jNTLen, jWarnThreshold)
	r.Advisories = append(r.Advisories, adv...)
	if err != nil {
		return "", err
	}

	mid, err := usage.BackTranslate(remaining[:nonTemplated])
	if err != nil {
		return "", err
	}
	return vTrimmed + mid + cTrimmed, nil
}

// spliceSeamless handles the observed-sequence mode: the CDR3 field
// carries nucleotides spanning the junction, which are spliced into
// the germline by exact overlap instead of amino-acid matching.
func (r *Result) spliceSeamless(ntermNT, ctermNT string) (string, error) {
	observed := r.CDR3
	if observed == "" || !bio.IsDNA(observed) {
		return "", errors.New("seamless stitching requires a nucleotide junction sequence, but the CDR3 field does not look like DNA")
	}

	vTrimmed, vOverlap := FindVOverlap(ntermNT, observed)
	if vOverlap == "" {
		return "", errors.New("no overlap found between the germline V and the provided junction sequence")
	}
	if len(vOverlap) < minSeamlessOverlap {
		r.Advisories = append(r.Advisories, fmt.Sprintf(
			"only a %d nt overlap found between the germline V and the provided junction sequence", len(vOverlap)))
	}

	jTrimmed, jOverlap := FindJOverlap(observed, ctermNT)
	if jOverlap == "" {
		return "", errors.New("no overlap found between the provided junction sequence and the germline J")
	}
	if len(jOverlap) < minSeamlessOverlap {
		r.Advisories = append(r.Advisories, fmt.Sprintf(
			"only a %d nt overlap found between the provided junction sequence and the germline J", len(jOverlap)))
	}

	return vTrimmed + observed + jTrimmed, nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/tcrbuild/restitch/codon"
	"github.com/tcrbuild/restitch/imgt"
	"github.com/tcrbuild/restitch/stitch"
)

// batch holds everything shared between rows of one run: the germline
// data and allele preferences per locus, the codon usage table, motif
// tables and linkers.
type batch struct {
	loci    [2]string
	species string

	data  map[string]*imgt.ChainData
	prefs map[string]imgt.Preferences

	usage   codon.Usage
	jMotifs *imgt.JMotifs
	cMotifs *imgt.CMotifs
	linkers map[string]string

	seamless   bool
	skipC      bool
	jThreshold int
}

// inHeaders returns the expected input column names for the receptor,
// e.g. TCR_name, TRAV, TRAJ, TRA_CDR3, ... for a TRA/TRB run.
func (b *batch) inHeaders() []string {
	r1, r2 := b.loci[0], b.loci[1]
	return []string{
		"TCR_name",
		r1 + "V", r1 + "J", r1 + "_CDR3",
		r2 + "V", r2 + "J", r2 + "_CDR3",
		r1 + "C", r2 + "C",
		r1 + "_leader", r2 + "_leader",
		"Linker", "Link_order",
		r1 + "_5_prime_seq", r1 + "_3_prime_seq",
		r2 + "_5_prime_seq", r2 + "_3_prime_seq",
	}
}

// outHeaders returns the output column names: the stitched sequences,
// the input columns echoed back with the alleles actually used, the
// linked product and a warnings column.
func (b *batch) outHeaders() []string {
	r1, r2 := b.loci[0], b.loci[1]
	return []string{
		"TCR_name",
		r1 + "_nt", r2 + "_nt", r1 + "_aa", r2 + "_aa",
		r1 + "V", r1 + "J", r1 + "_CDR3",
		r2 + "V", r2 + "J", r2 + "_CDR3",
		r1 + "C", r2 + "C",
		r1 + "_leader", r2 + "_leader",
		"Linker", "Link_order",
		r1 + "_5_prime_seq", r1 + "_3_prime_seq",
		r2 + "_5_prime_seq", r2 + "_3_prime_seq",
		"Linked_nt", "Linked_aa", "Warnings/Errors",
	}
}

// letter returns the single-letter chain identifier used in link
// orders (A, B, G or D).
func letter(locus string) string {
	return locus[2:3]
}

// stitchChain assembles one chain of a row, returning nil when the row
// carries no call for this locus at all.
func (b *batch) stitchChain(locus string, row map[string]string, warn func(format string, a ...interface{})) *stitch.Result {
	v := row[locus+"V"]
	j := row[locus+"J"]
	cdr3 := row[locus+"_CDR3"]
	c := row[locus+"C"]
	l := row[locus+"_leader"]

	if v == "" && j == "" && cdr3 == "" && c == "" && l == "" &&
		row[locus+"_5_prime_seq"] == "" && row[locus+"_3_prime_seq"] == "" {
		return nil
	}
	if v == "" || j == "" || cdr3 == "" {
		warn("incomplete information, need V/J/CDR3 as a minimum")
		return nil
	}

	v, j = strings.ToUpper(v), strings.ToUpper(j)
	if chain, err := imgt.Chain(v, j); err != nil || chain != locus {
		warn("V and J calls do not look like %s genes", locus)
		return nil
	}
	if c == "" {
		var err error
		c, err = imgt.DefaultConstant(locus, b.species, j)
		if err != nil {
			warn("%v", err)
			return nil
		}
	}

	p := stitch.Params{
		Name:        row["TCR_name"],
		V:           v,
		J:           j,
		C:           c,
		L:           strings.ToUpper(l),
		CDR3:        strings.ToUpper(cdr3),
		FivePrime:   row[locus+"_5_prime_seq"],
		ThreePrime:  row[locus+"_3_prime_seq"],
		Seamless:    b.seamless,
		SkipCChecks: b.skipC,
	}
	res, err := stitch.Stitch(p, b.data[locus], b.prefs[locus], b.usage,
		b.jMotifs, b.cMotifs, b.jThreshold)
	if err != nil {
		warn("%v. Cannot stitch a sequence", err)
		return nil
	}
	for _, a := range res.Advisories {
		warn("%s", a)
	}
	return res
}

// processRow stitches both chains of one input row and links them when
// a linker is requested. Failures never abort the run: they are
// reported per row in the Warnings/Errors column.
func (b *batch) processRow(fields []string) []string {
	in := b.inHeaders()
	if len(fields) < len(in) {
		fields = append(fields, make([]string, len(in)-len(fields))...)
	}
	row := make(map[string]string, len(in))
	for i, h := range in {
		row[h] = strings.TrimSpace(fields[i])
	}

	out := make(map[string]string, len(b.outHeaders()))
	for _, h := range b.outHeaders() {
		out[h] = row[h]
	}

	var warnings []string
	results := make(map[string]*stitch.Result, 2)
	for _, locus := range b.loci {
		locus := locus
		warn := func(format string, a ...interface{}) {
			warnings = append(warnings, "("+locus+") "+fmt.Sprintf(format, a...)+".")
		}
		res := b.stitchChain(locus, row, warn)
		results[locus] = res
		if res == nil {
			continue
		}
		out[locus+"_nt"] = res.Sequence
		aa, err := res.AA()
		if err != nil {
			warn("%v", err)
		}
		out[locus+"_aa"] = aa
		out[locus+"V"] = res.VUsed
		out[locus+"J"] = res.JUsed
		out[locus+"C"] = res.CUsed
		out[locus+"_leader"] = res.LUsed
		out[locus+"_CDR3"] = res.CDR3
		out[locus+"_5_prime_seq"] = res.FivePrime
		out[locus+"_3_prime_seq"] = res.ThreePrime
	}

	if row["Linker"] != "" {
		b.link(row, out, results, func(format string, a ...interface{}) {
			warnings = append(warnings, "(Link) "+fmt.Sprintf(format, a...)+".")
		})
	}

	if len(warnings) == 0 {
		out["Warnings/Errors"] = "[None]"
	} else {
		out["Warnings/Errors"] = strings.Join(warnings, " ")
	}

	cols := b.outHeaders()
	line := make([]string, len(cols))
	for i, h := range cols {
		line[i] = out[h]
	}
	return line
}

// link joins the two stitched chains with the requested linker. The
// default order puts the second locus first (beta before alpha, delta
// before gamma), matching the common bicistronic construct layouts.
func (b *batch) link(row, out map[string]string, results map[string]*stitch.Result,
	warn func(format string, a ...interface{})) {

	r1, r2 := b.loci[0], b.loci[1]
	valid := []string{letter(r2) + letter(r1), letter(r1) + letter(r2)}

	order := strings.ToUpper(row["Link_order"])
	if order == "" {
		order = valid[0]
	} else if order != valid[0] && order != valid[1] {
		warn("given link order %q not valid (not %s or %s), defaulting to %s",
			order, valid[0], valid[1], valid[0])
		order = valid[0]
	}
	out["Link_order"] = order

	byLetter := map[string]string{letter(r1): r1, letter(r2): r2}
	first, second := byLetter[order[0:1]], byLetter[order[1:2]]

	if results[first] == nil || results[second] == nil {
		warn("need both a %s and a %s to link", r1, r2)
		return
	}

	linkerSeq, advisories, err := imgt.LinkerSeq(row["Linker"], b.linkers)
	for _, a := range advisories {
		warn("%s", a)
	}
	if err != nil {
		warn("%v", err)
		return
	}

	if results[second].FivePrime != "" {
		warn("%s order specified, but the 3' chain has an additional 5' sequence provided", order)
	}
	if results[first].ThreePrime != "" {
		warn("%s order specified, but the 5' chain has an additional 3' sequence provided", order)
	}

	linked := &stitch.Result{
		Sequence: results[first].Sequence + linkerSeq + results[second].Sequence,
		Offset:   results[first].Offset,
	}
	out["Linked_nt"] = linked.Sequence
	aa, err := linked.AA()
	if err != nil {
		warn("%v", err)
		return
	}
	out["Linked_aa"] = aa
}

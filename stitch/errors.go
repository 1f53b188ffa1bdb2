package stitch

import "errors"

// Junction and frame resolution failures. Each aborts the whole stitch
// call; none is retried, since repeating a deterministic string search
// cannot change its outcome.
var (
	// ErrVJunctionNotFound means no prefix of the CDR3 could be
	// located near the 3' end of the V translation. Given a valid V
	// gene and a CDR3 starting with the conserved cysteine this should
	// be unreachable, so it signals malformed input.
	ErrVJunctionNotFound = errors.New("unable to locate the N terminus of the CDR3 in the V gene, please check sequence plausibility")

	// ErrJJunctionNotFound means no C-terminal CDR3 chunk of any
	// length could be located in the J translation.
	ErrJJunctionNotFound = errors.New("unable to locate the C terminus of the CDR3 in the J gene, please check sequence plausibility")

	// ErrJJunctionAmbiguous means multiple equally valid conserved-motif
	// hits remain even under the strict GXG pattern; the split is not
	// guessed among biologically inequivalent options.
	ErrJJunctionAmbiguous = errors.New("multiple conserved-motif hits found, unable to locate the C terminus of the CDR3")

	// ErrNoValidFrame means no reading frame of the J+C sequence
	// contains the registered constant-region start motif.
	ErrNoValidFrame = errors.New("no reading frame of the J+C sequence matches the registered constant-region start motif")
)

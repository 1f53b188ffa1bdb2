package main

// RunSummary stores summary information about a stitching run.
type RunSummary struct {
	// RunID is a unique identifier of the run.
	RunID string `json:"runId"`
	// Version stores binary version.
	Version string `json:"version"`
	// CommandLine is the command line.
	CommandLine []string `json:"commandLine"`
	// Species is the species data set used.
	Species string `json:"species"`
	// Chain is the receptor locus stitched.
	Chain string `json:"chain"`
	// V, J, C and L are the gene alleles actually used.
	V string `json:"v"`
	J string `json:"j"`
	C string `json:"c"`
	L string `json:"l"`
	// LengthNT is the length of the assembled nucleotide sequence.
	LengthNT int `json:"lengthNt"`
	// FrameOffset is the number of pad bases needed to translate the
	// assembly in frame.
	FrameOffset int `json:"frameOffset"`
	// Advisories are the non-fatal warnings collected while stitching.
	Advisories []string `json:"advisories,omitempty"`
	// Time is the wall-clock running time in seconds.
	Time float64 `json:"time"`
}

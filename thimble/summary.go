package main

// BatchSummary stores summary information about a batch stitching run.
type BatchSummary struct {
	// RunID is a unique identifier of the run.
	RunID string `json:"runId"`
	// Version stores binary version.
	Version string `json:"version"`
	// CommandLine is the command line.
	CommandLine []string `json:"commandLine"`
	// Species is the species data set used.
	Species string `json:"species"`
	// Receptor is the receptor pair stitched, e.g. TRA/TRB.
	Receptor string `json:"receptor"`
	// Rows is the number of input rows processed.
	Rows int `json:"rows"`
	// Stitched is the number of rows yielding at least one sequence.
	Stitched int `json:"stitched"`
	// Flagged is the number of rows with warnings or errors.
	Flagged int `json:"flagged"`
	// Time is the wall-clock running time in seconds.
	Time float64 `json:"time"`
}

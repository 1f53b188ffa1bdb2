/*

Thimble runs the stitcher in a high-throughput manner on a
tab-separated input file, assembling one or two chains per row and
optionally joining them with a linker.

The basic usage looks like this:

	thimble --in tcrs.tsv --out stitched.tsv

The input file must fit the column layout of the template for the
receptor in question (TRA/TRB or TRG/TRD); run thimble --help for the
remaining options.

*/
package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"

	"github.com/tcrbuild/restitch/cache"
	"github.com/tcrbuild/restitch/codon"
	"github.com/tcrbuild/restitch/imgt"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("thimble")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("thimble", "stitch multiple and paired immune receptors from a tab-separated file").Version(version)

	// input/output
	inFile  = app.Flag("in", "tab-separated input file, matching the template layout").Required().String()
	outFile = app.Flag("out", "path for the output tsv file").Required().String()

	// data sources
	speciesFlag = app.Flag("species", "species data directory to use (default: inferred from the input file name, then HUMAN)").String()
	receptorF   = app.Flag("receptor", "receptor to stitch, ab or gd (default: inferred from the input headers)").String()
	dataDirFlag = app.Flag("data", "germline data directory (default $RESTITCH_DATA or ./data)").String()
	cuFile      = app.Flag("codon-usage", "Kazusa-formatted codon usage file (default: the species table)").String()
	prefFile    = app.Flag("preferred-alleles", "TSV of preferred alleles to use when no allele is specified").String()
	extraGenes  = app.Flag("extra-genes", "also use sequences from additional-genes.fasta (implies --skip-c-checks)").Bool()
	cacheFile   = app.Flag("cache", "gene-set cache database file").String()

	// stitching behaviour
	seamless   = app.Flag("seamless", "splice observed nucleotide junction sequences by overlap instead of resolving amino-acid CDR3s").Bool()
	jThreshold = app.Flag("j-warning-threshold", "J match length at or below which a short-match advisory is emitted").Default("3").Int()
	skipC      = app.Flag("skip-c-checks", "pick C frames by the longest-pre-stop heuristic instead of motifs").Bool()
	threads    = app.Flag("threads", "number of rows to stitch in parallel").Default("4").Int()

	// logging
	outLogF  = app.Flag("log", "write log to a file").String()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json run summary to a file").String()
)

// opener opens a possibly gzip-compressed input file.
func opener(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return gz, nil
	}
	return f, nil
}

// readRows reads the input table into per-line tab-split fields,
// stripping quotes the way spreadsheet exports tend to add them.
func readRows(path string) ([][]string, error) {
	r, err := opener(path)
	if err != nil {
		return nil, fmt.Errorf("%s not detected, please check and specify the input file again: %v", path, err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		line = strings.ReplaceAll(line, "\"", "")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, strings.Split(line, "\t"))
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("input file %s is empty", path)
	}
	return rows, nil
}

// pickSpecies resolves the species to stitch for, in order of command
// line flag, inference from the input file name, then human.
func pickSpecies(dataDir string) string {
	covered, err := imgt.SpeciesCovered(dataDir)
	if err != nil {
		log.Fatal(err)
	}
	if *speciesFlag != "" {
		species := strings.ToUpper(*speciesFlag)
		for _, s := range covered {
			if s == species {
				return species
			}
		}
		log.Fatalf("No data available for requested species %s (have: %s)", species, strings.Join(covered, ", "))
	}
	if inferred := imgt.InferSpecies(*inFile, covered); inferred != "" {
		log.Infof("Inferred species %s from the input file name", inferred)
		return inferred
	}
	return "HUMAN"
}

// pickReceptor resolves the receptor pair to stitch, from the flag or
// from the input file header.
func pickReceptor(header []string) [2]string {
	if *receptorF != "" {
		r := strings.ToUpper(*receptorF)
		ab := strings.ContainsAny(r, "AB")
		gd := strings.ContainsAny(r, "GD")
		switch {
		case ab && !gd:
			return [2]string{"TRA", "TRB"}
		case gd && !ab:
			return [2]string{"TRG", "TRD"}
		}
		log.Fatalf("Unable to determine the receptor from %q, give e.g. 'ab', 'gd', 'b' or 'd'", *receptorF)
	}

	head := strings.Join(header, "\t")
	ab := strings.Contains(head, "TRAV")
	gd := strings.Contains(head, "TRGV")
	switch {
	case ab && !gd:
		return [2]string{"TRA", "TRB"}
	case gd && !ab:
		return [2]string{"TRG", "TRD"}
	}
	log.Fatal("Unable to determine the receptor from the input file header, please check the template")
	return [2]string{}
}

// loadUsage loads the codon usage table for the species, falling back
// to the human table when the species has none.
func loadUsage(dataDir, species string) codon.Usage {
	path := *cuFile
	if path == "" {
		path = filepath.Join(dataDir, "kazusa", species+".txt")
	}
	usage, n, err := codon.LoadUsage(path)
	if err != nil && *cuFile == "" {
		log.Warningf("Could not read a codon frequency file at %s, defaulting to the human table", path)
		usage, n, err = codon.LoadUsage(filepath.Join(dataDir, "kazusa", "HUMAN.txt"))
	}
	if err != nil {
		log.Fatal(err)
	}
	if n < 20 {
		log.Warning("Warning: incomplete codon usage file input - back translation may fail")
	}
	return usage
}

func run() (summary *BatchSummary) {
	startTime := time.Now()
	summary = &BatchSummary{RunID: uuid.New().String()}

	dataDir := imgt.DataDir(*dataDirFlag)
	species := pickSpecies(dataDir)
	summary.Species = species

	rows, err := readRows(*inFile)
	if err != nil {
		log.Fatal(err)
	}

	b := &batch{
		loci:       pickReceptor(rows[0]),
		species:    species,
		data:       make(map[string]*imgt.ChainData, 2),
		prefs:      make(map[string]imgt.Preferences, 2),
		seamless:   *seamless,
		skipC:      *skipC,
		jThreshold: *jThreshold,
	}
	summary.Receptor = b.loci[0] + "/" + b.loci[1]
	log.Infof("Stitching %s receptors for %s", summary.Receptor, species)

	var db *bolt.DB
	if *cacheFile != "" {
		db, err = cache.Open(*cacheFile)
		if err != nil {
			log.Fatal("Error opening gene-set cache:", err)
		}
		defer db.Close()
	}

	for _, locus := range b.loci {
		cd, err := cache.LoadOrParse(db, dataDir, species, locus)
		if err != nil {
			log.Fatal(err)
		}
		if *extraGenes {
			if err = cd.AddAdditionalGenes(filepath.Join(dataDir, "additional-genes.fasta")); err != nil {
				log.Fatal(err)
			}
			b.skipC = true
		}
		b.data[locus] = cd

		if *prefFile != "" {
			prefs, advisories, err := imgt.LoadPreferredAlleles(*prefFile, locus, cd)
			if err != nil {
				log.Fatal(err)
			}
			for _, a := range advisories {
				log.Warning(a)
			}
			b.prefs[locus] = prefs
		}
	}

	b.usage = loadUsage(dataDir, species)

	if b.jMotifs, err = imgt.LoadJMotifs(dataDir, species); err != nil {
		log.Warningf("No J motif table for %s (%v), junction-residue checks disabled", species, err)
		b.jMotifs = nil
	}
	if b.cMotifs, err = imgt.LoadCMotifs(dataDir, species); err != nil {
		log.Warningf("No C motif table for %s (%v), falling back to frame heuristics", species, err)
		b.cMotifs = nil
	}
	if b.linkers, err = imgt.LoadLinkers(dataDir); err != nil {
		log.Warningf("No linker table (%v), only raw DNA linkers will work", err)
		b.linkers = nil
	}

	in := b.inHeaders()
	if strings.Join(rows[0], "\t") != strings.Join(in, "\t") {
		log.Fatal("Headers in the input file don't match the expectations, please check the template")
	}

	// stitch the rows in parallel, keeping the input order
	jobs := make(chan int)
	results := make([][]string, len(rows)-1)
	var wg sync.WaitGroup
	n := *threads
	if n < 1 {
		n = 1
	}
	for w := 0; w < n; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = b.processRow(rows[i+1])
			}
		}()
	}
	for i := 0; i < len(results); i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	ntCol := map[string]int{}
	for i, h := range b.outHeaders() {
		ntCol[h] = i
	}
	for _, row := range results {
		summary.Rows++
		if row[ntCol[b.loci[0]+"_nt"]] != "" || row[ntCol[b.loci[1]+"_nt"]] != "" {
			summary.Stitched++
		}
		if row[ntCol["Warnings/Errors"]] != "[None]" {
			summary.Flagged++
		}
	}

	out := *outFile
	if !strings.HasSuffix(strings.ToLower(out), ".tsv") {
		out += ".tsv"
	}
	f, err := os.Create(out)
	if err != nil {
		log.Fatal("Error creating the output file:", err)
	}
	defer f.Close()

	fmt.Fprintln(f, strings.Join(b.outHeaders(), "\t"))
	for _, row := range results {
		fmt.Fprintln(f, strings.Join(row, "\t"))
	}

	log.Noticef("Stitched %d of %d rows (%d flagged)", summary.Stitched, summary.Rows, summary.Flagged)
	summary.Time = time.Since(startTime).Seconds()
	log.Noticef("Running time: %v", time.Since(startTime))
	return
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	logging.SetLevel(level, "thimble")
	logging.SetLevel(level, "stitch")
	logging.SetLevel(level, "imgt")
	logging.SetLevel(level, "cache")

	// pick up RESTITCH_DATA from a .env file when present
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env found, using the local environment")
	}

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	summary := run()
	summary.Version = version
	summary.CommandLine = os.Args

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}

/*

Stitchr assembles a full-length, in-frame coding nucleotide sequence
for a single immune-receptor chain from gene-level calls and a CDR3
junction.

The basic usage looks like this:

	stitchr --v TRBV7-3 --j TRBJ1-1 --cdr3 CASSYLPGQGDHYSNQPQHF

, which stitches a human beta chain using the default constant region
and leader for those genes.

A known nucleotide sequence spanning the junction can be spliced in
directly instead:

	stitchr --v TRBV7-3 --j TRBJ1-1 --seamless --cdr3 GCCAGCAGCTTAGG...

To see all the options run:

	stitchr --help

*/
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"

	"github.com/tcrbuild/restitch/bio"
	"github.com/tcrbuild/restitch/cache"
	"github.com/tcrbuild/restitch/codon"
	"github.com/tcrbuild/restitch/imgt"
	"github.com/tcrbuild/restitch/stitch"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("stitchr")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("stitchr", "stitch coding immune-receptor nucleotide sequences from V/J/CDR3 information").Version(version)

	// receptor definition
	vGene = app.Flag("v", "V gene call, allele optional (e.g. TRBV7-3 or TRBV7-3*01)").Required().String()
	jGene = app.Flag("j", "J gene call, allele optional").Required().String()
	cdr3  = app.Flag("cdr3", "CDR3 junction amino acids (nucleotides with --seamless)").Required().String()
	cGene = app.Flag("c", "constant region gene (inferred for human/mouse when omitted)").String()
	lGene = app.Flag("l", "leader gene (the V gene's own leader when omitted)").String()
	name  = app.Flag("name", "name for the assembled sequence").String()

	// optional extra sequence
	fivePrime  = app.Flag("five-prime-seq", "additional 5' nucleotide sequence").String()
	threePrime = app.Flag("three-prime-seq", "additional 3' nucleotide sequence").String()

	// data sources
	speciesFlag = app.Flag("species", "species data directory to use").Default("HUMAN").String()
	dataDirFlag = app.Flag("data", "germline data directory (default $RESTITCH_DATA or ./data)").String()
	cuFile      = app.Flag("codon-usage", "Kazusa-formatted codon usage file (default: the species table)").String()
	prefFile    = app.Flag("preferred-alleles", "TSV of preferred alleles to use when no allele is specified").String()
	extraGenes  = app.Flag("extra-genes", "also use sequences from additional-genes.fasta (implies --skip-c-checks)").Bool()
	cacheFile   = app.Flag("cache", "gene-set cache database file").String()

	// stitching behaviour
	seamless   = app.Flag("seamless", "splice an observed nucleotide junction sequence by overlap instead of resolving an amino-acid CDR3").Bool()
	jThreshold = app.Flag("j-warning-threshold", "J match length at or below which a short-match advisory is emitted").Default("3").Int()
	skipC      = app.Flag("skip-c-checks", "pick the C frame by the longest-pre-stop heuristic instead of motifs").Bool()

	// input/output
	outAA    = app.Flag("aa", "also print the translated protein sequence").Bool()
	outLogF  = app.Flag("log", "write log to a file").String()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json run summary to a file").String()
)

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

// loadMotifs loads the J and C motif tables; a missing table is a
// heuristic fallback, not an error.
func loadMotifs(dataDir, species string) (*imgt.JMotifs, *imgt.CMotifs) {
	jm, err := imgt.LoadJMotifs(dataDir, species)
	if err != nil {
		log.Warningf("No J motif table for %s (%v), junction-residue checks disabled", species, err)
		jm = nil
	}
	cm, err := imgt.LoadCMotifs(dataDir, species)
	if err != nil {
		log.Warningf("No C motif table for %s (%v), falling back to frame heuristics", species, err)
		cm = nil
	}
	return jm, cm
}

func run() (summary *RunSummary) {
	startTime := time.Now()
	summary = &RunSummary{RunID: uuid.New().String()}

	dataDir := imgt.DataDir(*dataDirFlag)
	species := strings.ToUpper(*speciesFlag)

	covered, err := imgt.SpeciesCovered(dataDir)
	if err != nil {
		log.Fatal(err)
	}
	found := false
	for _, s := range covered {
		if s == species {
			found = true
			break
		}
	}
	if !found {
		log.Fatalf("No data available for requested species %s (have: %s)", species, strings.Join(covered, ", "))
	}

	v := strings.ToUpper(*vGene)
	j := strings.ToUpper(*jGene)
	chain, err := imgt.Chain(v, j)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("Stitching a %s chain for %s", chain, species)
	summary.Species = species
	summary.Chain = chain

	var db *bolt.DB
	if *cacheFile != "" {
		db, err = cache.Open(*cacheFile)
		if err != nil {
			log.Fatal("Error opening gene-set cache:", err)
		}
		defer db.Close()
	}

	cd, err := cache.LoadOrParse(db, dataDir, species, chain)
	if err != nil {
		log.Fatal(err)
	}

	skip := *skipC
	if *extraGenes {
		if err = cd.AddAdditionalGenes(filepath.Join(dataDir, "additional-genes.fasta")); err != nil {
			log.Fatal(err)
		}
		skip = true
	}

	usage := loadUsage(dataDir, species)
	jMotifs, cMotifs := loadMotifs(dataDir, species)

	var prefs imgt.Preferences
	if *prefFile != "" {
		var advisories []string
		prefs, advisories, err = imgt.LoadPreferredAlleles(*prefFile, chain, cd)
		if err != nil {
			log.Fatal(err)
		}
		for _, a := range advisories {
			log.Warning(a)
		}
	}

	c := strings.ToUpper(*cGene)
	if c == "" {
		c, err = imgt.DefaultConstant(chain, species, j)
		if err != nil {
			log.Fatal(err)
		}
		log.Infof("Using the default constant region %s", c)
	}

	p := stitch.Params{
		Name:        *name,
		V:           v,
		J:           j,
		C:           c,
		L:           strings.ToUpper(*lGene),
		CDR3:        strings.ToUpper(*cdr3),
		FivePrime:   *fivePrime,
		ThreePrime:  *threePrime,
		Seamless:    *seamless,
		SkipCChecks: skip,
	}

	res, err := stitch.Stitch(p, cd, prefs, usage, jMotifs, cMotifs, *jThreshold)
	if err != nil {
		log.Fatal(err)
	}
	for _, a := range res.Advisories {
		log.Warning(a)
	}

	header := strings.Join([]string{res.Name, res.VUsed, res.JUsed, res.CUsed, res.CDR3}, "|")
	fmt.Print(bio.Sequence{Name: header + "|nt", Sequence: res.Sequence})
	if *outAA {
		aa, err := res.AA()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Print(bio.Sequence{Name: header + "|aa", Sequence: aa})
	}

	summary.V, summary.J, summary.C, summary.L = res.VUsed, res.JUsed, res.CUsed, res.LUsed
	summary.LengthNT = len(res.Sequence)
	summary.FrameOffset = res.Offset
	summary.Advisories = res.Advisories
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
	logging.SetLevel(level, "stitchr")
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

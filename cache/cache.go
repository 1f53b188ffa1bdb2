// Package cache persists parsed germline gene sets between runs, so
// repeated batch invocations skip re-parsing the FASTA data.
package cache

import (
	"encoding/json"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"

	"github.com/tcrbuild/restitch/imgt"
)

// log is the global logging variable.
var log = logging.MustGetLogger("cache")

// MAIN is the bucket name holding all cached gene sets.
var MAIN = []byte("genesets")

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*bolt.DB, error) {
	return bolt.Open(path, 0666, nil)
}

// Key builds the cache key for a species/locus pair.
func Key(species, locus string) []byte {
	return []byte(species + "/" + locus)
}

// SaveChainData stores a parsed gene set under the species/locus key.
// A nil database is a no-op.
func SaveChainData(db *bolt.DB, species, locus string, cd *imgt.ChainData) error {
	data, err := json.Marshal(cd)
	if err != nil {
		log.Error("Error serializing gene set", err)
		return err
	}
	err = SaveData(db, Key(species, locus), data)
	if err != nil {
		log.Error("Error saving gene set", err)
	}
	return err
}

// LoadChainData returns the cached gene set for a species/locus pair,
// or nil when the cache has no entry.
func LoadChainData(db *bolt.DB, species, locus string) (*imgt.ChainData, error) {
	b, err := LoadData(db, Key(species, locus))
	if err != nil || b == nil {
		return nil, err
	}

	var cd *imgt.ChainData
	if err = json.Unmarshal(b, &cd); err != nil {
		return nil, err
	}
	if cd == nil || len(cd.Genes) == 0 {
		return nil, nil
	}
	log.Debugf("gene set cache hit for %s/%s", species, locus)
	return cd, nil
}

// LoadOrParse returns the gene set for a species/locus pair from the
// cache when possible, falling back to parsing the FASTA data and
// caching the parsed result. A nil database always parses.
func LoadOrParse(db *bolt.DB, dataDir, species, locus string) (*imgt.ChainData, error) {
	cd, err := LoadChainData(db, species, locus)
	if err != nil {
		log.Error("Error reading gene set cache", err)
	}
	if cd != nil {
		return cd, nil
	}

	cd, err = imgt.LoadChainData(dataDir, species, locus)
	if err != nil {
		return nil, err
	}
	if db != nil {
		if err := SaveChainData(db, species, locus, cd); err != nil {
			log.Error("Error caching gene set", err)
		}
	}
	return cd, nil
}

// SaveData saves a value in the bolt database.
func SaveData(db *bolt.DB, key []byte, data []byte) error {
	if db == nil {
		return nil
	}
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(MAIN)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// LoadData loads a value from the bolt database; nil means no entry.
func LoadData(db *bolt.DB, key []byte) ([]byte, error) {
	var data []byte
	if db == nil {
		return nil, nil
	}
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(MAIN)
		if b == nil {
			return nil
		}
		if v := b.Get(key); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

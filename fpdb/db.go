// Package fpdb implements the sorted packed-entry fingerprint database and
// its range queries (spec.md §4.4).
package fpdb

import (
	"fmt"
	"sort"
)

// Pack combines a 48-bit fingerprint hash and a 16-bit time index into a
// single sortable 64-bit entry, per spec.md §3: hash occupies the high 48
// bits, time index the low 16.
func Pack(hash uint64, timeIndex uint32) uint64 {
	return (hash << 16) + uint64(timeIndex&0xFFFF)
}

// Unpack splits a packed entry back into its hash and time index.
func Unpack(packed uint64) (hash uint64, timeIndex uint32) {
	return packed >> 16, uint32(uint16(packed))
}

// AudioReference is one audio item's sorted, packed fingerprint array. The
// array must already be sorted ascending by Pack order (hash-major,
// time-minor) before registration; DB does no sorting of its own, matching
// the reference implementation's "caller owns the static array" contract.
type AudioReference struct {
	AudioID      uint32
	Fingerprints []uint64
}

// DB is an in-memory fingerprint database over any number of registered
// audio items, searched by hash range (spec.md §4.4).
type DB struct {
	refs []AudioReference
}

// New returns an empty database.
func New() *DB {
	return &DB{}
}

// RegisterAudio adds ref to the database.
func (db *DB) RegisterAudio(ref AudioReference) {
	db.refs = append(db.refs, ref)
}

// Find collects, for every registered audio item, every fingerprint entry
// whose hash lies in [startHash, stopHash], up to len(results) entries
// total. Each returned value packs (timeIndex<<32 | audioID), per spec.md
// §4.4's vote-key convention. It returns the number of entries written.
func (db *DB) Find(startHash, stopHash uint64, results []uint64) int {
	resultsIndex := 0

	for _, ref := range db.refs {
		matchIdx := -1
		for currentHash := startHash; currentHash <= stopHash; currentHash++ {
			packedKey := Pack(currentHash, 0)
			i := sort.Search(len(ref.Fingerprints), func(i int) bool {
				return ref.Fingerprints[i]>>16 >= packedKey>>16
			})
			if i < len(ref.Fingerprints) && ref.Fingerprints[i]>>16 == packedKey>>16 {
				matchIdx = i
				break
			}
		}
		if matchIdx < 0 {
			continue
		}

		stop := false
		for i := matchIdx; i >= 0 && !stop; i-- {
			refHash, refT := Unpack(ref.Fingerprints[i])
			if refHash >= startHash && refHash <= stopHash {
				if resultsIndex < len(results) {
					results[resultsIndex] = (uint64(refT) << 32) | uint64(ref.AudioID)
					resultsIndex++
				} else {
					fmt.Printf("Warning: Max results %d reached\n", len(results))
					return resultsIndex
				}
			} else {
				stop = true
			}
		}

		for i := matchIdx + 1; i < len(ref.Fingerprints); i++ {
			refHash, refT := Unpack(ref.Fingerprints[i])
			if refHash < startHash || refHash > stopHash {
				break
			}
			if resultsIndex < len(results) {
				results[resultsIndex] = (uint64(refT) << 32) | uint64(ref.AudioID)
				resultsIndex++
			} else {
				fmt.Printf("Warning: Max results %d reached\n", len(results))
				return resultsIndex
			}
		}
	}

	return resultsIndex
}

// FindSingle reports whether any registered audio item has a fingerprint
// whose hash lies in [startHash, stopHash].
func (db *DB) FindSingle(startHash, stopHash uint64) bool {
	for _, ref := range db.refs {
		for _, packed := range ref.Fingerprints {
			refHash, _ := Unpack(packed)
			if refHash < startHash {
				continue
			}
			if refHash > stopHash {
				break
			}
			return true
		}
	}
	return false
}

// DeleteAudio removes a registered audio item.
func (db *DB) DeleteAudio(audioID uint32) {
	kept := db.refs[:0]
	for _, ref := range db.refs {
		if ref.AudioID != audioID {
			kept = append(kept, ref)
		}
	}
	db.refs = kept
}

// AudioCount returns the number of registered audio references. Registering
// the same audio ID twice counts twice.
func (db *DB) AudioCount() int {
	return len(db.refs)
}

// TotalFingerprints returns the total number of packed entries stored
// across every registered audio item.
func (db *DB) TotalFingerprints() int {
	total := 0
	for _, ref := range db.refs {
		total += len(ref.Fingerprints)
	}
	return total
}

// PrintStats writes a database summary in the style of the reference
// implementation's print_stats.
func (db *DB) PrintStats(verbose bool) string {
	s := fmt.Sprintf("Database Statistics:\n  Total audio files: %d\n  Total fingerprints: %d\n",
		db.AudioCount(), db.TotalFingerprints())
	if verbose {
		s += "\nRegistered audio files:\n"
		for _, ref := range db.refs {
			s += fmt.Sprintf("  ID %d:\n", ref.AudioID)
		}
	}
	return s
}

// Clear empties the database.
func (db *DB) Clear() {
	db.refs = nil
}

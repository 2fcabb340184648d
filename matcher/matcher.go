// Package matcher accumulates per-offset fingerprint votes against a
// database and reports the strongest matches (spec.md §4.5).
package matcher

import (
	"fmt"
	"os"

	"github.com/parasnair/olaf/config"
	"github.com/parasnair/olaf/fingerprint"
	"github.com/parasnair/olaf/fpdb"
)

// ResultCallback receives one reported match. It is called once per
// reported match, or once with matchCount 0 when a reporting pass finds
// nothing above the minimum match count (spec.md §4.5's heartbeat call).
type ResultCallback func(matchCount int, queryStart, queryStop float32, audioID uint32, referenceStart, referenceStop float32)

// MatchResult tracks one accumulating vote bucket, keyed by (quantized time
// offset, audio ID).
type MatchResult struct {
	ReferenceFingerprintT1      int
	QueryFingerprintT1          int
	FirstReferenceFingerprintT1 int
	LastReferenceFingerprintT1  int
	MatchCount                  int
	MatchIdentifier             uint32
}

// Matcher drives fingerprints against a database, accumulating votes.
type Matcher struct {
	config    config.Config
	db        *fpdb.DB
	votes     map[uint64]*MatchResult
	dbResults []uint64
	callback  ResultCallback

	lastPrintAt     int
	collisionWarned bool
}

// New builds a Matcher. The scratch query-result buffer is sized to
// config.MaxDBCollisions up front, per the memory budget in spec.md §5.
func New(cfg config.Config, db *fpdb.DB, callback ResultCallback) *Matcher {
	return &Matcher{
		config:    cfg,
		db:        db,
		votes:     make(map[uint64]*MatchResult),
		dbResults: make([]uint64, cfg.MaxDBCollisions),
		callback:  callback,
	}
}

func (m *Matcher) tallyResult(queryFingerprintT1, referenceFingerprintT1 int, matchIdentifier uint32) {
	timeDiff := (queryFingerprintT1 - referenceFingerprintT1) >> 2

	key := (uint64(uint32(timeDiff)) << 32) | uint64(matchIdentifier)

	if match, ok := m.votes[key]; ok {
		match.ReferenceFingerprintT1 = referenceFingerprintT1
		match.QueryFingerprintT1 = queryFingerprintT1
		match.MatchCount++
		if referenceFingerprintT1 < match.FirstReferenceFingerprintT1 {
			match.FirstReferenceFingerprintT1 = referenceFingerprintT1
		}
		if referenceFingerprintT1 > match.LastReferenceFingerprintT1 {
			match.LastReferenceFingerprintT1 = referenceFingerprintT1
		}
		return
	}

	m.votes[key] = &MatchResult{
		ReferenceFingerprintT1:      referenceFingerprintT1,
		FirstReferenceFingerprintT1: referenceFingerprintT1,
		LastReferenceFingerprintT1:  referenceFingerprintT1,
		QueryFingerprintT1:          queryFingerprintT1,
		MatchCount:                  1,
		MatchIdentifier:             matchIdentifier,
	}
}

func (m *Matcher) matchSingleFingerprint(queryFingerprintT1 int, queryFingerprintHash uint64) {
	rangeVal := uint64(m.config.SearchRange)

	// Unsigned wraparound, not clamping: matches olaf_fp_matcher.hpp's
	// `query_fingerprint_hash - range` exactly. When the query hash is
	// smaller than the search range this underflows to a huge startHash,
	// which db.Find's `for currentHash := startHash; currentHash <=
	// stopHash` then iterates zero times over -- i.e. such queries report
	// no matches, the same as the reference implementation, rather than
	// searching the much wider [0, queryFingerprintHash+rangeVal] range.
	startHash := queryFingerprintHash - rangeVal
	stopHash := queryFingerprintHash + rangeVal

	n := m.db.Find(startHash, stopHash, m.dbResults)

	if m.config.Verbose {
		fmt.Fprintf(os.Stderr, "Matched fp hash %d with database at q t1 %d, search range %d.\n\tNumber of results: %d\n\tMax num results: %d\n",
			queryFingerprintHash, queryFingerprintT1, m.config.SearchRange, n, m.config.MaxDBCollisions)
	}

	if n >= m.config.MaxDBCollisions && !m.collisionWarned {
		fmt.Fprintf(os.Stderr,
			"Expected less results for fp hash %d, number of results: %d, search range %d, max: %d\n",
			queryFingerprintHash, n, m.config.SearchRange, m.config.MaxDBCollisions)
		m.collisionWarned = true
	}

	for i := 0; i < n; i++ {
		dbResult := m.dbResults[i]
		referenceFingerprintT1 := int(int32(dbResult >> 32))
		matchIdentifier := uint32(dbResult)

		if m.config.Verbose {
			fmt.Fprintf(os.Stderr, "\taudio id: %d\n\tref t1: %d\n\tdelta qt1-ft1: %d\n",
				matchIdentifier, referenceFingerprintT1, queryFingerprintT1-referenceFingerprintT1)
		}

		m.tallyResult(queryFingerprintT1, referenceFingerprintT1, matchIdentifier)
	}
}

func (m *Matcher) removeOldMatches(currentQueryTime int) {
	maxAge := int((m.config.KeepMatchesFor * float32(m.config.AudioSampleRate)) / float32(m.config.AudioStepSize))

	for key, match := range m.votes {
		age := currentQueryTime - match.QueryFingerprintT1
		if age > maxAge {
			delete(m.votes, key)
		}
	}
}

// Match drives every fingerprint in fingerprints against the database,
// tallying votes, then drains the fingerprint buffer to empty (spec.md §3
// invariant: "a fingerprint buffer is always empty right after a Match
// call"). Periodic reporting and vote aging follow config.PrintResultEvery
// and config.KeepMatchesFor exactly as in spec.md §4.5.
func (m *Matcher) Match(fingerprints *fingerprint.ExtractedFingerprints) {
	n := fingerprints.Index

	for i := 0; i < n; i++ {
		fp := fingerprints.Fingerprints[i]
		m.matchSingleFingerprint(fp.TimeIndex1, fp.CalculateHash())
	}

	if n > 0 && m.config.PrintResultEvery != 0 {
		printResultEvery := int((m.config.PrintResultEvery * float32(m.config.AudioSampleRate)) / float32(m.config.AudioStepSize))
		currentQueryTime := fingerprints.Fingerprints[n-1].TimeIndex3

		if currentQueryTime-m.lastPrintAt > printResultEvery {
			fmt.Print(FormatHeader())
			m.PrintResults()
			m.lastPrintAt = currentQueryTime
		}
	}

	if n > 0 && m.config.KeepMatchesFor != 0 {
		currentQueryTime := fingerprints.Fingerprints[n-1].TimeIndex3
		m.removeOldMatches(currentQueryTime)
	}

	fingerprints.Index = 0
}

// FormatHeader returns the column header line for FormatResult rows.
func FormatHeader() string {
	return "match count (#), q start (s) , q stop (s), ref ID, ref start (s), ref stop (s)\n"
}

// FormatResult renders one reported match in the default print style.
func FormatResult(matchCount int, queryStart, queryStop float32, audioID uint32, referenceStart, referenceStop float32) string {
	return fmt.Sprintf("%d, %.2f, %.2f, %d, %.2f, %.2f\n", matchCount, queryStart, queryStop, audioID, referenceStart, referenceStop)
}

// PrintResults selects the top config.MaxResults votes with at least
// config.MinMatchCount votes and reports each through the callback, sorted
// by descending match count, skipping any whose reference span is shorter
// than config.MinMatchTimeDiff. If no vote reaches config.MinMatchCount, the
// callback is invoked once with matchCount 0 (spec.md §4.5's heartbeat
// behaviour).
func (m *Matcher) PrintResults() {
	var results []*MatchResult

	for _, match := range m.votes {
		if match.MatchCount < m.config.MinMatchCount {
			continue
		}

		if len(results) >= m.config.MaxResults {
			sortByMatchCountDescending(results)
			currentLeast := results[len(results)-1].MatchCount
			if match.MatchCount > currentLeast {
				results[len(results)-1] = match
			}
		} else {
			results = append(results, match)
		}
	}

	if len(results) > 0 {
		sortByMatchCountDescending(results)
	}

	secondsPerBlock := m.config.SecondsPerBlock()

	for _, match := range results {
		timeDelta := secondsPerBlock * float32(match.QueryFingerprintT1-match.ReferenceFingerprintT1)

		referenceStart := float32(match.FirstReferenceFingerprintT1) * secondsPerBlock
		referenceStop := float32(match.LastReferenceFingerprintT1) * secondsPerBlock

		if referenceStop-referenceStart < m.config.MinMatchTimeDiff {
			continue
		}

		queryStart := float32(match.FirstReferenceFingerprintT1)*secondsPerBlock + timeDelta
		queryStop := float32(match.LastReferenceFingerprintT1)*secondsPerBlock + timeDelta

		m.callback(match.MatchCount, queryStart, queryStop, match.MatchIdentifier, referenceStart, referenceStop)
	}

	if len(results) == 0 {
		m.callback(0, 0, 0, 0, 0, 0)
	}
}

func sortByMatchCountDescending(results []*MatchResult) {
	for i := 1; i < len(results); i++ {
		v := results[i]
		j := i - 1
		for j >= 0 && results[j].MatchCount < v.MatchCount {
			results[j+1] = results[j]
			j--
		}
		results[j+1] = v
	}
}

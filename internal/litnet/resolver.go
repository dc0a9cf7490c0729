package litnet

import (
	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

// Match says which identity table resolved a record.
type Match int

const (
	// MatchNone means no table matched and a new node was allocated.
	MatchNone Match = iota
	MatchPMID
	MatchWoSID
	MatchTitle
)

func (m Match) String() string {
	switch m {
	case MatchPMID:
		return "pmid"
	case MatchWoSID:
		return "wosid"
	case MatchTitle:
		return "title"
	default:
		return "new"
	}
}

// Resolution is the outcome of resolving a record.
type Resolution struct {
	Index int
	By    Match
}

// Counts are diagnostic resolution counters.
type Counts struct {
	All   int `json:"all"`
	PMID  int `json:"pmid"`
	WoSID int `json:"wosid"`
	Title int `json:"title"`
	New   int `json:"new"`
}

// Resolver maps records to article node indices through three lookup
// tables probed in priority order: PMID, WoS ID, then exact title.
type Resolver struct {
	alloc func() int

	byPMID  map[string]int
	byWoSID map[string]int
	byTitle map[string]int

	counts Counts
}

// NewResolver returns a resolver that calls alloc to create a node when a
// record matches nothing.
func NewResolver(alloc func() int) *Resolver {
	return &Resolver{
		alloc:   alloc,
		byPMID:  make(map[string]int),
		byWoSID: make(map[string]int),
		byTitle: make(map[string]int),
	}
}

// Resolve returns the node for rec, allocating one if no table matches.
// A record without PMID, WoS ID or title always gets a fresh node.
//
// Titles are compared as exact strings, with no case or whitespace
// folding.
func (r *Resolver) Resolve(rec reference.Record) Resolution {
	r.counts.All++

	if rec.PMID != "" {
		if idx, ok := r.byPMID[rec.PMID]; ok {
			r.counts.PMID++
			return Resolution{Index: idx, By: MatchPMID}
		}
	}
	if rec.WoSID != "" {
		if idx, ok := r.byWoSID[rec.WoSID]; ok {
			r.counts.WoSID++
			return Resolution{Index: idx, By: MatchWoSID}
		}
	}
	if rec.Title != "" {
		if idx, ok := r.byTitle[rec.Title]; ok {
			r.counts.Title++
			return Resolution{Index: idx, By: MatchTitle}
		}
	}

	r.counts.New++
	return Resolution{Index: r.alloc(), By: MatchNone}
}

// Register records rec's identifiers for idx. PMID and WoS ID keep the
// first node registered under them. The title is registered only when the
// record carries neither identifier, so identifier-confirmed articles
// never capture later title-only lookups.
func (r *Resolver) Register(rec reference.Record, idx int) {
	if rec.WoSID != "" {
		if _, ok := r.byWoSID[rec.WoSID]; !ok {
			r.byWoSID[rec.WoSID] = idx
		}
	}
	if rec.PMID != "" {
		if _, ok := r.byPMID[rec.PMID]; !ok {
			r.byPMID[rec.PMID] = idx
		}
	}
	if !rec.HasIdentifier() && rec.Title != "" {
		r.byTitle[rec.Title] = idx
	}
}

// Counts returns a copy of the resolution counters.
func (r *Resolver) Counts() Counts {
	return r.counts
}

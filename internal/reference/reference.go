// Package reference defines the reference record exchanged between fetch
// clients, parsers and the graph builder.
package reference

// Record describes one bibliographic reference. Every field is optional:
// empty strings, nil pointers and nil slices mean the source did not
// provide the value.
type Record struct {
	// Identity
	PMID  string `json:"pmid,omitempty"`  // PubMed identifier
	WoSID string `json:"wosid,omitempty"` // Web of Science identifier
	Title string `json:"title,omitempty"`

	// Bibliographic data merged onto article nodes
	Pubdate  *Pubdate `json:"pubdate,omitempty"`
	Pubtypes []string `json:"pubtypes,omitempty"`
	Citcount *int     `json:"citcount,omitempty"`
	Level    *int     `json:"level,omitempty"` // BFS depth from the search root

	// Relationships
	Authors       []Author            `json:"authors,omitempty"`
	Institutions  map[int]Institution `json:"institutions,omitempty"`
	GrantAgencies []string            `json:"grantagencies,omitempty"`
	MeshTerms     [][]string          `json:"meshterms,omitempty"` // descriptor followed by qualifiers

	// Citation lookup fields (not stored on the graph)
	Journal   string `json:"journal,omitempty"`
	Year      string `json:"year,omitempty"`
	Volume    string `json:"volume,omitempty"`
	FirstPage string `json:"firstpage,omitempty"`
}

// Institution is an affiliation address with its enclosing organizations,
// outermost first.
type Institution struct {
	Address       string   `json:"address"`
	Organizations []string `json:"organizations,omitempty"`
}

// HasIdentifier reports whether the record carries a PMID or WoS ID.
func (r *Record) HasIdentifier() bool {
	return r.PMID != "" || r.WoSID != ""
}

// FirstAuthor returns the name of the first listed author, or "".
func (r *Record) FirstAuthor() string {
	if len(r.Authors) == 0 {
		return ""
	}
	return r.Authors[0].Name
}

// SetLevel sets the level if none is recorded yet.
func (r *Record) SetLevel(level int) {
	if r.Level == nil {
		r.Level = &level
	}
}

// Update copies every field present on other onto r. Fields absent from
// other leave r unchanged; empty author, institution, grant agency and MeSH
// lists count as absent.
func (r *Record) Update(other Record) {
	if other.PMID != "" {
		r.PMID = other.PMID
	}
	if other.WoSID != "" {
		r.WoSID = other.WoSID
	}
	if other.Title != "" {
		r.Title = other.Title
	}
	if other.Pubdate != nil {
		r.Pubdate = other.Pubdate
	}
	if other.Pubtypes != nil {
		r.Pubtypes = other.Pubtypes
	}
	if other.Citcount != nil {
		r.Citcount = other.Citcount
	}
	if other.Level != nil {
		r.Level = other.Level
	}
	if len(other.Authors) > 0 {
		r.Authors = other.Authors
	}
	if len(other.Institutions) > 0 {
		r.Institutions = other.Institutions
	}
	if len(other.GrantAgencies) > 0 {
		r.GrantAgencies = other.GrantAgencies
	}
	if len(other.MeshTerms) > 0 {
		r.MeshTerms = other.MeshTerms
	}
	if other.Journal != "" {
		r.Journal = other.Journal
	}
	if other.Year != "" {
		r.Year = other.Year
	}
	if other.Volume != "" {
		r.Volume = other.Volume
	}
	if other.FirstPage != "" {
		r.FirstPage = other.FirstPage
	}
}

// Package importer reads reference records exported from bibliographic
// databases.
package importer

import (
	"encoding/xml"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

// ErrMalformed is returned for documents that are not Web of Science
// full-record XML.
var ErrMalformed = errors.New("malformed Web of Science export")

var sortDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)

// wosRecord is one REC element of a Web of Science full-record export.
type wosRecord struct {
	UID     string `xml:"UID"`
	Summary struct {
		PubInfo struct {
			SortDate string `xml:"sortdate,attr"`
			Volume   string `xml:"vol,attr"`
		} `xml:"pub_info"`
		Titles []struct {
			Type  string `xml:"type,attr"`
			Value string `xml:",chardata"`
		} `xml:"titles>title"`
		Names []struct {
			AddrNo   string `xml:"addr_no,attr"`
			Standard string `xml:"wos_standard"`
		} `xml:"names>name"`
	} `xml:"static_data>summary"`
	Addresses []struct {
		AddrNo        int      `xml:"addr_no,attr"`
		FullAddress   string   `xml:"full_address"`
		Organizations []string `xml:"organizations>organization"`
	} `xml:"static_data>fullrecord_metadata>addresses>address_name>address_spec"`
	TimesCited []struct {
		Coll  string `xml:"coll_id,attr"`
		Count string `xml:"local_count,attr"`
	} `xml:"dynamic_data>citation_related>tc_list>silo_tc"`
}

// ParseWoS reads every REC element of a Web of Science full-record XML
// export. Records without a UID are reported in errs and skipped; a
// document that cannot be tokenized fails as a whole.
func ParseWoS(r io.Reader) (recs []reference.Record, errs []error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	n := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return recs, append(errs, errors.Wrapf(ErrMalformed, "%v", err))
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "REC" {
			continue
		}

		n++
		var rec wosRecord
		if err := dec.DecodeElement(&rec, &start); err != nil {
			return recs, append(errs, errors.Wrapf(ErrMalformed, "record %d: %v", n, err))
		}
		if strings.TrimSpace(rec.UID) == "" {
			errs = append(errs, errors.Newf("record %d: missing UID", n))
			continue
		}
		recs = append(recs, rec.record())
	}
	return recs, errs
}

func (w wosRecord) record() reference.Record {
	r := reference.Record{WoSID: strings.TrimSpace(w.UID)}

	for _, t := range w.Summary.Titles {
		switch t.Type {
		case "item":
			r.Title = strings.TrimSpace(t.Value)
		case "source":
			r.Journal = strings.TrimSpace(t.Value)
		}
	}

	info := w.Summary.PubInfo
	r.Volume = info.Volume
	if m := sortDateRe.FindStringSubmatch(info.SortDate); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		pd := reference.NewPubdate(year, month, day)
		r.Pubdate = &pd
		r.Year = m[1]
	}

	r.Institutions = map[int]reference.Institution{}
	for _, a := range w.Addresses {
		r.Institutions[a.AddrNo] = reference.Institution{
			Address:       strings.TrimSpace(a.FullAddress),
			Organizations: a.Organizations,
		}
	}

	r.Authors = []reference.Author{}
	for _, name := range w.Summary.Names {
		std := strings.TrimSpace(name.Standard)
		if std == "" {
			continue
		}
		author := reference.Author{Name: std}
		for _, f := range strings.Fields(name.AddrNo) {
			if i, err := strconv.Atoi(f); err == nil {
				author.Institutions = append(author.Institutions, i)
			}
		}
		r.Authors = append(r.Authors, author)
	}

	for _, tc := range w.TimesCited {
		if tc.Coll != "WOS" {
			continue
		}
		if c, err := strconv.Atoi(tc.Count); err == nil {
			r.Citcount = &c
		}
	}
	return r
}

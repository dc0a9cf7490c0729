package export

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// BibTeXIndex indexes existing BibTeX entries so appends skip articles
// already present.
type BibTeXIndex struct {
	// Keys holds every citation key seen.
	Keys map[string]bool
	// PMIDs maps pmid field values to citation keys.
	PMIDs map[string]string
}

// NewBibTeXIndex creates an empty BibTeX index.
func NewBibTeXIndex() *BibTeXIndex {
	return &BibTeXIndex{
		Keys:  make(map[string]bool),
		PMIDs: make(map[string]string),
	}
}

// HasEntry reports whether an entry exists, matching by PMID first and by
// citation key otherwise.
func (idx *BibTeXIndex) HasEntry(key, pmid string) bool {
	if pmid != "" {
		if _, ok := idx.PMIDs[strings.TrimSpace(pmid)]; ok {
			return true
		}
	}
	return idx.Keys[key]
}

var (
	entryStartRegex = regexp.MustCompile(`@\w+\{([^,]+),`)
	pmidFieldRegex  = regexp.MustCompile(`(?i)^\s*pmid\s*=\s*[\{"]([^\}"]+)[\}"]`)
)

// ParseBibTeXFile builds an index from an existing .bib file. A missing
// file yields an empty index.
func ParseBibTeXFile(path string) (*BibTeXIndex, error) {
	idx := NewBibTeXIndex()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var currentKey string

	for scanner.Scan() {
		line := scanner.Text()

		if m := entryStartRegex.FindStringSubmatch(line); len(m) > 1 {
			currentKey = strings.TrimSpace(m[1])
			idx.Keys[currentKey] = true
		}
		if m := pmidFieldRegex.FindStringSubmatch(line); len(m) > 1 && currentKey != "" {
			idx.PMIDs[strings.TrimSpace(m[1])] = currentKey
		}
	}

	return idx, scanner.Err()
}

// AppendToBibFile appends BibTeX content to a file, creating it if needed.
func AppendToBibFile(path, content string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString("\n" + content)
	return err
}

// Package storage handles reference record files and the SQLite analysis
// database.
package storage

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadRecords reads every record from a JSONL file. A missing file yields
// no records.
func ReadRecords(path string) ([]reference.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "opening records file")
	}
	defer f.Close()

	return DecodeRecords(f)
}

// DecodeRecords reads JSONL records from r, skipping blank lines.
func DecodeRecords(r io.Reader) ([]reference.Record, error) {
	var recs []reference.Record
	scanner := bufio.NewScanner(r)

	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec reference.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, errors.Wrapf(err, "parsing line %d", lineNum)
		}
		recs = append(recs, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading records")
	}

	return recs, nil
}

// AppendRecord adds a record to the end of a JSONL file.
func AppendRecord(path string, rec reference.Record) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "opening records file for append")
	}
	defer f.Close()

	return writeRecord(f, rec)
}

// WriteRecords writes all records to a JSONL file, replacing existing content.
func WriteRecords(path string, recs []reference.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating records file")
	}
	defer f.Close()

	for i, rec := range recs {
		if err := writeRecord(f, rec); err != nil {
			return errors.Wrapf(err, "record %d", i)
		}
	}
	return nil
}

func writeRecord(w io.Writer, rec reference.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encoding record")
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "writing record")
	}
	return nil
}

// FindByPMID returns the position of the first record with the given PMID.
func FindByPMID(recs []reference.Record, pmid string) (int, bool) {
	if pmid == "" {
		return -1, false
	}
	for i, rec := range recs {
		if rec.PMID == pmid {
			return i, true
		}
	}
	return -1, false
}

package motion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MotionRecord is one row of the extractor output. Nil coordinates are empty cells.
type MotionRecord struct {
	FrameNumber int
	SrcX        *float64
	SrcY        *float64
	DstX        *float64
	DstY        *float64
}

// Valid reports whether the row carries a motion vector. Only srcx decides.
func (r MotionRecord) Valid() bool {
	return r.SrcX != nil
}

const (
	colFrame = "framenum"
	colSrcX  = "srcx"
	colSrcY  = "srcy"
	colDstX  = "dstx"
	colDstY  = "dsty"
)

var requiredColumns = []string{colFrame, colSrcX, colSrcY, colDstX, colDstY}

// ReadRecords decodes the comma-separated extractor output. The header row is
// required; columns are matched by name and unknown columns are ignored.
func ReadRecords(r io.Reader) ([]MotionRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyStream
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	cols := make(map[string]int, len(requiredColumns))
	for _, name := range requiredColumns {
		i, ok := index[name]
		if !ok {
			return nil, &MalformedRecordError{Line: 1, Reason: fmt.Sprintf("missing column %q", name)}
		}
		cols[name] = i
	}

	var records []MotionRecord
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}

		rec, err := decodeRow(row, cols)
		if err != nil {
			return nil, &MalformedRecordError{Line: line, FrameNumber: rec.FrameNumber, Reason: err.Error()}
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRow(row []string, cols map[string]int) (MotionRecord, error) {
	var rec MotionRecord

	frame := cell(row, cols[colFrame])
	if frame == "" {
		return rec, errors.New("empty framenum")
	}
	n, err := strconv.Atoi(frame)
	if err != nil {
		// some extractor builds print the frame number as a float
		f, ferr := strconv.ParseFloat(frame, 64)
		if ferr != nil || f != float64(int(f)) {
			return rec, fmt.Errorf("framenum %q is not an integer", frame)
		}
		n = int(f)
	}
	rec.FrameNumber = n

	targets := []struct {
		col string
		dst **float64
	}{
		{colSrcX, &rec.SrcX},
		{colSrcY, &rec.SrcY},
		{colDstX, &rec.DstX},
		{colDstY, &rec.DstY},
	}
	for _, t := range targets {
		v, err := parseOptionalFloat(cell(row, cols[t.col]))
		if err != nil {
			return rec, fmt.Errorf("%s: %w", t.col, err)
		}
		*t.dst = v
	}
	return rec, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseOptionalFloat(s string) (*float64, error) {
	switch strings.ToLower(s) {
	case "", "null", "none", "nan", "na", "n/a":
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hupe1980/balltree/distance"
)

// itemKind is the item representation a metric works on.
type itemKind int

const (
	kindFloat64 itemKind = iota
	kindFloat32
	kindString
)

func kindOf(metric string) itemKind {
	switch {
	case distance.IsStringMetric(metric):
		return kindString
	case strings.EqualFold(metric, distance.NameAngular):
		return kindFloat32
	default:
		return kindFloat64
	}
}

// readVectors parses a CSV file with one vector per row. Lines starting with
// '#' are comments. All rows must have the same number of columns.
func readVectors(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseVectors(f, path)
}

func parseVectors(r io.Reader, name string) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	var out [][]float64
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		vec := make([]float64, len(rec))
		for i, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				line, _ := cr.FieldPos(i)
				return nil, fmt.Errorf("%s:%d: column %d: %w", name, line, i+1, err)
			}
			vec[i] = v
		}
		out = append(out, vec)
	}
	return out, nil
}

// checkDims reports an error unless every query has the items' dimension.
// Vector metrics panic on mismatched lengths.
func checkDims[E any](items, queries [][]E) error {
	if len(items) == 0 {
		return nil
	}
	dim := len(items[0])
	for i, q := range queries {
		if len(q) != dim {
			return fmt.Errorf("query %d has dimension %d, items have %d", i, len(q), dim)
		}
	}
	return nil
}

func readVectors32(path string) ([][]float32, error) {
	vecs, err := readVectors(path)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(vecs))
	for i, v := range vecs {
		out[i] = make([]float32, len(v))
		for j, x := range v {
			out[i][j] = float32(x)
		}
	}
	return out, nil
}

// readLines returns the non-empty lines of a text file.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line != "" {
			out = append(out, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

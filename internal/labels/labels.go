// Package labels maps class indices to human-readable names.
package labels

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed imagenet.txt
var imagenet string

// Table is an index-ordered list of class names.
type Table []string

// ImageNet returns the embedded 1000-class ImageNet table.
func ImageNet() Table {
	t, err := Parse(strings.NewReader(imagenet))
	if err != nil {
		panic(fmt.Sprintf("labels: embedded table: %v", err))
	}
	return t
}

// Parse reads one label per line, skipping blank lines.
func Parse(r io.Reader) (Table, error) {
	var t Table
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		t = append(t, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(t) == 0 {
		return nil, errors.New("labels file is empty")
	}
	return t, nil
}

// FromFile loads a newline-delimited labels file.
func FromFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Name returns the label for index, or "unknown" when out of range.
func (t Table) Name(index int) string {
	if index < 0 || index >= len(t) {
		return "unknown"
	}
	return t[index]
}

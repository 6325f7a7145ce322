// Package readfiles reads the text inputs used to seed meshes and particle
// populations: point-coordinate files with one whitespace- or comma-
// separated point per line.
package readfiles

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadPoints reads dim coordinates per line from filename. Blank lines and
// lines starting with '#' or '!' are skipped. An optional leading count
// line (a single integer) is honoured and validated against the number of
// points read.
func ReadPoints(filename string, dim int) ([][]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to open file %s: %w", filename, err)
	}
	defer file.Close()

	var (
		points    [][]float64
		declared  = -1
		firstLine = true
	)
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if firstLine && len(fields) == 1 {
			// Leading count line.
			n, cerr := strconv.Atoi(fields[0])
			if cerr != nil {
				return nil, fmt.Errorf("%s:%d: bad count line %q", filename, lineNo, line)
			}
			declared = n
			firstLine = false
			continue
		}
		firstLine = false
		if len(fields) != dim {
			return nil, fmt.Errorf("%s:%d: expected %d coordinates, got %d",
				filename, lineNo, dim, len(fields))
		}
		pt := make([]float64, dim)
		for d, f := range fields {
			if pt[d], err = strconv.ParseFloat(f, 64); err != nil {
				return nil, fmt.Errorf("%s:%d: bad coordinate %q", filename, lineNo, f)
			}
		}
		points = append(points, pt)
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if declared >= 0 && declared != len(points) {
		return nil, fmt.Errorf("%s: count line declares %d points, file has %d",
			filename, declared, len(points))
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%s: no points found", filename)
	}
	return points, nil
}

// Package data reads observations from text files.
package data

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"bitbucket.org/chiappo/chi2fit/fitter"
)

// log is the global logging variable.
var log = logging.MustGetLogger("data")

// ReadFloats converts string of floats into slice of float64.
func ReadFloats(s string) ([]float64, error) {
	r := strings.NewReader(s)
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	var result []float64
	for scanner.Scan() {
		x, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return result, err
		}
		result = append(result, x)
	}
	return result, scanner.Err()
}

// ReadObservations reads whitespace separated columns "x y" or
// "x y err". Empty lines and lines starting with # are skipped. All
// the lines must have the same number of columns.
func ReadObservations(rd io.Reader) (*fitter.Observations, error) {
	var x, y, e []float64
	cols := 0
	scanner := bufio.NewScanner(rd)
	for lineno := 1; scanner.Scan(); lineno++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f, err := ReadFloats(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineno)
		}
		if len(f) != 2 && len(f) != 3 {
			return nil, errors.Errorf("line %d: expected 2 or 3 columns, got %d", lineno, len(f))
		}
		if cols == 0 {
			cols = len(f)
		}
		if len(f) != cols {
			return nil, errors.Errorf("line %d: expected %d columns, got %d", lineno, cols, len(f))
		}
		x = append(x, f[0])
		y = append(y, f[1])
		if cols == 3 {
			e = append(e, f[2])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	log.Debugf("Read %d observations (%d columns)", len(x), cols)
	return fitter.NewObservations(x, y, e)
}

// ReadObservationsFile reads observations from a file; "-" is the
// standard input.
func ReadObservationsFile(name string) (*fitter.Observations, error) {
	if name == "-" {
		return ReadObservations(os.Stdin)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	obs, err := ReadObservations(f)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return obs, nil
}

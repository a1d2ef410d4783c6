// Package resultfile writes query results in the plain-text result format:
// one "x y" line per point, each coordinate with six decimal places, in
// (Y, X) order. An empty result is an empty file.
package resultfile

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/roach88/cropq/internal/geom"
)

// Format writes points to w.
func Format(w io.Writer, points []geom.Point) error {
	bw := bufio.NewWriter(w)
	for _, p := range points {
		if _, err := bw.WriteString(p.String()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Write creates or truncates path and writes set to it.
func Write(path string, set *geom.PointSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}

	if err := Format(f, set.Points()); err != nil {
		f.Close()
		return fmt.Errorf("write result file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close result file %s: %w", path, err)
	}
	return nil
}

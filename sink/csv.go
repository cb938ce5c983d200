package sink

import (
	"encoding/csv"
	"io"

	"github.com/pkg/errors"

	"github.com/OPENER-next/OpenStop-stats/parser/changeset"
)

// CSV writes changeset rows as RFC 4180 CSV.
type CSV struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSV returns a sink writing to w, with the header row already
// written. If w is an io.Closer it is closed by Close.
func NewCSV(w io.Writer) (*CSV, error) {
	s := &CSV{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	if err := s.w.Write(changeset.Header()); err != nil {
		return nil, errors.Wrap(err, "writing CSV header")
	}
	return s, nil
}

func (s *CSV) Append(row []string) error {
	if err := s.w.Write(row); err != nil {
		return errors.Wrap(err, "writing CSV row")
	}
	return nil
}

func (s *CSV) Close() error {
	s.w.Flush()
	err := s.w.Error()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return errors.Wrap(err, "closing CSV sink")
}

package pipeline

import (
	"github.com/pkg/errors"

	"github.com/OPENER-next/OpenStop-stats/parser/changeset"
	"github.com/OPENER-next/OpenStop-stats/queue"
	"github.com/OPENER-next/OpenStop-stats/sink"
)

// parse drains decompressed XML from in, feeds it to the incremental
// changeset parser and appends every record passing the editor filter
// to snk. Malformed markup or a sink failure is fatal and aborts the
// input queue, which cascades upstream.
func parse(in *queue.Queue, editorFilter string, snk sink.RowSink) error {
	p := changeset.NewParser(queue.NewReader(in), func(cs *changeset.Changeset) error {
		if !cs.MatchesEditor(editorFilter) {
			return nil
		}
		return snk.Append(cs.Row())
	})

	if err := p.Parse(); err != nil {
		if errors.Cause(err) == queue.ErrAborted {
			// Upstream failed, nothing to report from here.
			return nil
		}
		in.Abort()
		return errors.Wrap(err, "parsing changeset XML")
	}
	return nil
}

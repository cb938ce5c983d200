// Package pipeline converts a bzip2-compressed changeset planet dump
// into rows on a sink, as a three-stage streaming pipeline:
//
//	fetch -> [queue] -> decompress -> [queue] -> parse -> sink
//
// Each stage runs as one goroutine, the bounded queues between them
// provide backpressure so memory use stays constant regardless of the
// input size. A fatal error in one stage aborts both queues of that
// stage which unblocks and stops the others.
package pipeline

import (
	"net/http"
	"sync"

	"github.com/pkg/errors"

	"github.com/OPENER-next/OpenStop-stats/queue"
	"github.com/OPENER-next/OpenStop-stats/sink"
	"github.com/OPENER-next/OpenStop-stats/stats"
)

const (
	DefaultChunkSize  = 1024 * 1024
	DefaultQueueDepth = 10
)

// Config describes one pipeline run.
type Config struct {
	// URL of the bzip2-compressed changeset dump.
	URL string
	// EditorFilter is matched as prefix against the created_by tag
	// of every changeset. Empty matches all.
	EditorFilter string
	// ChunkSize is the maximum size of the byte chunks moved between
	// the stages. Defaults to 1 MiB.
	ChunkSize int
	// QueueDepth is the chunk capacity of each queue. Defaults to 10.
	QueueDepth int
	// Client is used for the download. Defaults to http.DefaultClient.
	Client *http.Client
	// Progress receives transferred byte counts, may be nil.
	Progress *stats.Progress
}

// Run executes the pipeline until the dump is fully converted or a
// stage fails. Rows already appended to snk before a failure stay
// written; snk is closed in either case. The returned error names the
// failing stage.
func Run(config Config, snk sink.RowSink) error {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	if config.QueueDepth <= 0 {
		config.QueueDepth = DefaultQueueDepth
	}
	if config.Client == nil {
		config.Client = http.DefaultClient
	}

	compressed := queue.New(config.QueueDepth)
	decompressed := queue.New(config.QueueDepth)

	var fetchErr, decompressErr, parseErr error
	wg := sync.WaitGroup{}
	wg.Add(3)
	go func() {
		defer wg.Done()
		fetchErr = fetch(config, compressed)
	}()
	go func() {
		defer wg.Done()
		decompressErr = decompress(compressed, decompressed, config.ChunkSize)
	}()
	go func() {
		defer wg.Done()
		parseErr = parse(decompressed, config.EditorFilter, snk)
	}()
	wg.Wait()

	err := runError(fetchErr, decompressErr, parseErr)
	if cerr := snk.Close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "sink")
	}
	return err
}

// runError picks the error reported to the caller. A transport
// failure truncates the stream and usually makes the downstream
// stages fail too, so it is reported as the root cause when present.
func runError(fetchErr, decompressErr, parseErr error) error {
	if fetchErr != nil {
		return errors.Wrap(fetchErr, "download")
	}
	if decompressErr != nil {
		return errors.Wrap(decompressErr, "decompress")
	}
	if parseErr != nil {
		return errors.Wrap(parseErr, "parse")
	}
	return nil
}

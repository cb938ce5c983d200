package pipeline

import (
	"compress/bzip2"
	"io"

	"github.com/pkg/errors"

	"github.com/OPENER-next/OpenStop-stats/queue"
)

// decompress streams bzip2 data from in onto out in chunks of at most
// chunkSize decompressed bytes.
//
// Planet dumps are written as multiple independently terminated bzip2
// members concatenated into one stream. The decoder is fed through
// queue.Reader, which implements io.ByteReader, so it consumes the
// stream byte-exact and restarts itself on every member boundary it
// finds; output continues seamlessly across members no matter how
// many boundaries fall into a single input chunk. Losing this
// property would silently truncate the output after the first member.
//
// A decode error is fatal: both queues are aborted so neither the
// fetcher (blocked pushing) nor the parser (blocked popping) can
// hang. A graceful close of in propagates as a graceful close of out.
func decompress(in, out *queue.Queue, chunkSize int) error {
	cr := &countingReader{r: queue.NewReader(in)}
	zr := bzip2.NewReader(cr)

	buf := make([]byte, chunkSize)
	for {
		n, err := zr.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if !out.Push(chunk) {
				// Parser gave up, release the fetcher as well.
				in.Abort()
				return nil
			}
		}
		switch {
		case err == nil:
		case err == io.EOF:
			out.Close()
			return nil
		case err == io.ErrUnexpectedEOF && cr.read == 0:
			// The source closed before delivering a single byte
			// (e.g. a failed download). Empty input decompresses
			// to empty output.
			out.Close()
			return nil
		case errors.Cause(err) == queue.ErrAborted:
			out.Abort()
			return nil
		default:
			in.Abort()
			out.Abort()
			return errors.Wrap(err, "decoding bzip2 stream")
		}
	}
}

// countingReader counts consumed bytes. It passes ReadByte through so
// the bzip2 decoder still sees an io.ByteReader.
type countingReader struct {
	r    *queue.Reader
	read int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.read++
	}
	return b, err
}

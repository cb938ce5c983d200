// Package sink provides the row writers the pipeline emits changeset
// records to. A sink accepts rows in the fixed column order of
// changeset.Header; the first row written is the header.
package sink

// RowSink appends rows in a fixed column order. Append is called from
// a single goroutine. Close flushes buffered rows; rows appended
// before a pipeline failure stay written, there is no rollback.
type RowSink interface {
	Append(row []string) error
	Close() error
}

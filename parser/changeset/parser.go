package changeset

import (
	"encoding/xml"
	"io"
)

// Parser incrementally scans changeset XML and calls a callback once
// per closed <changeset> element. It holds at most one record at a
// time, so arbitrarily large dumps parse in constant memory. Chunking
// of the input reader does not affect the parse result.
type Parser struct {
	dec      *xml.Decoder
	callback func(*Changeset) error
}

// NewParser returns a parser reading from r. The callback is invoked
// for every completed changeset; a non-nil callback error stops the
// parse.
func NewParser(r io.Reader, callback func(*Changeset) error) *Parser {
	return &Parser{
		dec:      xml.NewDecoder(r),
		callback: callback,
	}
}

// Parse consumes the stream until EOF. Malformed markup stops the
// parse with an error; a record is never emitted before its closing
// tag was seen.
func (p *Parser) Parse() error {
	var current *Changeset
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch tok := tok.(type) {
		case xml.StartElement:
			switch tok.Name.Local {
			case "changeset":
				current = &Changeset{}
				for _, attr := range tok.Attr {
					switch attr.Name.Local {
					case "id":
						current.ID = attr.Value
					case "created_at":
						current.CreatedAt = attr.Value
					case "closed_at":
						current.ClosedAt = attr.Value
					case "num_changes":
						current.NumChanges = attr.Value
					case "uid":
						current.UID = attr.Value
					case "min_lat":
						current.MinLat = attr.Value
					case "max_lat":
						current.MaxLat = attr.Value
					case "min_lon":
						current.MinLon = attr.Value
					case "max_lon":
						current.MaxLon = attr.Value
					}
				}
			case "tag":
				if current == nil {
					break
				}
				var k, v string
				for _, attr := range tok.Attr {
					switch attr.Name.Local {
					case "k":
						k = attr.Value
					case "v":
						v = attr.Value
					}
				}
				switch k {
				case "comment":
					current.Comment = v
				case "created_by":
					current.CreatedBy = v
				case "locale":
					current.Locale = v
				}
			}
		case xml.EndElement:
			if tok.Name.Local == "changeset" && current != nil {
				cs := current
				current = nil
				if err := p.callback(cs); err != nil {
					return err
				}
			}
		}
	}
}

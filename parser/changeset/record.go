package changeset

import "strings"

// Changeset is one <changeset> element of a planet dump. All fields
// carry the original textual representation from the XML; values are
// routed, not validated or converted. Absent attributes and tags stay
// at the empty string so every record maps to a fully populated row.
type Changeset struct {
	ID         string
	CreatedAt  string
	ClosedAt   string
	NumChanges string
	UID        string
	MinLat     string
	MaxLat     string
	MinLon     string
	MaxLon     string
	Comment    string
	CreatedBy  string
	Locale     string
}

// Header returns the column order of emitted rows. Downstream
// consumers depend on this order, do not change it without a version
// bump.
func Header() []string {
	return []string{
		"id", "created_at", "closed_at", "num_changes", "uid",
		"min_lat", "max_lat", "min_lon", "max_lon",
		"comment", "created_by", "locale",
	}
}

// Row returns the record as one row in Header order.
func (c *Changeset) Row() []string {
	return []string{
		c.ID, c.CreatedAt, c.ClosedAt, c.NumChanges, c.UID,
		c.MinLat, c.MaxLat, c.MinLon, c.MaxLon,
		c.Comment, c.CreatedBy, c.Locale,
	}
}

// MatchesEditor reports whether the record passes an editor filter.
// The filter is a plain case-sensitive prefix match against the
// created_by tag; the empty filter matches every record. A record
// without a created_by tag is matched against the empty string, so
// any non-empty filter excludes it.
func (c *Changeset) MatchesEditor(filter string) bool {
	return strings.HasPrefix(c.CreatedBy, filter)
}

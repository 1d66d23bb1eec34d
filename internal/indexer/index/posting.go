package index

// PositionRecord locates one occurrence of a token inside an article.
// Trailing keeps any line or paragraph break marker.
type PositionRecord struct {
	Paragraph int    `json:"paragraph"`
	Line      int    `json:"line"`
	Position  int    `json:"position"`
	Leading   string `json:"leading"`
	Trailing  string `json:"trailing"`
}

// Less orders records in reading order.
func (r PositionRecord) Less(o PositionRecord) bool {
	if r.Paragraph != o.Paragraph {
		return r.Paragraph < o.Paragraph
	}
	if r.Line != o.Line {
		return r.Line < o.Line
	}
	return r.Position < o.Position
}

// Slot is the (paragraph, line, position) triple of a record.
type Slot struct {
	Paragraph int `json:"paragraph"`
	Line      int `json:"line"`
	Position  int `json:"position"`
}

func (r PositionRecord) Slot() Slot {
	return Slot{Paragraph: r.Paragraph, Line: r.Line, Position: r.Position}
}

// OccurrenceGroup is every position of one token within one article.
type OccurrenceGroup struct {
	ArticleID int64            `json:"article_id"`
	Positions []PositionRecord `json:"positions"`
}

// TokenEntry is a token and its occurrence groups, one per article, in
// ingestion order.
type TokenEntry struct {
	Token  string            `json:"token"`
	Groups []OccurrenceGroup `json:"groups"`
}

// Group returns the occurrence group for articleID, if any.
func (e *TokenEntry) Group(articleID int64) (OccurrenceGroup, bool) {
	for _, g := range e.Groups {
		if g.ArticleID == articleID {
			return g, true
		}
	}
	return OccurrenceGroup{}, false
}

// Occurrences counts positions across every group.
func (e *TokenEntry) Occurrences() int {
	n := 0
	for _, g := range e.Groups {
		n += len(g.Positions)
	}
	return n
}

func (e *TokenEntry) clone() *TokenEntry {
	out := &TokenEntry{Token: e.Token, Groups: make([]OccurrenceGroup, len(e.Groups))}
	for i, g := range e.Groups {
		out.Groups[i] = OccurrenceGroup{
			ArticleID: g.ArticleID,
			Positions: append([]PositionRecord(nil), g.Positions...),
		}
	}
	return out
}

package record

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// Regulation is the closed, strongly typed record persisted to the
// regulations table. Optional attributes use pgtype values so NULLs survive
// the round trip.
type Regulation struct {
	CreatedAt        pgtype.Date
	UpdateAt         pgtype.Timestamp
	IsActive         pgtype.Bool
	Title            pgtype.Text
	Gtype            pgtype.Text
	Entity           pgtype.Text
	ExternalLink     pgtype.Text
	RtypeID          pgtype.Int8
	Summary          pgtype.Text
	ClassificationID pgtype.Int8
}

// Projection is the subset of persisted columns the reconciler compares
// against. ExternalLink is already coalesced to the empty string by the
// store query.
type Projection struct {
	Title        string
	CreatedAt    string
	Entity       string
	ExternalLink string
}

// Key returns the identity key of a persisted projection.
func (p Projection) Key() string {
	return IdentityKey(p.Title, p.CreatedAt, p.ExternalLink)
}

// Key returns the identity key of a regulation. A NULL external link
// contributes an empty string, matching the store-side COALESCE.
func (r Regulation) Key() string {
	link := ""
	if r.ExternalLink.Valid {
		link = r.ExternalLink.String
	}
	created := ""
	if r.CreatedAt.Valid {
		created = r.CreatedAt.Time.Format(DateLayout)
	}
	return IdentityKey(r.Title.String, created, link)
}

// RegulationFromRow builds a Regulation from a validated row. Fields the
// row does not carry become NULL.
func RegulationFromRow(row Row) Regulation {
	return Regulation{
		CreatedAt:        ToPgDate(row["created_at"]),
		UpdateAt:         ToPgTimestamp(row["update_at"]),
		IsActive:         ToPgBool(row["is_active"]),
		Title:            ToPgText(row["title"]),
		Gtype:            ToPgText(row["gtype"]),
		Entity:           ToPgText(row["entity"]),
		ExternalLink:     ToPgText(row["external_link"]),
		RtypeID:          ToPgInt8(row["rtype_id"]),
		Summary:          ToPgText(row["summary"]),
		ClassificationID: ToPgInt8(row["classification_id"]),
	}
}

// RegulationsFromFrame converts every row of a validated frame, preserving
// input order.
func RegulationsFromFrame(f Frame) []Regulation {
	out := make([]Regulation, 0, len(f.Rows))
	for _, row := range f.Rows {
		out = append(out, RegulationFromRow(row))
	}
	return out
}

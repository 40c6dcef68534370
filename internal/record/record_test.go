package record

import (
	"testing"
	"time"
)

func TestIdentityKeyNormalization(t *testing.T) {
	tests := []struct {
		name                     string
		title, created, link     string
		otherTitle, otherCreated string
		otherLink                string
		wantEqual                bool
	}{
		{
			name:  "title whitespace trimmed",
			title: "  Decreto 100 ", created: "2024-01-01", link: "https://x",
			otherTitle: "Decreto 100", otherCreated: "2024-01-01", otherLink: "https://x",
			wantEqual: true,
		},
		{
			name:  "link compared verbatim",
			title: "Decreto 100", created: "2024-01-01", link: "https://x/",
			otherTitle: "Decreto 100", otherCreated: "2024-01-01", otherLink: "https://x",
			wantEqual: false,
		},
		{
			name:  "date part distinguishes",
			title: "Decreto 100", created: "2024-01-01", link: "https://x",
			otherTitle: "Decreto 100", otherCreated: "2024-01-02", otherLink: "https://x",
			wantEqual: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := IdentityKey(tt.title, tt.created, tt.link)
			b := IdentityKey(tt.otherTitle, tt.otherCreated, tt.otherLink)
			if (a == b) != tt.wantEqual {
				t.Errorf("keys %q vs %q: equal = %v, want %v", a, b, a == b, tt.wantEqual)
			}
		})
	}
}

func TestRegulationKeyMatchesProjectionKey(t *testing.T) {
	reg := RegulationFromRow(Row{
		"title":         "Decreto 100",
		"created_at":    "2024-03-05",
		"external_link": "https://x/100",
	})
	p := Projection{Title: "Decreto 100", CreatedAt: "2024-03-05", ExternalLink: "https://x/100"}

	if reg.Key() != p.Key() {
		t.Errorf("regulation key %q != projection key %q", reg.Key(), p.Key())
	}
}

func TestRegulationKeyNullLink(t *testing.T) {
	reg := RegulationFromRow(Row{
		"title":      "Decreto 100",
		"created_at": "2024-03-05",
	})
	p := Projection{Title: "Decreto 100", CreatedAt: "2024-03-05", ExternalLink: ""}

	if reg.Key() != p.Key() {
		t.Errorf("NULL link key %q must match coalesced empty link %q", reg.Key(), p.Key())
	}
}

func TestCanonicalString(t *testing.T) {
	date := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"plain", "plain"},
		{date, "2024-06-15"},
		{int64(42), "42"},
		{7, "7"},
		{3.5, "3.5"},
		{true, "true"},
	}

	for _, tt := range tests {
		if got := CanonicalString(tt.in); got != tt.want {
			t.Errorf("CanonicalString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRegulationFromRow(t *testing.T) {
	row := Row{
		"title":             "Decreto 100",
		"created_at":        time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		"is_active":         true,
		"entity":            "ANI",
		"external_link":     "https://x/100",
		"rtype_id":          int64(14),
		"classification_id": 13,
	}

	reg := RegulationFromRow(row)

	if !reg.Title.Valid || reg.Title.String != "Decreto 100" {
		t.Errorf("Title = %+v", reg.Title)
	}
	if !reg.CreatedAt.Valid || reg.CreatedAt.Time.Format(DateLayout) != "2024-01-02" {
		t.Errorf("CreatedAt = %+v", reg.CreatedAt)
	}
	if !reg.IsActive.Valid || !reg.IsActive.Bool {
		t.Errorf("IsActive = %+v", reg.IsActive)
	}
	if !reg.RtypeID.Valid || reg.RtypeID.Int64 != 14 {
		t.Errorf("RtypeID = %+v", reg.RtypeID)
	}
	if !reg.ClassificationID.Valid || reg.ClassificationID.Int64 != 13 {
		t.Errorf("ClassificationID = %+v", reg.ClassificationID)
	}
	if reg.Summary.Valid || reg.Gtype.Valid || reg.UpdateAt.Valid {
		t.Error("absent fields must map to NULL")
	}
}

func TestConvertersNullOnInvalid(t *testing.T) {
	if ToPgText(nil).Valid || ToPgText("   ").Valid {
		t.Error("ToPgText: nil and blank must be NULL")
	}
	if ToPgDate("15/01/2024").Valid || ToPgDate(nil).Valid {
		t.Error("ToPgDate: non-canonical input must be NULL")
	}
	if ToPgInt8("abc").Valid || ToPgInt8(nil).Valid {
		t.Error("ToPgInt8: unparseable input must be NULL")
	}
	if ToPgFloat8("abc").Valid {
		t.Error("ToPgFloat8: unparseable input must be NULL")
	}
	if ToPgBool("maybe").Valid || ToPgBool(nil).Valid {
		t.Error("ToPgBool: unrecognized input must be NULL")
	}

	if got := ToPgInt8("42"); !got.Valid || got.Int64 != 42 {
		t.Errorf("ToPgInt8(\"42\") = %+v", got)
	}
	if got := ToPgBool("yes"); !got.Valid || !got.Bool {
		t.Errorf("ToPgBool(\"yes\") = %+v", got)
	}
	if got := ToPgFloat8("3.5"); !got.Valid || got.Float64 != 3.5 {
		t.Errorf("ToPgFloat8(\"3.5\") = %+v", got)
	}
}

func TestRowCloneIsIndependent(t *testing.T) {
	orig := Row{"title": "a"}
	clone := orig.Clone()
	clone["title"] = "b"

	if orig["title"] != "a" {
		t.Error("mutating the clone leaked into the original")
	}
}

func TestFrameHasColumn(t *testing.T) {
	f := Frame{Columns: []string{"title", "created_at"}}
	if !f.HasColumn("title") || f.HasColumn("summary") {
		t.Error("HasColumn misreported membership")
	}
}

package extract

import (
	"regexp"
	"strings"
)

// Document classification by title keyword. Unrecognized titles fall back
// to the decree type.
const (
	rtypeResolution = 15
	rtypeDecree     = 14
	defaultRtypeID  = rtypeDecree
)

var classificationKeywords = []struct {
	keyword string
	rtypeID int64
}{
	{"resolución", rtypeResolution},
	{"resolucion", rtypeResolution},
	{"decreto", rtypeDecree},
}

// quotePattern matches typographic and plain quote characters that the
// listing mixes into titles and summaries.
var quotePattern = regexp.MustCompile(`["'` + "`´" + `\x{201C}\x{201D}\x{2018}\x{2019}\x{00AB}\x{00BB}\x{201E}\x{201A}\x{2039}\x{203A}\x{2032}\x{2033}]`)

// CleanQuotes strips quote characters and collapses internal whitespace.
func CleanQuotes(s string) string {
	if s == "" {
		return s
	}
	s = quotePattern.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}

// RtypeFor classifies a document title into its regulation type id.
func RtypeFor(title string) int64 {
	lower := strings.ToLower(title)
	for _, c := range classificationKeywords {
		if strings.Contains(lower, c.keyword) {
			return c.rtypeID
		}
	}
	return defaultRtypeID
}

// NormalizeDate rewrites the listing's date spellings to YYYY-MM-DD:
// ISO-with-time keeps the date part, dd/mm/yyyy is rearranged, anything
// else passes through for the validation engine to judge.
func NormalizeDate(raw string) string {
	if raw == "" {
		return ""
	}
	if i := strings.IndexByte(raw, 'T'); i >= 0 {
		return raw[:i]
	}
	if strings.Count(raw, "/") == 2 {
		parts := strings.Split(raw, "/")
		day, month, year := parts[0], parts[1], parts[2]
		if len(day) == 1 {
			day = "0" + day
		}
		if len(month) == 1 {
			month = "0" + month
		}
		return year + "-" + month + "-" + day
	}
	return raw
}

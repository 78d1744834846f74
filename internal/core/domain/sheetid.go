package domain

import "regexp"

var (
	// sheetURLRe matches the id inside a Google Sheets URL,
	// e.g. https://docs.google.com/spreadsheets/d/<id>/edit#gid=0.
	sheetURLRe = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

	// sheetIDRe matches a bare sheet id. Real ids are ~44 characters of
	// base64url; 30 is a safe lower bound that still rejects chat noise.
	sheetIDRe = regexp.MustCompile(`^[a-zA-Z0-9-_]{30,}$`)
)

// ExtractSheetID parses a Google Sheets URL or bare id out of the
// specifier given to "bot start outreach". Returns "" when the input is
// neither a recognisable URL nor something that looks like a sheet id.
func ExtractSheetID(specifier string) string {
	if m := sheetURLRe.FindStringSubmatch(specifier); m != nil {
		return m[1]
	}
	if sheetIDRe.MatchString(specifier) {
		return specifier
	}
	return ""
}

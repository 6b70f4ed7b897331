package language

import "strings"

type entry struct {
	code    string // ISO 639-1 (2-letter), as the detector reports it
	display string // Human-readable name
}

// languages covers every code the charset recognizers can emit. Unicode
// recognizers report no language at all.
var languages = []entry{
	{"ar", "Arabic"},
	{"cs", "Czech"},
	{"da", "Danish"},
	{"de", "German"},
	{"el", "Greek"},
	{"en", "English"},
	{"es", "Spanish"},
	{"fr", "French"},
	{"he", "Hebrew"},
	{"hu", "Hungarian"},
	{"it", "Italian"},
	{"ja", "Japanese"},
	{"ko", "Korean"},
	{"nl", "Dutch"},
	{"no", "Norwegian"},
	{"pl", "Polish"},
	{"pt", "Portuguese"},
	{"ro", "Romanian"},
	{"ru", "Russian"},
	{"sv", "Swedish"},
	{"tr", "Turkish"},
	{"zh", "Chinese"},
}

var byCode map[string]string

func init() {
	byCode = make(map[string]string, len(languages))
	for _, e := range languages {
		byCode[e.code] = e.display
	}
}

// DisplayName returns the spelled-out name for a detector language code.
// Empty input stays empty; codes outside the table pass through unchanged
// so output never hides what the detector actually said.
func DisplayName(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if display, ok := byCode[code]; ok {
		return display
	}
	return code
}

package language

import (
	"strings"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
)

// Unknown is the sidecar tag used when no language can be determined.
const Unknown = "un"

type entry struct {
	code2 string   // ISO 639-1
	alt3  string   // ISO 639-2/B where it differs from 639-2/T
	words []string // English names
}

// Bibliographic codes and word forms that x/text does not resolve on its own.
var languages = []entry{
	{"en", "", []string{"english"}},
	{"es", "", []string{"spanish", "castilian"}},
	{"fr", "fre", []string{"french"}},
	{"de", "ger", []string{"german"}},
	{"it", "", []string{"italian"}},
	{"pt", "", []string{"portuguese"}},
	{"ja", "", []string{"japanese"}},
	{"ko", "", []string{"korean"}},
	{"zh", "chi", []string{"chinese", "mandarin"}},
	{"ru", "", []string{"russian"}},
	{"ar", "", []string{"arabic"}},
	{"nl", "dut", []string{"dutch", "flemish"}},
	{"cs", "cze", []string{"czech"}},
	{"el", "gre", []string{"greek"}},
	{"fa", "per", []string{"persian", "farsi"}},
	{"ro", "rum", []string{"romanian"}},
	{"sk", "slo", []string{"slovak"}},
	{"sv", "", []string{"swedish"}},
	{"no", "", []string{"norwegian"}},
}

var aliases = func() map[string]string {
	m := make(map[string]string, len(languages)*3)
	for _, e := range languages {
		if e.alt3 != "" {
			m[e.alt3] = e.code2
		}
		for _, w := range e.words {
			m[w] = e.code2
		}
	}
	return m
}()

// ToISO2 converts a language code or English name to ISO 639-1.
// Returns "" when the input has no two-letter equivalent.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if mapped, ok := aliases[code]; ok {
		return mapped
	}
	// BCP 47 tags such as en-US or pt_BR.
	code = strings.ReplaceAll(code, "_", "-")
	if primary, _, found := strings.Cut(code, "-"); found {
		code = primary
	}
	base, err := xlanguage.ParseBase(code)
	if err != nil {
		return ""
	}
	iso2 := base.String()
	if len(iso2) != 2 {
		return ""
	}
	return iso2
}

// SidecarTag returns the language tag used in extracted subtitle names.
func SidecarTag(code string) string {
	if iso2 := ToISO2(code); iso2 != "" {
		return iso2
	}
	return Unknown
}

// DisplayName returns a label for log and table output.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" || strings.EqualFold(trimmed, Unknown) {
		return "Unknown"
	}
	iso2 := ToISO2(trimmed)
	for _, e := range languages {
		if e.code2 == iso2 {
			return cases.Title(xlanguage.English).String(e.words[0])
		}
	}
	if iso2 != "" {
		return strings.ToUpper(iso2)
	}
	return strings.ToUpper(trimmed)
}

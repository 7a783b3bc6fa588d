package tess

import (
	"strings"

	"golang.org/x/text/language"
)

// trainedDataCodes maps ISO 639-1 bases to the tesseract traineddata names
// that differ from the plain ISO 639-2/T code.
var trainedDataCodes = map[string]string{
	"en": "eng",
	"de": "deu",
	"fr": "fra",
	"es": "spa",
	"it": "ita",
	"pt": "por",
	"nl": "nld",
	"ru": "rus",
	"uk": "ukr",
	"pl": "pol",
	"cs": "ces",
	"ja": "jpn",
	"ko": "kor",
	"zh": "chi_sim",
	"ar": "ara",
	"tr": "tur",
	"sv": "swe",
	"da": "dan",
	"fi": "fin",
	"no": "nor",
	"el": "ell",
	"he": "heb",
}

// normalizeLanguages converts configured language identifiers to tesseract
// traineddata names. BCP 47 tags ("en", "de-AT") are reduced to their base
// language; anything already three letters or longer is passed through as a
// tesseract code.
func normalizeLanguages(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		out = append(out, normalizeLanguage(code))
	}
	return out
}

func normalizeLanguage(code string) string {
	if len(code) >= 3 && !strings.ContainsAny(code, "-_") {
		return code
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	base, _ := tag.Base()
	if name, ok := trainedDataCodes[base.String()]; ok {
		return name
	}
	return base.ISO3()
}

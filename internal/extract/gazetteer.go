package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// provinces is the fixed gazetteer of Turkish province names, in canonical
// spelling. Matching is case- and diacritic-insensitive; hits are returned
// in this canonical form.
var provinces = []string{
	"Adana", "Adıyaman", "Afyonkarahisar", "Ağrı", "Aksaray", "Amasya",
	"Ankara", "Antalya", "Ardahan", "Artvin", "Aydın", "Balıkesir",
	"Bartın", "Batman", "Bayburt", "Bilecik", "Bingöl", "Bitlis", "Bolu",
	"Burdur", "Bursa", "Çanakkale", "Çankırı", "Çorum", "Denizli",
	"Diyarbakır", "Düzce", "Edirne", "Elazığ", "Erzincan", "Erzurum",
	"Eskişehir", "Gaziantep", "Giresun", "Gümüşhane", "Hakkari", "Hatay",
	"Iğdır", "Isparta", "İstanbul", "İzmir", "Kahramanmaraş", "Karabük",
	"Karaman", "Kars", "Kastamonu", "Kayseri", "Kırıkkale", "Kırklareli",
	"Kırşehir", "Kilis", "Kocaeli", "Konya", "Kütahya", "Malatya",
	"Manisa", "Mardin", "Mersin", "Muğla", "Muş", "Nevşehir", "Niğde",
	"Ordu", "Osmaniye", "Rize", "Sakarya", "Samsun", "Siirt", "Sinop",
	"Sivas", "Şanlıurfa", "Şırnak", "Tekirdağ", "Tokat", "Trabzon",
	"Tunceli", "Uşak", "Van", "Yalova", "Yozgat", "Zonguldak",
}

var (
	turkishLower = cases.Lower(language.Turkish)
	turkishTitle = cases.Title(language.Turkish)

	// stripMarks removes combining diacritical marks after NFD decomposition,
	// so ş/ç/ğ/ö/ü fold to their base letters.
	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Fold normalizes text for gazetteer comparison: Turkish lowercasing,
// diacritic stripping, and dotless-ı folding.
func Fold(s string) string {
	s = turkishLower.String(s)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	return strings.ReplaceAll(s, "ı", "i")
}

// foldedProvinces maps folded province names to their canonical spelling.
var foldedProvinces = func() map[string]string {
	m := make(map[string]string, len(provinces))
	for _, p := range provinces {
		m[Fold(p)] = p
	}
	return m
}()

// MatchCity scans the message for a gazetteer city and returns its canonical
// spelling. Multi-word messages are scanned token by token so embedded names
// ("İzmir'de bir ev") still match.
func MatchCity(message string) (string, bool) {
	folded := Fold(message)

	// Whole-message match first: covers answers that are just the city name.
	if canonical, ok := foldedProvinces[strings.TrimSpace(folded)]; ok {
		return canonical, true
	}

	for _, token := range strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if canonical, ok := foldedProvinces[token]; ok {
			return canonical, true
		}
	}
	return "", false
}

// TitleCase renders free-text place names in Turkish title case, used when a
// message names a place the gazetteer does not know.
func TitleCase(s string) string {
	return turkishTitle.String(strings.TrimSpace(s))
}

package scan

import "golang.org/x/text/language"

// Slot 0 of the icon row carries no printed icon.
var iconCatalogs = map[language.Tag][]string{
	language.English:   {"", "arrow", "diamond", "apple", "bell", "clover", "star", "horseshoe"},
	language.Hungarian: {"", "nyíl", "gyémánt", "alma", "csengő", "lóhere", "csillag", "patkó"},
}

var catalogMatcher = language.NewMatcher([]language.Tag{language.English, language.Hungarian})

// IconCatalog returns the icon names for the best match of lang, which may be
// a BCP 47 tag or an Accept-Language style list. Unknown languages get English.
func IconCatalog(lang string) []string {
	tag, _ := language.MatchStrings(catalogMatcher, lang)
	base, _ := tag.Base()
	for t, names := range iconCatalogs {
		if b, _ := t.Base(); b == base {
			return names
		}
	}
	return iconCatalogs[language.English]
}

// IconNames maps selected segment indices to names. Indices without a
// printed icon are skipped.
func IconNames(selected []int, lang string) []string {
	catalog := IconCatalog(lang)
	names := make([]string, 0, len(selected))
	for _, i := range selected {
		if i < 0 || i >= len(catalog) || catalog[i] == "" {
			continue
		}
		names = append(names, catalog[i])
	}
	return names
}

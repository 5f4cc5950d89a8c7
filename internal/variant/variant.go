// Package variant removes alternate forms so only base-form Pokémon are listed.
package variant

import (
	"strings"

	"github.com/five82/dex/internal/pokeapi"
)

// excludedPatterns mark form, size and event variants anywhere in the name.
var excludedPatterns = []string{
	"-mega", "-gmax", "-alola", "-galar", "-hisui", "-paldea",
	"-totem", "-eternamax", "-primal", "-ash", "-battle",
	"-noice", "-noface", "-original", "-starter", "-cosplay",
	"-rock-star", "-belle", "-pop-star", "-phd", "-libre",
	"-10", "-25", "-50", "-100", "-confined", "-unbound",
	"-disguised", "-school", "-sensu", "-dada", "-hero",
}

// excludedPrefixes are species whose every suffixed entry is an alternate form.
var excludedPrefixes = []string{
	"pikachu-", "unown-", "castform-", "deoxys-", "wormadam-",
	"shaymin-", "giratina-", "rotom-", "basculin-", "darmanitan-",
	"meloetta-", "genesect-", "vivillon-", "flabebe-", "floette-",
	"florges-", "furfrou-", "hoopa-", "oricorio-", "lycanroc-",
	"wishiwashi-", "silvally-", "minior-", "mimikyu-", "necrozma-",
	"magearna-", "cramorant-", "eiscue-", "morpeko-", "zacian-",
	"zamazenta-", "eternatus-", "urshifu-", "calyrex-",
}

// IsBaseForm reports whether name survives every exclusion rule.
func IsBaseForm(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range excludedPatterns {
		if strings.Contains(lower, p) {
			return false
		}
	}
	for _, p := range excludedPrefixes {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	if strings.Contains(lower, "-") {
		return false
	}
	return !strings.Contains(lower, "eternamax") && !strings.Contains(lower, "totem")
}

// Filter returns the base-form summaries in their original order.
func Filter(items []pokeapi.Summary) []pokeapi.Summary {
	var out []pokeapi.Summary
	for _, item := range items {
		if IsBaseForm(item.Name) {
			out = append(out, item)
		}
	}
	return out
}

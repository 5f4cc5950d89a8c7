package ui

import "testing"

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Nightfox" || names[1] != "Kanagawa" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Nightfox Kanagawa Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Nightfox", "Kanagawa"},
		{"Kanagawa", "Slate"},
		{"Slate", "Nightfox"},
		{"Unknown", "Nightfox"},
	}
	for _, tt := range tests {
		if got := NextTheme(tt.in); got != tt.want {
			t.Fatalf("NextTheme(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetThemeFallback(t *testing.T) {
	if got := GetTheme("Unknown").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Unknown).Name = %q, want Nightfox", got)
	}
}

func TestTypeColors(t *testing.T) {
	kinds := []string{
		"normal", "fire", "water", "electric", "grass", "ice", "fighting", "poison", "ground",
		"flying", "psychic", "bug", "rock", "ghost", "dragon", "dark", "steel", "fairy",
	}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, k := range kinds {
			if th.TypeColors[k] == "" {
				t.Fatalf("%s: no color for type %q", name, k)
			}
		}
		if got := th.TypeColor("  Fire "); got != th.TypeColors["fire"] {
			t.Fatalf("%s: TypeColor(Fire) = %q, want %q", name, got, th.TypeColors["fire"])
		}
		if got := th.TypeColor("shadow"); got != th.Muted {
			t.Fatalf("%s: TypeColor(shadow) = %q, want muted %q", name, got, th.Muted)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"pikachu", 10, "pikachu"},
		{"pikachu", 6, "pik..."},
		{"pikachu", 2, "pi"},
		{"Pokémon", 5, "Po..."},
		{"x", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
	if got := truncateMiddle("/home/user/.local/state/dex/dex.log", 20); len(got) != 20 {
		t.Fatalf("truncateMiddle length = %d, want 20", len(got))
	}
}

package api

type manifestCatalog struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Extra []struct {
		Name       string `json:"name"`
		IsRequired bool   `json:"isRequired"`
	} `json:"extra,omitempty"`
}

type manifest struct {
	ID          string            `json:"id"`
	Version     string            `json:"version"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Resources   []string          `json:"resources"`
	Types       []string          `json:"types"`
	Catalogs    []manifestCatalog `json:"catalogs"`
	IDPrefixes  []string          `json:"idPrefixes"`
}

var searchExtra = []struct {
	Name       string `json:"name"`
	IsRequired bool   `json:"isRequired"`
}{{Name: "search", IsRequired: true}}

// Manifest describes the addon to Stremio clients.
var Manifest = manifest{
	ID:          "dev.filmwhisper.ai",
	Version:     "1.1.0",
	Name:        "FilmWhisper",
	Description: "AI powered movie and series recommendations from your searches and watch history.",
	Resources:   []string{"catalog"},
	Types:       []string{"movie", "series"},
	Catalogs: []manifestCatalog{
		{Type: "movie", ID: "ai-movies", Name: "AI Movies", Extra: searchExtra},
		{Type: "series", ID: "ai-tv", Name: "AI TV", Extra: searchExtra},
		{Type: "movie", ID: "ai-trending-movies", Name: "Trending Movies"},
		{Type: "series", ID: "ai-trending-tv", Name: "Trending TV"},
		{Type: "movie", ID: "ai-trakt-recent-movie", Name: "AI Picks: Recently Watched"},
		{Type: "series", ID: "ai-trakt-recent-tv", Name: "AI Picks: Recently Watched"},
	},
	IDPrefixes: []string{"tt"},
}

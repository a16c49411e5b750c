// Package schema maps Notion pages to flat items. Each watch variant
// (techno, tech, radar) is the same pipeline over different field
// names and trigger statuses, so variants are plain data.
package schema

import "unicode/utf8"

// Item is the request-scoped projection of one Notion page.
type Item struct {
	ID          string `json:"id"`
	PageID      string `json:"-"`
	Title       string `json:"titre"`
	URL         string `json:"url"`
	Description string `json:"description"`
	PublishedAt string `json:"datePublication"`
	Status      string `json:"statut"`
	Category    string `json:"categorie"`
	CreatedBy   string `json:"creePar"`
	Comment     string `json:"commentaire"`
	Summary     string `json:"resume,omitempty"`
}

// FieldMap names the Notion properties a variant reads.
type FieldMap struct {
	Title       string
	URL         string
	Description string
	Status      string
	Category    string
	Date        string
	CreatedBy   string
	Comment     string
}

// Variant configures one pipeline family.
type Variant struct {
	Name          string
	TriggerStatus string
	DoneStatus    string
	// PerItem selects per-item AI enrichment; otherwise the variant
	// runs one batch synthesis over the whole filtered set.
	PerItem bool
	Fields  FieldMap
}

var (
	// Techno is the per-item enrichment family over the techno watch
	// database.
	Techno = Variant{
		Name:          "techno",
		TriggerStatus: "Pas commencé",
		DoneStatus:    "Terminé",
		PerItem:       true,
		Fields: FieldMap{
			Title:       "Nom",
			URL:         "Lien",
			Description: "Description",
			Status:      "Statut",
			Category:    "Catégorie",
			Date:        "Date de publication",
			CreatedBy:   "Créé par",
			Comment:     "Commentaire",
		},
	}

	// Tech is the batch synthesis family.
	Tech = Variant{
		Name:          "tech",
		TriggerStatus: "Pas commencé",
		DoneStatus:    "Terminé",
		PerItem:       false,
		Fields: FieldMap{
			Title:       "Titre",
			URL:         "URL",
			Description: "Description",
			Status:      "Statut",
			Category:    "Catégorie",
			Date:        "Date",
			CreatedBy:   "Créé par",
			Comment:     "Commentaire",
		},
	}

	// Radar is the per-item family over the radar database, which
	// uses its own field names and trigger status.
	Radar = Variant{
		Name:          "radar",
		TriggerStatus: "Début",
		DoneStatus:    "Terminé",
		PerItem:       true,
		Fields: FieldMap{
			Title:       "Titre",
			URL:         "URL",
			Description: "Résumé",
			Status:      "Statut",
			Category:    "Type",
			Date:        "Date",
			CreatedBy:   "Auteur",
			Comment:     "Commentaires",
		},
	}
)

// ByName resolves a variant from its route name.
func ByName(name string) (Variant, bool) {
	switch name {
	case "techno":
		return Techno, true
	case "tech":
		return Tech, true
	case "radar":
		return Radar, true
	}
	return Variant{}, false
}

// Clip truncates s to at most max bytes without splitting a UTF-8
// rune, which matters for accented French text.
func Clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// Filter keeps items whose status equals the trigger literal. The
// comparison is exact: case or whitespace differences exclude an item.
func Filter(items []Item, status string) []Item {
	var kept []Item
	for _, it := range items {
		if it.Status == status {
			kept = append(kept, it)
		}
	}
	return kept
}

package schema

import (
	"fmt"
	"strings"

	"github.com/latifnjimoluh/veille/internal/notion"
)

// Defaults substituted when a property is missing or carries the
// wrong type. Projection never fails; one malformed record must not
// abort a whole request.
const (
	DefaultTitle       = "Sans titre"
	DefaultDescription = "Aucune description"
	DefaultStatus      = "Non défini"
	DefaultCategory    = "Non défini"
	DefaultCreatedBy   = "Inconnu"
	DefaultComment     = "Pas de commentaire"
)

// Project flattens one page into an Item using the variant's field
// names.
func (v Variant) Project(page notion.Page) Item {
	props := page.Properties

	return Item{
		ID:          identifier(page),
		PageID:      page.ID,
		Title:       textOr(props[v.Fields.Title], DefaultTitle),
		URL:         urlOr(props[v.Fields.URL], ""),
		Description: textOr(props[v.Fields.Description], DefaultDescription),
		PublishedAt: dateOr(props[v.Fields.Date], ""),
		Status:      selectOr(props[v.Fields.Status], DefaultStatus),
		Category:    selectOr(props[v.Fields.Category], DefaultCategory),
		CreatedBy:   personOr(props[v.Fields.CreatedBy], DefaultCreatedBy),
		Comment:     textOr(props[v.Fields.Comment], DefaultComment),
	}
}

// ProjectAll projects every page, preserving input order.
func (v Variant) ProjectAll(pages []notion.Page) []Item {
	items := make([]Item, len(pages))
	for i, page := range pages {
		items[i] = v.Project(page)
	}
	return items
}

func identifier(page notion.Page) string {
	for _, prop := range page.Properties {
		if prop.Type == "unique_id" && prop.UniqueID != nil {
			if prop.UniqueID.Prefix != nil && *prop.UniqueID.Prefix != "" {
				return fmt.Sprintf("%s-%d", *prop.UniqueID.Prefix, prop.UniqueID.Number)
			}
			return fmt.Sprintf("%d", prop.UniqueID.Number)
		}
	}
	return page.ID
}

func textOr(prop notion.Property, fallback string) string {
	var spans []notion.RichText
	switch prop.Type {
	case "title":
		spans = prop.Title
	case "rich_text":
		spans = prop.RichText
	case "formula":
		if prop.Formula != nil && prop.Formula.String != nil {
			if s := strings.TrimSpace(*prop.Formula.String); s != "" {
				return s
			}
		}
		return fallback
	default:
		return fallback
	}

	var parts []string
	for _, s := range spans {
		parts = append(parts, s.PlainText)
	}
	text := strings.TrimSpace(strings.Join(parts, ""))
	if text == "" {
		return fallback
	}
	return text
}

func urlOr(prop notion.Property, fallback string) string {
	switch prop.Type {
	case "url":
		if prop.URL != nil && *prop.URL != "" {
			return *prop.URL
		}
	case "rich_text", "title", "formula":
		return textOr(prop, fallback)
	}
	return fallback
}

func selectOr(prop notion.Property, fallback string) string {
	switch prop.Type {
	case "select":
		if prop.Select != nil && prop.Select.Name != "" {
			return prop.Select.Name
		}
	case "status":
		if prop.Status != nil && prop.Status.Name != "" {
			return prop.Status.Name
		}
	}
	return fallback
}

func dateOr(prop notion.Property, fallback string) string {
	if prop.Type == "date" && prop.Date != nil && prop.Date.Start != "" {
		return prop.Date.Start
	}
	return fallback
}

func personOr(prop notion.Property, fallback string) string {
	switch prop.Type {
	case "created_by":
		if prop.CreatedBy != nil && prop.CreatedBy.Name != "" {
			return prop.CreatedBy.Name
		}
	case "people":
		if len(prop.People) > 0 && prop.People[0].Name != "" {
			return prop.People[0].Name
		}
	}
	return fallback
}

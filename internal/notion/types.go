package notion

// Database identifies a database accessible to the integration.
type Database struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Page is one record of a database. Properties are keyed by the
// human-readable field names configured in Notion.
type Page struct {
	ID         string              `json:"id"`
	URL        string              `json:"url"`
	Properties map[string]Property `json:"properties"`
}

// Property is a type-tagged property value. Only the field matching
// Type is populated; everything else stays at its zero value, so
// callers must tolerate missing data.
type Property struct {
	Type      string        `json:"type"`
	Title     []RichText    `json:"title,omitempty"`
	RichText  []RichText    `json:"rich_text,omitempty"`
	URL       *string       `json:"url,omitempty"`
	Select    *SelectOption `json:"select,omitempty"`
	Status    *SelectOption `json:"status,omitempty"`
	Date      *DateValue    `json:"date,omitempty"`
	Formula   *Formula      `json:"formula,omitempty"`
	People    []User        `json:"people,omitempty"`
	CreatedBy *User         `json:"created_by,omitempty"`
	UniqueID  *UniqueID     `json:"unique_id,omitempty"`
}

// RichText is one span of a title or rich_text property.
type RichText struct {
	PlainText string `json:"plain_text"`
}

// SelectOption is the selected value of a select or status property.
type SelectOption struct {
	Name string `json:"name"`
}

// DateValue holds the start date of a date property.
type DateValue struct {
	Start string `json:"start"`
}

// Formula holds the computed value of a formula property.
type Formula struct {
	Type   string  `json:"type"`
	String *string `json:"string,omitempty"`
}

// User is a person reference on a people or created_by property.
type User struct {
	Name string `json:"name"`
}

// UniqueID is the auto-incremented id Notion assigns per database.
type UniqueID struct {
	Prefix *string `json:"prefix,omitempty"`
	Number int     `json:"number"`
}

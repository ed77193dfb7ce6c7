package knackpy

// Application is the slice of Knack app metadata the client consumes. Knack
// returns far more; unknown keys are ignored on decode.
type Application struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Slug     string         `json:"slug"`
	Settings Settings       `json:"settings"`
	Objects  []MetaObject   `json:"objects"`
	Scenes   []MetaScene    `json:"scenes"`
	Counts   MetadataCounts `json:"counts"`
}

// Settings holds app-level settings from metadata.
type Settings struct {
	// Timezone is a Knack "common name", e.g. "Eastern Time (US & Canada)",
	// not an IANA name.
	Timezone string `json:"timezone"`
}

// MetaObject is one object declaration from app metadata.
type MetaObject struct {
	Key    string      `json:"key"`
	Name   string      `json:"name"`
	Fields []MetaField `json:"fields"`
}

// MetaField is one field declaration from app metadata.
type MetaField struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// MetaScene is one scene declaration from app metadata.
type MetaScene struct {
	Key   string     `json:"key"`
	Name  string     `json:"name"`
	Views []MetaView `json:"views"`
}

// MetaView is one view declaration within a scene.
type MetaView struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// MetadataCounts summarizes app record and asset totals.
type MetadataCounts struct {
	TotalEntries int   `json:"total_entries"`
	AssetSize    int64 `json:"asset_size"`
}

// Container is one queryable object or view. At least one of ObjKey/ViewKey is
// set; SceneKey accompanies ViewKey. Containers are built once from metadata
// and immutable thereafter.
type Container struct {
	ObjKey   string
	ViewKey  string
	SceneKey string
	Name     string
}

// Key returns the cache key for the container: the object key when present,
// otherwise the view key. The two key spaces are disjoint.
func (c *Container) Key() string {
	if c.ObjKey != "" {
		return c.ObjKey
	}
	return c.ViewKey
}

// FieldDef is a field definition derived from metadata, annotated with its
// owning object key.
type FieldDef struct {
	Key      string
	Name     string
	Type     string
	Required bool
	ObjKey   string
}

// RawRecord is the unmodified field-keyed payload for one database row, prior
// to type-aware formatting.
type RawRecord map[string]any

// ID returns the record's upstream id, or "" when absent.
func (r RawRecord) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Record is a materialized row: the raw payload plus formatted values in
// field-definition order.
type Record struct {
	ID     string
	Raw    RawRecord
	Values []FieldValue
}

// FieldValue is one formatted field of a materialized record.
type FieldValue struct {
	Key       string
	Name      string
	Raw       any
	Formatted string
}

// Format returns the record as a field-name to formatted-value map.
func (r *Record) Format() map[string]string {
	out := make(map[string]string, len(r.Values))
	for _, v := range r.Values {
		out[v.Name] = v.Formatted
	}
	return out
}

// FieldNames returns the record's field names in definition order.
func (r *Record) FieldNames() []string {
	names := make([]string, len(r.Values))
	for i, v := range r.Values {
		names[i] = v.Name
	}
	return names
}

// Attachment is one file or image reference extracted from a raw record.
// Filename is rewritten to the computed destination path during download
// assembly.
type Attachment struct {
	ID            string `json:"id"`
	ApplicationID string `json:"application_id"`
	S3            bool   `json:"s3"`
	Type          string `json:"type"`
	Filename      string `json:"filename"`
	URL           string `json:"url"`
	ThumbURL      string `json:"thumb_url"`
	Size          int64  `json:"size"`
	FieldKey      string `json:"field_key"`
}

// Filters is a Knack record filter document, JSON-encoded into the `filters`
// request parameter.
type Filters struct {
	Match string       `json:"match"`
	Rules []FilterRule `json:"rules"`
}

// FilterRule is one clause of a filter document.
type FilterRule struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value,omitempty"`
}

// AppInfo summarizes an application: object/scene/record counts and total
// asset size.
type AppInfo struct {
	Objects int
	Scenes  int
	Records int
	Size    string
}

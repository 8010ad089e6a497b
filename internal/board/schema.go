package board

import (
	"encoding/json"
	"sort"
	"time"
)

// RawColumn is a column record as returned by the board API, before its
// embedded settings blob is parsed.
type RawColumn struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	SettingsStr string `json:"settings_str,omitempty"`
}

// NormalizeColumns materializes each column's settings_str into a
// structured settings object. A blob that fails to parse degrades to
// empty settings for that column only; sibling columns are unaffected
// and column order is preserved.
func NormalizeColumns(raw []RawColumn) []Column {
	out := make([]Column, len(raw))
	for i, rc := range raw {
		out[i] = Column{
			ID:       rc.ID,
			Title:    rc.Title,
			Type:     rc.Type,
			Settings: parseSettings(rc.SettingsStr),
		}
	}
	return out
}

func parseSettings(blob string) ColumnSettings {
	if blob == "" {
		return ColumnSettings{}
	}
	var s ColumnSettings
	if err := json.Unmarshal([]byte(blob), &s); err != nil {
		return ColumnSettings{}
	}
	return s
}

// DropdownLabels returns the column's valid label set in key order,
// or nil when the column has no fixed label set.
func (c Column) DropdownLabels() []string {
	if len(c.Settings.Labels) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.Settings.Labels))
	for k := range c.Settings.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	labels := make([]string, len(keys))
	for i, k := range keys {
		labels[i] = c.Settings.Labels[k]
	}
	return labels
}

// ValidDropdownValue reports whether value (a string or a list of
// strings) is within the column's label set. Columns without a label
// set accept anything.
func ValidDropdownValue(c Column, value any) bool {
	labels := c.DropdownLabels()
	if labels == nil {
		return true
	}
	contains := func(s string) bool {
		for _, l := range labels {
			if l == s {
				return true
			}
		}
		return false
	}
	switch v := value.(type) {
	case string:
		return contains(v)
	case []string:
		for _, s := range v {
			if !contains(s) {
				return false
			}
		}
		return true
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok || !contains(s) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ValidISODate reports whether value is empty or parseable as a date.
func ValidISODate(value string) bool {
	if value == "" {
		return true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

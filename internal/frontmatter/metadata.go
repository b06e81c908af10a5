package frontmatter

import (
	"fmt"
	"sort"
	"time"
)

// Metadata is the typed view of the recognized front matter keys.
//
// Unrecognized keys land in Params and are otherwise ignored by the
// renderer, so themes can stash their own values without breaking builds.
type Metadata struct {
	Title       string
	Description string
	Date        time.Time
	Layout      string
	Slug        string
	Draft       bool
	Tags        []string
	Categories  []string
	Params      map[string]any
}

// dateFormats are tried in order when the date field is a plain string.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Decode extracts typed metadata from a parsed front matter map.
func Decode(fields map[string]any) (Metadata, error) {
	md := Metadata{Params: map[string]any{}}

	for key, value := range fields {
		switch key {
		case "title":
			md.Title = asString(value)
		case "description":
			md.Description = asString(value)
		case "layout":
			md.Layout = asString(value)
		case "slug":
			md.Slug = asString(value)
		case "draft":
			b, ok := value.(bool)
			if !ok {
				return md, fmt.Errorf("front matter field %q: expected bool, got %T", key, value)
			}
			md.Draft = b
		case "date":
			t, err := decodeDate(value)
			if err != nil {
				return md, fmt.Errorf("front matter field %q: %w", key, err)
			}
			md.Date = t
		case "tags":
			vs, err := asStringList(value)
			if err != nil {
				return md, fmt.Errorf("front matter field %q: %w", key, err)
			}
			md.Tags = vs
		case "categories":
			vs, err := asStringList(value)
			if err != nil {
				return md, fmt.Errorf("front matter field %q: %w", key, err)
			}
			md.Categories = vs
		default:
			md.Params[key] = value
		}
	}

	sort.Strings(md.Tags)
	sort.Strings(md.Categories)
	return md, nil
}

func decodeDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, format := range dateFormats {
			if t, err := time.Parse(format, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable date %q (use YYYY-MM-DD or RFC3339)", v)
	default:
		return time.Time{}, fmt.Errorf("expected date string, got %T", value)
	}
}

func asString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

func asStringList(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		// A bare scalar is accepted as a one-element list.
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string element, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected sequence of strings, got %T", value)
	}
}

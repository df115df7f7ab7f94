package prompt

import (
	"fmt"
	"slices"
	"strings"
)

// FieldID is a selectable output field. Its value is the JSON key requested from the model.
type FieldID string

const (
	Description      FieldID = "description"
	ColorPalette     FieldID = "color-palette"
	AspectRatio      FieldID = "aspect-ratio"
	SubjectsDetected FieldID = "subjects-detected"
)

const (
	Preamble = "Return the following key: value pairs in the response JSON:\n\n"
	Trailer  = "\nDo not return anything else."
)

// Fields lists every output field in prompt order
var Fields = []FieldID{Description, ColorPalette, AspectRatio, SubjectsDetected}

var fieldDescriptions = map[FieldID]string{
	Description:      "A detailed description of the image.",
	ColorPalette:     "A list of colors present in the image.",
	AspectRatio:      "The aspect ratio of the image.",
	SubjectsDetected: "A list of subjects detected in the image.",
}

// ParseField accepts a JSON key ("color-palette") or the camel case name ("colorPalette")
func ParseField(s string) (FieldID, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for _, f := range Fields {
		if normalized == string(f) || normalized == strings.ReplaceAll(string(f), "-", "") {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// Line is the instruction line for a single field
func Line(f FieldID) string {
	return fmt.Sprintf("%q: %q\n", string(f), fieldDescriptions[f])
}

// Build asks for exactly the given fields as a flat JSON object.
// Lines follow Fields order whatever the order or duplication of the input.
func Build(fields []FieldID) string {
	var b strings.Builder
	b.WriteString(Preamble)
	for _, f := range Fields {
		if slices.Contains(fields, f) {
			b.WriteString(Line(f))
		}
	}
	b.WriteString(Trailer)
	return b.String()
}

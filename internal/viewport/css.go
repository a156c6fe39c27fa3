// internal/viewport/css.go
package viewport

import (
	"strconv"
	"strings"
)

// Property is a CSS custom property mirrored from a reading.
type Property struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// CustomProperties maps a reading onto the --vv* custom properties. Lengths are
// in px; the scale is unitless.
func CustomProperties(r Reading) []Property {
	return []Property{
		{Name: "--vvw", Value: px(r.Width)},
		{Name: "--vvh", Value: px(r.Height)},
		{Name: "--vvpt", Value: px(r.PageTop)},
		{Name: "--vvpl", Value: px(r.PageLeft)},
		{Name: "--vvot", Value: px(r.OffsetTop)},
		{Name: "--vvol", Value: px(r.OffsetLeft)},
		{Name: "--vvz", Value: number(r.Scale)},
	}
}

// Stylesheet renders the properties as a :root rule.
func Stylesheet(props []Property) string {
	var b strings.Builder
	b.WriteString(":root {\n")
	for _, p := range props {
		b.WriteString("  ")
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(p.Value)
		b.WriteString(";\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func px(v float64) string { return number(v) + "px" }

func number(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

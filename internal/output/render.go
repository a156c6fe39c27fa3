// internal/output/render.go
package output

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/vvprobe/internal/viewport"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Render writes a single report in the given format.
func Render(w io.Writer, report viewport.Report, format Format) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode yaml report: %w", err)
		}
		return enc.Close()
	case FormatCSS:
		return renderCSS(w, report)
	case FormatText:
		return renderText(w, report)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func renderJSON(w io.Writer, report viewport.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode json report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func renderCSS(w io.Writer, report viewport.Report) error {
	if report.Visual == nil {
		_, err := io.WriteString(w, "/* no visual viewport reading */\n")
		return err
	}
	_, err := io.WriteString(w, viewport.Stylesheet(viewport.CustomProperties(report.Visual.Corrected)))
	return err
}

// renderText prints one labelled block per section, four-space indented.
// Missing sections print N/A.
func renderText(w io.Writer, report viewport.Report) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Captured %s (clampOffsets=%t, resizeDimensions=%t, mobileEngine=%t)\n",
		report.CapturedAt.Format(time.RFC3339Nano),
		report.Flags.ClampOffsets, report.Flags.ResizeDimensions, report.MobileEngine)

	if report.Visual != nil {
		buf.WriteString("Visual Viewport ")
		writeFields(&buf, report.Visual.Fields())
	} else {
		buf.WriteString("Visual Viewport N/A\n")
	}

	sections := []struct {
		label string
		value interface{}
	}{
		{"Scroll", report.Scroll},
		{"Body", report.Body},
		{"Layout Viewport", report.LayoutViewport},
		{"ICB", report.ICB},
		{"Window", report.Window},
		{"Screen", report.Screen},
	}
	for _, s := range sections {
		if err := writeSection(&buf, s.label, s.value); err != nil {
			return err
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func writeSection(buf *bytes.Buffer, label string, value interface{}) error {
	if b, ok := value.(*viewport.Box); ok && b == nil {
		fmt.Fprintf(buf, "%s N/A\n", label)
		return nil
	}
	data, err := json.MarshalIndent(value, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", label, err)
	}
	fmt.Fprintf(buf, "%s %s\n", label, data)
	return nil
}

// writeFields keeps the snapshot's field order, which a map would lose.
func writeFields(buf *bytes.Buffer, fields []viewport.Field) {
	buf.WriteString("{\n")
	for i, f := range fields {
		fmt.Fprintf(buf, "    %q: %s", f.Name, strconv.FormatFloat(f.Value, 'f', -1, 64))
		if i < len(fields)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
}

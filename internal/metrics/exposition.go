package metrics

import (
	"io"
	"strconv"
	"strings"

	"latencygen/internal/model"
)

// MetricName is the series every fabricated sample is published under.
const MetricName = "fake_latency_seconds"

var labelEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, `"`, `\"`)

// Line renders one sample in text exposition format:
//
//	fake_latency_seconds{source="a",target="b",direction="fwd"} 0.123
func Line(s model.Sample) string {
	var b strings.Builder
	writeLine(&b, s)
	return b.String()
}

// WritePayload writes the samples one per line, followed by exactly one
// trailing newline. No samples still yield the single newline.
func WritePayload(w io.Writer, samples []model.Sample) error {
	var b strings.Builder
	for i, s := range samples {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeLine(&b, s)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// Payload is WritePayload into a string.
func Payload(samples []model.Sample) string {
	var b strings.Builder
	_ = WritePayload(&b, samples)
	return b.String()
}

// LineCount returns the number of non-empty lines in a payload.
func LineCount(payload string) int {
	n := 0
	for _, line := range strings.Split(payload, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// FormatValue renders a latency in its shortest decimal form (0.5, 0.123).
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeLine(b *strings.Builder, s model.Sample) {
	b.WriteString(MetricName)
	b.WriteString(`{source="`)
	b.WriteString(labelEscaper.Replace(s.Source))
	b.WriteString(`",target="`)
	b.WriteString(labelEscaper.Replace(s.Target))
	b.WriteString(`",direction="`)
	b.WriteString(labelEscaper.Replace(string(s.Direction)))
	b.WriteString(`"} `)
	b.WriteString(FormatValue(s.Value))
}

package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind tells how a row expands into samples. It is derived from the row arity
// and, for 4-element rows, from the type of the last element.
type Kind int

const (
	// Mirrored is (source, target, latency): fwd and rev share the value.
	Mirrored Kind = iota
	// Paired is (source, target, latency_fwd, latency_rev).
	Paired
	// Directed is (source, target, latency, direction): a single line.
	Directed
)

func (k Kind) String() string {
	switch k {
	case Mirrored:
		return "mirrored"
	case Paired:
		return "paired"
	case Directed:
		return "directed"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Row is one entry of a custom latency dataset.
type Row struct {
	Kind      Kind
	Source    string
	Target    string
	Latency   float64
	Reverse   float64 // Paired only
	Direction string  // Directed only
}

// MirroredRow builds a (source, target, latency) row.
func MirroredRow(src, dst string, latency float64) Row {
	return Row{Kind: Mirrored, Source: src, Target: dst, Latency: latency}
}

// PairedRow builds a (source, target, latency_fwd, latency_rev) row.
func PairedRow(src, dst string, fwd, rev float64) Row {
	return Row{Kind: Paired, Source: src, Target: dst, Latency: fwd, Reverse: rev}
}

// DirectedRow builds a (source, target, latency, direction) row.
func DirectedRow(src, dst string, latency float64, direction string) Row {
	return Row{Kind: Directed, Source: src, Target: dst, Latency: latency, Direction: direction}
}

// Arity returns the tuple length the row was written with.
func (r Row) Arity() int {
	if r.Kind == Mirrored {
		return 3
	}
	return 4
}

// ParseFields builds a row from its textual tuple. A 4th field that parses as a
// number is the reverse latency, anything else is a literal direction label.
func ParseFields(fields []string) (Row, error) {
	if len(fields) != 3 && len(fields) != 4 {
		return Row{}, fmt.Errorf("row must have 3 or 4 fields, got %d", len(fields))
	}
	fields = append([]string(nil), fields...)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	src, dst := fields[0], fields[1]
	if src == "" || dst == "" {
		return Row{}, fmt.Errorf("row source and target are required")
	}
	latency, err := parseLatency(fields[2])
	if err != nil {
		return Row{}, err
	}
	if len(fields) == 3 {
		return MirroredRow(src, dst, latency), nil
	}

	if _, err := strconv.ParseFloat(fields[3], 64); err == nil {
		rev, err := parseLatency(fields[3])
		if err != nil {
			return Row{}, err
		}
		return PairedRow(src, dst, latency, rev), nil
	}
	if fields[3] == "" {
		return Row{}, fmt.Errorf("empty direction")
	}
	return DirectedRow(src, dst, latency, fields[3]), nil
}

func parseLatency(value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid latency %q: %w", value, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("latency %q is not a finite number", value)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative latency %q", value)
	}
	return v, nil
}

// UnmarshalYAML accepts a flow or block sequence such as [a, b, 0.5] or
// [a, b, 0.12, 0.25] or [a, b, 0.5, fwd].
func (r *Row) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: row must be a sequence", node.Line)
	}
	fields := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: row elements must be scalars", item.Line)
		}
		if item.ShortTag() == "!!null" {
			return fmt.Errorf("line %d: row elements must not be null", item.Line)
		}
		fields = append(fields, item.Value)
	}
	// A string 4th element is a direction, even when quoted digits.
	if len(node.Content) == 4 && node.Content[3].ShortTag() == "!!str" {
		row, err := ParseFields(fields[:3])
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		if fields[3] == "" {
			return fmt.Errorf("line %d: empty direction", node.Line)
		}
		*r = DirectedRow(row.Source, row.Target, row.Latency, fields[3])
		return nil
	}
	row, err := ParseFields(fields)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*r = row
	return nil
}

// MarshalYAML writes the row back in its tuple form.
func (r Row) MarshalYAML() (any, error) {
	switch r.Kind {
	case Paired:
		return []any{r.Source, r.Target, r.Latency, r.Reverse}, nil
	case Directed:
		return []any{r.Source, r.Target, r.Latency, r.Direction}, nil
	default:
		return []any{r.Source, r.Target, r.Latency}, nil
	}
}

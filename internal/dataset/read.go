package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a custom dataset file. The format is picked from the extension:
// .csv for comma-separated rows, anything else is parsed as a YAML sequence of rows.
func Load(path string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	default:
		return ReadYAML(path)
	}
}

// ReadYAML loads rows from a YAML file holding a list of row tuples.
func ReadYAML(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rows []Row
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ReadCSV loads rows from a CSV file. Rows may have 3 or 4 columns; an
// optional header starting with "source" and '#' comment lines are skipped.
func ReadCSV(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := readCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	start := 0
	if len(records[0]) > 0 && strings.EqualFold(strings.TrimSpace(records[0][0]), "source") {
		start = 1
	}

	rows := make([]Row, 0, len(records)-start)
	for i := start; i < len(records); i++ {
		row, err := ParseFields(records[i])
		if err != nil {
			return nil, fmt.Errorf("invalid record at line %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

package features

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/gdfprep/internal/utils/codec"
)

// recordDocument is the on-disk form read by FileLoader.
type recordDocument struct {
	Counts map[string]int                    `json:"N"`
	Fields map[string]map[string][][]float64 `json:"fields"`
}

// FileLoader loads records stored as JSON files, optionally zstd compressed.
// Relative identifiers are resolved against Root.
type FileLoader struct {
	Root string
}

func (l FileLoader) Load(ctx context.Context, id string) (*Record, error) {
	path := id
	if l.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(l.Root, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc recordDocument
	if err := codec.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc.toRecord(id)
}

// EncodeRecord renders rec in the format FileLoader reads.
func EncodeRecord(rec *Record, compress bool) ([]byte, error) {
	doc := recordDocument{
		Counts: make(map[string]int, len(rec.Counts)),
		Fields: make(map[string]map[string][][]float64, len(rec.Fields)),
	}
	for t, n := range rec.Counts {
		doc.Counts[string(t)] = n
	}
	for tag, byType := range rec.Fields {
		field := make(map[string][][]float64, len(byType))
		for t, m := range byType {
			field[string(t)] = denseToRows(m)
		}
		doc.Fields[tag] = field
	}
	return codec.Marshal(doc, compress)
}

func (d recordDocument) toRecord(id string) (*Record, error) {
	rec := &Record{
		ID:     id,
		Fields: make(map[string]map[AtomType]*mat.Dense, len(d.Fields)),
		Counts: make(map[AtomType]int, len(d.Counts)),
	}
	for t, n := range d.Counts {
		rec.Counts[AtomType(t)] = n
	}
	for tag, byType := range d.Fields {
		field := make(map[AtomType]*mat.Dense, len(byType))
		for t, rows := range byType {
			m, err := rowsToDense(rows)
			if err != nil {
				return nil, fmt.Errorf("record %q, field %q, atom type %s: %w", id, tag, t, err)
			}
			field[AtomType(t)] = m
		}
		rec.Fields[tag] = field
	}
	return rec, nil
}

func rowsToDense(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return &mat.Dense{}, nil
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrDimensionMismatch, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

func denseToRows(m *mat.Dense) [][]float64 {
	if m == nil || m.IsEmpty() {
		return [][]float64{}
	}
	r, _ := m.Dims()
	rows := make([][]float64, r)
	for i := range r {
		rows[i] = mat.Row(nil, i, m)
	}
	return rows
}

// ReadRecordList reads one record identifier per line. Blank lines and
// surrounding whitespace are ignored.
func ReadRecordList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read record list %s: %w", path, err)
	}
	return ids, nil
}

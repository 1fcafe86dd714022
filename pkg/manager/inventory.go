package manager

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"switch-manager/pkg/session"
)

// Display columns, in table order.
const (
	ColName    = "Name"
	ColIP      = "IP"
	ColSubnet  = "Subnet"
	ColAliases = "Aliases"
	ColComment = "Comment"
)

// DisplayColumns are the inventory columns shown in the table.
var DisplayColumns = []string{ColName, ColIP, ColSubnet, ColAliases, ColComment}

// columnAliases maps lower-cased header spellings to display columns.
var columnAliases = map[string]string{
	"name":     ColName,
	"hostname": ColName,
	"ip":       ColIP,
	"address":  ColIP,
	"subnet":   ColSubnet,
	"alias":    ColAliases,
	"aliases":  ColAliases,
	"comment":  ColComment,
	"comments": ColComment,
}

// Row is one inventory record. Fields keep the header spelling of the file.
type Row struct {
	index  int
	header []string
	values map[string]string
	// display maps a display column to the header key that feeds it.
	display map[string]string
}

// NewRow builds a row from header/value pairs.
func NewRow(header, values []string) Row {
	r := Row{
		index:   -1,
		header:  append([]string(nil), header...),
		values:  make(map[string]string, len(header)),
		display: make(map[string]string, len(DisplayColumns)),
	}
	for i, key := range header {
		v := ""
		if i < len(values) {
			v = strings.TrimSpace(values[i])
		}
		r.values[key] = v
		if col, ok := columnAliases[strings.ToLower(key)]; ok {
			if _, taken := r.display[col]; !taken {
				r.display[col] = key
			}
		}
	}
	return r
}

// Field returns a value by header key, or by display column name.
func (r Row) Field(key string) string {
	if v, ok := r.values[key]; ok {
		return v
	}
	if k, ok := r.display[key]; ok {
		return r.values[k]
	}
	return ""
}

// Index is the row's position in the inventory file, or -1 for rows built
// with NewRow.
func (r Row) Index() int { return r.index }

func (r Row) Name() string    { return r.Field(ColName) }
func (r Row) IP() string      { return r.Field(ColIP) }
func (r Row) Subnet() string  { return r.Field(ColSubnet) }
func (r Row) Aliases() string { return r.Field(ColAliases) }
func (r Row) Comment() string { return r.Field(ColComment) }

// Cells returns the display column values in table order.
func (r Row) Cells() []string {
	out := make([]string, len(DisplayColumns))
	for i, c := range DisplayColumns {
		out[i] = r.Field(c)
	}
	return out
}

// Detail renders every field as "key: value", one per line, in file order.
func (r Row) Detail() string {
	var b strings.Builder
	for i, k := range r.header {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(r.values[k])
	}
	return b.String()
}

// Target converts the row into a probe target.
func (r Row) Target() session.Target {
	return session.Target{Name: r.Name(), Address: NormalizeAddress(r.IP())}
}

// Inventory is the loaded device table.
type Inventory struct {
	Path   string
	Header []string
	Rows   []Row
}

// ErrInventoryNotFound is returned (wrapped) when the inventory file does not exist.
// LoadInventory still returns a usable empty inventory in that case.
var ErrInventoryNotFound = errors.New("inventory not found")

// LoadInventory reads a delimited inventory file. A missing file yields an
// empty inventory together with an error wrapping ErrInventoryNotFound.
func LoadInventory(path string, delim rune) (*Inventory, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Inventory{Path: path}, fmt.Errorf("%w: %s", ErrInventoryNotFound, path)
		}
		return nil, fmt.Errorf("open inventory %s: %w", path, err)
	}
	defer f.Close()

	inv, err := ReadInventory(f, delim)
	if err != nil {
		return nil, fmt.Errorf("read inventory %s: %w", path, err)
	}
	inv.Path = path
	return inv, nil
}

// ReadInventory parses a delimited table whose first record is the header.
// Header keys are trimmed; a UTF-8 byte order mark is ignored. Short records
// are padded with empty values.
func ReadInventory(r io.Reader, delim rune) (*Inventory, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	inv := &Inventory{}
	if len(records) == 0 {
		return inv, nil
	}

	header := make([]string, 0, len(records[0]))
	for i, h := range records[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column%d", i+1)
		}
		header = append(header, h)
	}
	inv.Header = header

	for _, rec := range records[1:] {
		if blankRecord(rec) {
			continue
		}
		row := NewRow(header, rec)
		row.index = len(inv.Rows)
		inv.Rows = append(inv.Rows, row)
	}
	return inv, nil
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// FindRow returns the first row whose name matches (case-insensitive), or
// whose address equals name.
func (inv *Inventory) FindRow(name string) (Row, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Row{}, false
	}
	for _, r := range inv.Rows {
		if strings.EqualFold(r.Name(), name) {
			return r, true
		}
	}
	norm := NormalizeAddress(name)
	for _, r := range inv.Rows {
		if NormalizeAddress(r.IP()) == norm {
			return r, true
		}
	}
	return Row{}, false
}

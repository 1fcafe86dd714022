package manager

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleInventory = "\ufeff Name ;IP;subnet;Alias;comment;rack\n" +
	"core-sw1;10.0.0.1;10.0.0.0/24;core1;main core;A1\n" +
	"edge-sw2; 10.0.1.20 ;10.0.1.0/24;;edge;B4\n" +
	";;;;;\n" +
	"lab-sw3;lab-sw3.example.net.\n"

func TestReadInventory_HeaderTrimAndAliases(t *testing.T) {
	inv, err := ReadInventory(strings.NewReader(sampleInventory), ';')
	if err != nil {
		t.Fatalf("ReadInventory: %v", err)
	}
	wantHeader := []string{"Name", "IP", "subnet", "Alias", "comment", "rack"}
	if strings.Join(inv.Header, ",") != strings.Join(wantHeader, ",") {
		t.Fatalf("expected header %v, got %v", wantHeader, inv.Header)
	}
	if len(inv.Rows) != 3 {
		t.Fatalf("expected 3 rows (blank record skipped), got %d", len(inv.Rows))
	}

	r := inv.Rows[0]
	if r.Name() != "core-sw1" || r.IP() != "10.0.0.1" || r.Subnet() != "10.0.0.0/24" {
		t.Fatalf("unexpected row fields: %v", r.Cells())
	}
	if r.Aliases() != "core1" || r.Comment() != "main core" {
		t.Fatalf("expected alias columns mapped, got aliases=%q comment=%q", r.Aliases(), r.Comment())
	}
	if r.Field("rack") != "A1" {
		t.Fatalf("expected extra column to be kept, got %q", r.Field("rack"))
	}
	if inv.Rows[1].IP() != "10.0.1.20" {
		t.Fatalf("expected trimmed value, got %q", inv.Rows[1].IP())
	}
	if inv.Rows[2].Index() != 2 {
		t.Fatalf("expected index 2, got %d", inv.Rows[2].Index())
	}
	if inv.Rows[2].Comment() != "" {
		t.Fatalf("expected short record padded, got %q", inv.Rows[2].Comment())
	}
}

func TestReadInventory_EmptyInput(t *testing.T) {
	inv, err := ReadInventory(strings.NewReader(""), ';')
	if err != nil {
		t.Fatalf("ReadInventory: %v", err)
	}
	if len(inv.Rows) != 0 || len(inv.Header) != 0 {
		t.Fatalf("expected empty inventory, got %+v", inv)
	}
}

func TestReadInventory_UnnamedHeader(t *testing.T) {
	inv, err := ReadInventory(strings.NewReader("Name;;IP\nsw;x;10.1.1.1\n"), ';')
	if err != nil {
		t.Fatalf("ReadInventory: %v", err)
	}
	if inv.Header[1] != "column2" {
		t.Fatalf("expected column2, got %q", inv.Header[1])
	}
	if inv.Rows[0].Field("column2") != "x" {
		t.Fatalf("expected value under column2, got %q", inv.Rows[0].Field("column2"))
	}
}

func TestRowDetail_FileOrder(t *testing.T) {
	r := NewRow([]string{"rack", "Name", "IP"}, []string{"A1", "sw1", "10.0.0.1"})
	want := "rack: A1\nName: sw1\nIP: 10.0.0.1"
	if got := r.Detail(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if r.Index() != -1 {
		t.Fatalf("expected -1 index for NewRow, got %d", r.Index())
	}
}

func TestRowTarget_Normalized(t *testing.T) {
	r := NewRow([]string{"name", "ip"}, []string{"sw1", " [2001:DB8::1] "})
	tgt := r.Target()
	if tgt.Name != "sw1" || tgt.Address != "2001:db8::1" {
		t.Fatalf("unexpected target %+v", tgt)
	}
}

func TestLoadInventory_MissingFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "missing.csv")
	inv, err := LoadInventory(p, ';')
	if !errors.Is(err, ErrInventoryNotFound) {
		t.Fatalf("expected ErrInventoryNotFound, got %v", err)
	}
	if inv == nil || len(inv.Rows) != 0 || inv.Path != p {
		t.Fatalf("expected empty inventory for %s, got %+v", p, inv)
	}
}

func TestLoadInventory_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(p, []byte(sampleInventory), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	inv, err := LoadInventory(p, ';')
	if err != nil {
		t.Fatalf("LoadInventory: %v", err)
	}
	if inv.Path != p || len(inv.Rows) != 3 {
		t.Fatalf("unexpected inventory: path=%q rows=%d", inv.Path, len(inv.Rows))
	}
}

func TestFindRow_ByNameThenAddress(t *testing.T) {
	inv, err := ReadInventory(strings.NewReader(sampleInventory), ';')
	if err != nil {
		t.Fatalf("ReadInventory: %v", err)
	}
	if r, ok := inv.FindRow("EDGE-SW2"); !ok || r.IP() != "10.0.1.20" {
		t.Fatalf("expected case-insensitive name match, got %v %v", r.Cells(), ok)
	}
	if r, ok := inv.FindRow("10.0.0.1"); !ok || r.Name() != "core-sw1" {
		t.Fatalf("expected address match, got %v %v", r.Cells(), ok)
	}
	if r, ok := inv.FindRow("LAB-SW3.example.net"); !ok || r.Name() != "lab-sw3" {
		t.Fatalf("expected normalized hostname match, got %v %v", r.Cells(), ok)
	}
	if _, ok := inv.FindRow("nope"); ok {
		t.Fatalf("expected no match")
	}
}

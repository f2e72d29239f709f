package table

import (
	"errors"
	"reflect"
	"testing"
)

func sample(t *testing.T) *Table {
	t.Helper()
	tbl, err := New(
		MustColumn("id", Numeric, 1, 2, 3, 4),
		MustColumn("name", Text, "a", nil, "c", "d"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tbl
}

func TestNew_Validation(t *testing.T) {
	_, err := New(MustColumn("a", Numeric, 1, 2), MustColumn("b", Numeric, 1))
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("mismatched lengths: err = %v, want ErrLengthMismatch", err)
	}

	_, err = New(MustColumn("a", Numeric, 1), MustColumn("a", Text, "x"))
	if !errors.Is(err, ErrDuplicateColumn) {
		t.Errorf("duplicate names: err = %v, want ErrDuplicateColumn", err)
	}

	empty, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if empty.NumRows() != 0 || empty.NumCols() != 0 {
		t.Errorf("empty table = %dx%d, want 0x0", empty.NumRows(), empty.NumCols())
	}
}

func TestTable_Accessors(t *testing.T) {
	tbl := sample(t)

	if got := tbl.NumRows(); got != 4 {
		t.Errorf("NumRows = %d, want 4", got)
	}
	if got := tbl.Names(); !reflect.DeepEqual(got, []string{"id", "name"}) {
		t.Errorf("Names = %v", got)
	}
	if got := tbl.NullCount(); got != 1 {
		t.Errorf("NullCount = %d, want 1", got)
	}
	if !tbl.Has("name") || tbl.Has("missing") {
		t.Error("Has reported wrong membership")
	}
	col, ok := tbl.Column("name")
	if !ok {
		t.Fatal("Column(name) not found")
	}
	if !col.IsNull(1) || col.Value(2).Str != "c" {
		t.Errorf("name column = %+v", col.Values())
	}
	if got := col.NullFraction(); got != 0.25 {
		t.Errorf("NullFraction = %v, want 0.25", got)
	}
}

func TestTable_SelectRowsKeepsLabels(t *testing.T) {
	tbl := sample(t)
	sub := tbl.SelectRows([]int{3, 1})

	if got := sub.Labels(); !reflect.DeepEqual(got, []int{3, 1}) {
		t.Errorf("Labels = %v, want [3 1]", got)
	}
	id, _ := sub.Column("id")
	if id.Value(0).Num != 4 || id.Value(1).Num != 2 {
		t.Errorf("id values = %+v", id.Values())
	}

	// Selecting again keeps the original labels, not positions.
	again := sub.SelectRows([]int{1})
	if got := again.Label(0); got != 1 {
		t.Errorf("Label(0) = %d, want 1", got)
	}
}

func TestTable_Filter(t *testing.T) {
	tbl := sample(t)
	name, _ := tbl.Column("name")

	out := tbl.Filter(func(i int) bool { return !name.IsNull(i) })
	if got := out.Labels(); !reflect.DeepEqual(got, []int{0, 2, 3}) {
		t.Errorf("Labels = %v, want [0 2 3]", got)
	}

	same := tbl.Filter(func(int) bool { return true })
	if same != tbl {
		t.Error("Filter keeping every row should return the receiver")
	}
}

func TestTable_Immutability(t *testing.T) {
	tbl := sample(t)

	replaced, err := tbl.WithColumn(MustColumn("id", Numeric, 9, 9, 9, 9))
	if err != nil {
		t.Fatalf("WithColumn: %v", err)
	}
	orig, _ := tbl.Column("id")
	if orig.Value(0).Num != 1 {
		t.Errorf("original id changed to %v", orig.Value(0).Num)
	}
	got, _ := replaced.Column("id")
	if got.Value(0).Num != 9 {
		t.Errorf("replaced id = %v, want 9", got.Value(0).Num)
	}

	appended, err := tbl.WithColumn(MustColumn("flag", Boolean, true, false, true, false))
	if err != nil {
		t.Fatalf("WithColumn append: %v", err)
	}
	if appended.NumCols() != 3 || tbl.NumCols() != 2 {
		t.Errorf("NumCols = %d/%d, want 3/2", appended.NumCols(), tbl.NumCols())
	}

	if _, err := tbl.WithColumn(MustColumn("short", Numeric, 1)); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("short column: err = %v, want ErrLengthMismatch", err)
	}

	dropped := tbl.DropColumns("name", "unknown")
	if dropped.NumCols() != 1 || tbl.NumCols() != 2 {
		t.Errorf("DropColumns NumCols = %d/%d, want 1/2", dropped.NumCols(), tbl.NumCols())
	}
}

func TestTable_Rename(t *testing.T) {
	tbl := sample(t)

	out, err := tbl.Rename([]string{"ID", "Name"})
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if got := out.Names(); !reflect.DeepEqual(got, []string{"ID", "Name"}) {
		t.Errorf("Names = %v", got)
	}
	if _, err := tbl.Rename([]string{"x", "x"}); !errors.Is(err, ErrDuplicateColumn) {
		t.Errorf("colliding rename: err = %v, want ErrDuplicateColumn", err)
	}
	if _, err := tbl.Rename([]string{"x"}); err == nil {
		t.Error("short rename: expected error")
	}
}

func TestColumn_Floats(t *testing.T) {
	c := MustColumn("x", Numeric, 1, nil, 3)
	xs, pos := c.Floats()
	if !reflect.DeepEqual(xs, []float64{1, 3}) || !reflect.DeepEqual(pos, []int{0, 2}) {
		t.Errorf("Floats = %v %v", xs, pos)
	}
}

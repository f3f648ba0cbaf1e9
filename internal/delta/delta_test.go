package delta

import (
	"errors"
	"math"
	"testing"

	"github.com/summeval/rougecorr/internal/correlate"
	"github.com/summeval/rougecorr/internal/corrtable"
	"github.com/summeval/rougecorr/internal/score"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

// table builds a single-sheet (recall, pearson) table from rougeType -> per-length values.
func table(lengths []string, rows map[string][]score.Value) *corrtable.Table {
	var rts []string
	for rt := range rows {
		rts = append(rts, rt)
	}
	t := corrtable.New(lengths, rts)
	for rt, vals := range rows {
		for i, v := range vals {
			t.Set(corrtable.Key{Measure: score.Recall, Correlation: correlate.Pearson, RougeType: rt, Length: lengths[i]}, v)
		}
	}
	return t
}

func TestCompute_InvalidComparisonCell(t *testing.T) {
	lengths := []string{"050", "100"}
	base := table(lengths, map[string][]score.Value{"R1": {score.Of(0.5), score.Of(0.6)}})
	cmpT := table(lengths, map[string][]score.Value{"R1": {score.Of(-999), score.Of(0.7)}})

	r, err := Compute(base, []Comparison{{Name: "to050", Table: cmpT}}, []string{"R1"})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(r.Sheets) != 1 || len(r.Sheets[0].Blocks) != 1 {
		t.Fatalf("unexpected report shape: %+v", r)
	}
	b := r.Sheets[0].Blocks[0]
	row := b.Rows[0]

	if !row.Cells[0].IsMissing() {
		t.Errorf("cell 050 = %v, want invalid", row.Cells[0])
	}
	if d, _ := row.Cells[1].Float(); !near(d, 0.1) {
		t.Errorf("cell 100 = %v, want 0.1", d)
	}
	if want := (InvalidDelta + 0.1) / 2; !near(row.Average, want) {
		t.Errorf("row average = %v, want %v", row.Average, want)
	}
	if b.PerLength[0] != 0 {
		t.Errorf("per-length 050 = %v, want 0", b.PerLength[0])
	}
	if !near(b.PerLength[1], 0.1) {
		t.Errorf("per-length 100 = %v, want 0.1", b.PerLength[1])
	}
	if !near(b.Final, 0.05) {
		t.Errorf("final = %v, want 0.05", b.Final)
	}
}

func TestCompute_Averages(t *testing.T) {
	lengths := []string{"050", "100", "200"}
	base := table(lengths, map[string][]score.Value{
		"R1": {score.Of(0.5), score.Of(0.5), score.Of(0.5)},
		"R2": {score.Of(0.4), score.Missing(), score.Of(0.4)},
	})
	cmpT := table(lengths, map[string][]score.Value{
		"R1": {score.Of(0.6), score.Of(0.7), score.Of(0.8)},
		"R2": {score.Of(0.2), score.Of(0.9), score.Of(0.5)},
	})

	r, err := Compute(base, []Comparison{{Name: "a", Table: cmpT}}, []string{"R1", "R2"})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	b := r.Sheets[0].Blocks[0]

	// baseline missing at R2/100 makes the cell invalid
	if !b.Rows[1].Cells[1].IsMissing() {
		t.Errorf("R2/100 = %v, want invalid", b.Rows[1].Cells[1])
	}
	if want := (0.1 + 0.2 + 0.3) / 3; !near(b.Rows[0].Average, want) {
		t.Errorf("R1 average = %v, want %v", b.Rows[0].Average, want)
	}
	if want := (-0.2 + InvalidDelta + 0.1) / 3; !near(b.Rows[1].Average, want) {
		t.Errorf("R2 average = %v, want %v", b.Rows[1].Average, want)
	}
	wantPer := []float64{(0.1 - 0.2) / 2, 0.2, (0.3 + 0.1) / 2}
	for i, w := range wantPer {
		if !near(b.PerLength[i], w) {
			t.Errorf("per-length[%d] = %v, want %v", i, b.PerLength[i], w)
		}
	}
	if want := (wantPer[0] + wantPer[1] + wantPer[2]) / 3; !near(b.Final, want) {
		t.Errorf("final = %v, want %v", b.Final, want)
	}
}

func TestCompute_Antisymmetric(t *testing.T) {
	lengths := []string{"050", "100"}
	a := table(lengths, map[string][]score.Value{
		"R1": {score.Of(0.31), score.Of(0.72)},
		"RL": {score.Of(-0.4), score.Missing()},
	})
	b := table(lengths, map[string][]score.Value{
		"R1": {score.Of(0.9), score.Of(0.1)},
		"RL": {score.Of(0.25), score.Of(0.5)},
	})
	rts := []string{"R1", "RL"}

	ab, err := Compute(a, []Comparison{{Name: "b", Table: b}}, rts)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := Compute(b, []Comparison{{Name: "a", Table: a}}, rts)
	if err != nil {
		t.Fatal(err)
	}
	for i := range rts {
		for j := range lengths {
			x := ab.Sheets[0].Blocks[0].Rows[i].Cells[j]
			y := ba.Sheets[0].Blocks[0].Rows[i].Cells[j]
			if x.IsMissing() != y.IsMissing() {
				t.Errorf("[%d][%d]: validity differs: %v vs %v", i, j, x, y)
				continue
			}
			fx, _ := x.Float()
			fy, _ := y.Float()
			if !x.IsMissing() && !near(fx, -fy) {
				t.Errorf("[%d][%d]: %v != -%v", i, j, fx, fy)
			}
		}
	}
}

func TestCompute_MultipleComparisons(t *testing.T) {
	lengths := []string{"050"}
	base := table(lengths, map[string][]score.Value{"R1": {score.Of(0.5)}})
	c1 := table(lengths, map[string][]score.Value{"R1": {score.Of(0.6)}})
	c2 := table(lengths, map[string][]score.Value{"R1": {score.Of(0.3)}})

	r, err := Compute(base, []Comparison{{Name: "up", Table: c1}, {Name: "down", Table: c2}}, []string{"R1"})
	if err != nil {
		t.Fatal(err)
	}
	blocks := r.Sheets[0].Blocks
	if blocks[0].Comparison != "up" || blocks[1].Comparison != "down" {
		t.Errorf("comparison order = %q, %q", blocks[0].Comparison, blocks[1].Comparison)
	}
	if !near(blocks[0].Final, 0.1) || !near(blocks[1].Final, -0.2) {
		t.Errorf("finals = %v, %v", blocks[0].Final, blocks[1].Final)
	}
}

func TestCompute_Errors(t *testing.T) {
	base := table([]string{"050"}, map[string][]score.Value{"R1": {score.Of(0.5)}})

	if _, err := Compute(base, nil, nil); !errors.Is(err, ErrNoComparisons) {
		t.Errorf("no comparisons: err = %v, want ErrNoComparisons", err)
	}
	if _, err := Compute(corrtable.New(nil, nil), []Comparison{{Name: "x", Table: base}}, nil); !errors.Is(err, ErrNoLengths) {
		t.Errorf("no lengths: err = %v, want ErrNoLengths", err)
	}
	dup := []Comparison{{Name: "x", Table: base}, {Name: "x", Table: base}}
	if _, err := Compute(base, dup, nil); err == nil {
		t.Error("expected error for duplicate comparison names")
	}
}

func TestCompute_DefaultRougeTypes(t *testing.T) {
	base := table([]string{"050"}, map[string][]score.Value{"R1": {score.Of(0.5)}})
	r, err := Compute(base, []Comparison{{Name: "x", Table: base}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(r.Sheets[0].Blocks[0].Rows); got != len(DefaultRougeTypes) {
		t.Errorf("rows = %d, want %d", got, len(DefaultRougeTypes))
	}
}

func TestCell(t *testing.T) {
	tests := []struct {
		name       string
		base, comp score.Value
		want       float64
		ok         bool
	}{
		{"both valid", score.Of(0.2), score.Of(0.5), 0.3, true},
		{"floor is valid", score.Of(0), score.Of(-1), -1, true},
		{"comparison below floor", score.Of(0.2), score.Of(-999), 0, false},
		{"comparison missing", score.Of(0.2), score.Missing(), 0, false},
		{"baseline missing", score.Missing(), score.Of(0.2), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Cell(tt.base, tt.comp)
			if ok != tt.ok || (ok && !near(got, tt.want)) {
				t.Errorf("Cell() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

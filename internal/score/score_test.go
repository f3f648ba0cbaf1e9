package score

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want Value
	}{
		{"0.25", Of(0.25)},
		{" 3 ", Of(3)},
		{"-", Missing()},
		{"", Missing()},
		{"nan", Missing()},
		{"-999", Of(-999)},
		{"abc", Missing()},
		{"N/A", Missing()},
	}
	for _, tt := range tests {
		if got := ParseValue(tt.in); got != tt.want {
			t.Errorf("ParseValue(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValueValid(t *testing.T) {
	if Missing().Valid() {
		t.Error("missing value should not be valid")
	}
	if !Of(-1).Valid() {
		t.Error("-1 is the floor and should be valid")
	}
	if Of(-999).Valid() {
		t.Error("-999 is below the floor and should not be valid")
	}
	if Of(math.NaN()).Valid() {
		t.Error("NaN should not be valid")
	}
	if Of(0).IsMissing() {
		t.Error("zero is a real score, not missing")
	}
}

func TestValueFormat(t *testing.T) {
	if got := Of(0.12345).Format(2); got != "0.12" {
		t.Errorf("Format(2) = %q, want 0.12", got)
	}
	if got := Missing().Format(2); got != MissingMarker {
		t.Errorf("Format of missing = %q, want %q", got, MissingMarker)
	}
	if got := Of(0.1).String(); got != "0.1" {
		t.Errorf("String = %q, want 0.1", got)
	}
}

func TestReadHuman(t *testing.T) {
	in := "system_name,050,100\nA,3.0,4.0\nB,1.0,-\n"
	table, err := ReadHuman(strings.NewReader(in), Strict)
	if err != nil {
		t.Fatalf("ReadHuman: %v", err)
	}
	if diff := cmp.Diff([]string{"050", "100"}, table.Lengths); diff != "" {
		t.Errorf("lengths mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "B"}, table.Systems); diff != "" {
		t.Errorf("systems mismatch (-want +got):\n%s", diff)
	}
	if got := table.Get("A", "100"); got != Of(4) {
		t.Errorf("A@100 = %v, want 4", got)
	}
	if !table.Get("B", "100").IsMissing() {
		t.Error("B@100 should be missing, not coerced")
	}
	scores := table.Scores("100")
	if len(scores) != 2 {
		t.Fatalf("Scores(100) has %d systems, want 2", len(scores))
	}
	if !scores["B"].IsMissing() {
		t.Error("missing marker should survive into the ranking")
	}
}

func TestReadHuman_StrictMalformed(t *testing.T) {
	in := "system_name,050,100\nA,3.0,4.0\nB,1.0\n"
	_, err := ReadHuman(strings.NewReader(in), Strict)
	var mre *MalformedRowError
	if !errors.As(err, &mre) {
		t.Fatalf("expected MalformedRowError, got %v", err)
	}
	if mre.Line != 3 || mre.Expected != 3 || mre.Got != 2 {
		t.Errorf("unexpected error detail: %+v", mre)
	}
}

func TestReadHuman_TolerantSkips(t *testing.T) {
	in := "system_name,050,100\nA,3.0,4.0\nB,1.0\nC,x,2\nD,2,2\n"
	table, err := ReadHuman(strings.NewReader(in), Tolerant)
	if err != nil {
		t.Fatalf("ReadHuman: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "C", "D"}, table.Systems); diff != "" {
		t.Errorf("systems mismatch (-want +got):\n%s", diff)
	}
	if len(table.Skipped) != 1 || table.Skipped[0].Line != 3 {
		t.Errorf("expected only line 3 skipped, got %+v", table.Skipped)
	}
	if !table.Get("C", "050").IsMissing() {
		t.Error("C@050 should be missing")
	}
	if table.Get("C", "100") != Of(2) {
		t.Errorf("C@100 = %v, want 2", table.Get("C", "100"))
	}
}

func TestReadHuman_NonNumericCellIsMissing(t *testing.T) {
	in := "system_name,050,100\nA,n/a,4\nB,1,2\n"
	table, err := ReadHuman(strings.NewReader(in), Strict)
	if err != nil {
		t.Fatalf("ReadHuman: %v", err)
	}
	if !table.Get("A", "050").IsMissing() {
		t.Error("A@050 should be missing")
	}
	if table.Get("A", "100") != Of(4) {
		t.Errorf("A@100 = %v, want 4", table.Get("A", "100"))
	}
}

func TestReadHuman_QuotedFields(t *testing.T) {
	in := "system_name,050\n\"Smith, J. \"\"lead\"\"\",0.5\n"
	table, err := ReadHuman(strings.NewReader(in), Strict)
	if err != nil {
		t.Fatalf("ReadHuman: %v", err)
	}
	want := `Smith, J. "lead"`
	if diff := cmp.Diff([]string{want}, table.Systems); diff != "" {
		t.Errorf("systems mismatch (-want +got):\n%s", diff)
	}
	if table.Get(want, "050") != Of(0.5) {
		t.Errorf("score = %v, want 0.5", table.Get(want, "050"))
	}
}

func TestReadHuman_NoHeader(t *testing.T) {
	if _, err := ReadHuman(strings.NewReader("\n\n"), Strict); err == nil {
		t.Error("expected error for empty input")
	}
}

const rougeCSV = `ROUGE_type,050_r,100_r,050_p,100_p,050_f,100_f

A
R1,0.1,0.2,0.3,0.4,0.5,0.6
R2,0.01,-,0.03,0.04,0.05,0.06


B
R1,0.7,0.8,0.9,1.0,0.11,0.12
`

func TestReadRouge(t *testing.T) {
	table, err := ReadRouge(strings.NewReader(rougeCSV), Strict)
	if err != nil {
		t.Fatalf("ReadRouge: %v", err)
	}
	if diff := cmp.Diff([]string{"050", "100"}, table.Lengths); diff != "" {
		t.Errorf("lengths mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"R1", "R2"}, table.RougeTypes); diff != "" {
		t.Errorf("rouge types mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		key  RougeKey
		want Value
	}{
		{RougeKey{"A", "R1", "050", Recall}, Of(0.1)},
		{RougeKey{"A", "R1", "100", Precision}, Of(0.4)},
		{RougeKey{"A", "R1", "100", F1}, Of(0.6)},
		{RougeKey{"A", "R2", "100", Recall}, Missing()},
		{RougeKey{"B", "R1", "050", F1}, Of(0.11)},
		{RougeKey{"B", "R2", "050", F1}, Missing()},
	}
	for _, tt := range tests {
		if got := table.Get(tt.key); got != tt.want {
			t.Errorf("Get(%+v) = %v, want %v", tt.key, got, tt.want)
		}
	}

	scores := table.Scores("R2", "050", Recall)
	if _, ok := scores["B"]; ok {
		t.Error("system without an R2 row should be absent from the ranking")
	}
}

func TestReadRouge_BadHeader(t *testing.T) {
	for _, header := range []string{
		"ROUGE_type,050_r,100_r",
		"ROUGE_type,050_r,050_x,050_f",
		"ROUGE_type,050_r,100_p,050_f",
	} {
		if _, err := ReadRouge(strings.NewReader(header+"\n"), Tolerant); err == nil {
			t.Errorf("expected header error for %q", header)
		}
	}
}

func TestReadRouge_RowBeforeSystem(t *testing.T) {
	in := "ROUGE_type,050_r,050_p,050_f\nR1,0.1,0.2,0.3\n"
	_, err := ReadRouge(strings.NewReader(in), Strict)
	var mre *MalformedRowError
	if !errors.As(err, &mre) {
		t.Fatalf("expected MalformedRowError, got %v", err)
	}
}

func TestReadRouge_TolerantSkipsShortRows(t *testing.T) {
	in := "ROUGE_type,050_r,050_p,050_f\n\nA\nR1,0.1,0.2\nR2,0.1,0.2,0.3\n"
	table, err := ReadRouge(strings.NewReader(in), Tolerant)
	if err != nil {
		t.Fatalf("ReadRouge: %v", err)
	}
	if len(table.Skipped) != 1 {
		t.Fatalf("expected 1 skipped row, got %d", len(table.Skipped))
	}
	if diff := cmp.Diff([]string{"R2"}, table.RougeTypes); diff != "" {
		t.Errorf("rouge types mismatch (-want +got):\n%s", diff)
	}
}

func TestReadRouge_NonNumericCellIsMissing(t *testing.T) {
	in := "ROUGE_type,050_r,050_p,050_f\n\nA\nR1,0.5,N/A,0.3\n"
	table, err := ReadRouge(strings.NewReader(in), Tolerant)
	if err != nil {
		t.Fatalf("ReadRouge: %v", err)
	}
	if len(table.Skipped) != 0 {
		t.Errorf("expected no skipped rows, got %+v", table.Skipped)
	}
	if got := table.Get(RougeKey{"A", "R1", "050", Recall}); got != Of(0.5) {
		t.Errorf("recall = %v, want 0.5", got)
	}
	if !table.Get(RougeKey{"A", "R1", "050", Precision}).IsMissing() {
		t.Error("precision should be missing")
	}
}

func TestHumanRoundTrip(t *testing.T) {
	in := "system_name,050,100,200\nA,3.25,4,-\nB,1.0000001,2,0.5\n"
	table, err := ReadHuman(strings.NewReader(in), Strict)
	if err != nil {
		t.Fatalf("ReadHuman: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteHuman(&buf, table); err != nil {
		t.Fatalf("WriteHuman: %v", err)
	}
	again, err := ReadHuman(&buf, Strict)
	if err != nil {
		t.Fatalf("ReadHuman (again): %v", err)
	}
	if diff := cmp.Diff(table.scores, again.scores, cmp.AllowUnexported(Value{})); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip_NamesNeedingQuotes(t *testing.T) {
	names := []string{"plain", "with,comma", `with "quote"`}

	h := NewHumanTable([]string{"050"})
	rt := NewRougeTable([]string{"050"})
	for i, n := range names {
		h.Set(n, "050", Of(float64(i)))
		for _, m := range Measures {
			rt.Set(RougeKey{System: n, RougeType: "R1", Length: "050", Measure: m}, Of(float64(i)))
		}
	}

	var hb, rb bytes.Buffer
	if err := WriteHuman(&hb, h); err != nil {
		t.Fatalf("WriteHuman: %v", err)
	}
	if err := WriteRouge(&rb, rt); err != nil {
		t.Fatalf("WriteRouge: %v", err)
	}
	h2, err := ReadHuman(&hb, Strict)
	if err != nil {
		t.Fatalf("ReadHuman: %v", err)
	}
	rt2, err := ReadRouge(&rb, Strict)
	if err != nil {
		t.Fatalf("ReadRouge: %v", err)
	}
	if diff := cmp.Diff(names, h2.Systems); diff != "" {
		t.Errorf("human systems mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(names, rt2.Systems); diff != "" {
		t.Errorf("ROUGE systems mismatch (-want +got):\n%s", diff)
	}
	for i, n := range names {
		if got := h2.Get(n, "050"); got != Of(float64(i)) {
			t.Errorf("human %q = %v, want %d", n, got, i)
		}
		if got := rt2.Get(RougeKey{System: n, RougeType: "R1", Length: "050", Measure: F1}); got != Of(float64(i)) {
			t.Errorf("ROUGE %q = %v, want %d", n, got, i)
		}
	}
}

func TestWriteRouge_Layout(t *testing.T) {
	rt := NewRougeTable([]string{"050"})
	rt.Set(RougeKey{System: "A", RougeType: "R1", Length: "050", Measure: Recall}, Of(0.5))
	var buf bytes.Buffer
	if err := WriteRouge(&buf, rt); err != nil {
		t.Fatalf("WriteRouge: %v", err)
	}
	want := "ROUGE_type,050_r,050_p,050_f\n\nA\nR1,0.5,-,-\n\n\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteRouge = %q, want %q", got, want)
	}
}

func TestRougeRoundTrip(t *testing.T) {
	table, err := ReadRouge(strings.NewReader(rougeCSV), Strict)
	if err != nil {
		t.Fatalf("ReadRouge: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteRouge(&buf, table); err != nil {
		t.Fatalf("WriteRouge: %v", err)
	}
	again, err := ReadRouge(&buf, Strict)
	if err != nil {
		t.Fatalf("ReadRouge (again): %v", err)
	}
	for _, sys := range table.Systems {
		for _, rt := range table.RougeTypes {
			for _, l := range table.Lengths {
				for _, m := range Measures {
					k := RougeKey{sys, rt, l, m}
					if table.Get(k) != again.Get(k) {
						t.Errorf("%+v: %v != %v", k, table.Get(k), again.Get(k))
					}
				}
			}
		}
	}
}

func TestSaveHuman_NeverOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "human.csv")
	table := NewHumanTable([]string{"050"})
	table.Set("A", "050", Of(1))

	if err := SaveHuman(path, table); err != nil {
		t.Fatalf("SaveHuman: %v", err)
	}
	if err := SaveHuman(path, table); err == nil {
		t.Fatal("expected error when the file already exists")
	}
	loaded, err := LoadHuman(path, Strict)
	if err != nil {
		t.Fatalf("LoadHuman: %v", err)
	}
	if loaded.Get("A", "050") != Of(1) {
		t.Error("saved table does not load back")
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("output directory not created: %v", err)
	}
}

func TestSortLengths(t *testing.T) {
	lengths := []string{"400", "050", "10", "200", "abc", "100"}
	SortLengths(lengths)
	want := []string{"10", "050", "100", "200", "400", "abc"}
	if diff := cmp.Diff(want, lengths); diff != "" {
		t.Errorf("SortLengths mismatch (-want +got):\n%s", diff)
	}
}

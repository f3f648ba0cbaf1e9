package rouge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/summeval/rougecorr/internal/score"
)

func TestReferenceLength(t *testing.T) {
	lens := []string{"010", "050", "100", "200"}
	tests := []struct {
		c      Comparison
		length string
		want   string
		none   bool
	}{
		{SameLength, "100", "100", false},
		{VaryingLength, "100", "", false},
		{ToSmallest, "200", "010", false},
		{ToSecondSmallest, "200", "050", false},
		{ToSecondLargest, "010", "100", false},
		{ToLargest, "010", "200", false},
		{ToOneSmaller, "100", "050", false},
		{ToOneSmaller, "010", "", true},
		{ToOneLarger, "100", "200", false},
		{ToOneLarger, "200", "", true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.c, tt.length), func(t *testing.T) {
			got, err := tt.c.ReferenceLength(tt.length, lens)
			if tt.none {
				if !errors.Is(err, ErrNoReferenceLength) {
					t.Errorf("err = %v, want ErrNoReferenceLength", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ReferenceLength() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}

	if _, err := ToSecondSmallest.ReferenceLength("010", []string{"010"}); !errors.Is(err, ErrNoReferenceLength) {
		t.Errorf("single length: err = %v, want ErrNoReferenceLength", err)
	}
	if _, err := ParseComparison("to_middle"); err == nil {
		t.Error("expected error for unknown comparison")
	}
}

func TestPatterns(t *testing.T) {
	sys := regexp.MustCompile("^" + SystemPattern("050", "16", "html"))
	for name, want := range map[string]bool{
		"D061.M.050.J.16.html":  true,
		"D061.M.100.J.16.html":  false,
		"D061.M.050.J.116.html": false,
		"D061.P.050.J.16.html":  false,
		"D061.M.050.J.16.txt":   false,
	} {
		if got := sys.MatchString(name); got != want {
			t.Errorf("system pattern on %s = %v, want %v", name, got, want)
		}
	}
	if m := sys.FindStringSubmatch("D061.M.050.J.16.html"); m[1] != "D061" {
		t.Errorf("task group = %q, want D061", m[1])
	}

	model := regexp.MustCompile("^" + expandModelPattern(ModelPattern("100", "html"), "D061"))
	if !model.MatchString("D061.M.100.A.B.html") || model.MatchString("D062.M.100.A.B.html") || model.MatchString("D061.M.050.A.B.html") {
		t.Error("model pattern with fixed length matched wrongly")
	}
	all := regexp.MustCompile("^" + expandModelPattern(ModelPattern("", "html"), "D061"))
	if !all.MatchString("D061.M.050.A.B.html") || !all.MatchString("D061.M.400.A.C.html") {
		t.Error("model pattern for all lengths should match every length")
	}
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("<html></html>"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"D061.M.100.J.16.html",
		"D061.M.050.J.16.html",
		"D062.M.050.J.2.html",
		"D061.P.100.J.99.AP880916-0060.html",
		"D063.M.200.J.5.txt",
		"D063.M.050.J.7.html.bak",
		"README",
	)
	c, err := Discover(dir, "html")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := &Corpus{Tasks: []string{"D061", "D062"}, Systems: []string{"16", "2"}, Lengths: []string{"050", "100"}}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("corpus mismatch (-want +got):\n%s", diff)
	}

	empty := t.TempDir()
	touch(t, empty, "notes.txt")
	if _, err := Discover(empty, "html"); err == nil {
		t.Error("expected error for directory without summaries")
	}

	txt, err := Discover(dir, "txt")
	if err != nil {
		t.Fatalf("Discover(txt): %v", err)
	}
	if diff := cmp.Diff([]string{"5"}, txt.Systems); diff != "" {
		t.Errorf("txt systems mismatch (-want +got):\n%s", diff)
	}
}

func TestModelID(t *testing.T) {
	tests := []struct {
		i    int
		want string
	}{
		{0, "A"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
	}
	for _, tt := range tests {
		if got := modelID(tt.i); got != tt.want {
			t.Errorf("modelID(%d) = %q, want %q", tt.i, got, tt.want)
		}
	}
}

func TestBuildSettings(t *testing.T) {
	sysDir, modelDir := t.TempDir(), t.TempDir()
	touch(t, sysDir, "D061.M.050.J.16.html", "D062.M.050.K.16.html", "D061.M.050.J.17.html")
	touch(t, modelDir, "D061.M.050.J.A.html", "D061.M.050.J.B.html", "D062.M.050.K.A.html", "D061.M.100.J.A.html")

	out, err := BuildSettings(Job{
		SystemDir:     sysDir,
		ModelDir:      modelDir,
		SystemPattern: SystemPattern("050", "16", "html"),
		ModelPattern:  ModelPattern("050", "html"),
		Length:        "050",
	})
	if err != nil {
		t.Fatalf("BuildSettings: %v", err)
	}
	doc := string(out)
	for _, want := range []string{
		`<ROUGE-EVAL version="1.55">`,
		`<EVAL ID="1">`,
		`<EVAL ID="2">`,
		`<INPUT-FORMAT TYPE="SEE"></INPUT-FORMAT>`,
		`<P ID="1">D061.M.050.J.16.html</P>`,
		`<M ID="A">D061.M.050.J.A.html</M>`,
		`<M ID="B">D061.M.050.J.B.html</M>`,
		`<M ID="A">D062.M.050.K.A.html</M>`,
		"<MODEL-ROOT>" + modelDir + "</MODEL-ROOT>",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("settings missing %s:\n%s", want, doc)
		}
	}
	if strings.Contains(doc, "D061.M.050.J.17.html") || strings.Contains(doc, "D061.M.100.J.A.html") {
		t.Errorf("settings include unrelated files:\n%s", doc)
	}
}

func TestBuildSettings_NoMatches(t *testing.T) {
	sysDir, modelDir := t.TempDir(), t.TempDir()
	touch(t, sysDir, "D061.M.050.J.16.html")
	touch(t, modelDir, "D061.M.100.J.A.html")

	job := Job{SystemDir: sysDir, ModelDir: modelDir, ModelPattern: ModelPattern("050", "html"), Length: "050"}
	job.SystemPattern = SystemPattern("050", "16", "html")
	if _, err := BuildSettings(job); !errors.Is(err, ErrNoSummaries) {
		t.Errorf("no references: err = %v, want ErrNoSummaries", err)
	}
	job.SystemPattern = SystemPattern("050", "99", "html")
	if _, err := BuildSettings(job); !errors.Is(err, ErrNoSummaries) {
		t.Errorf("no systems: err = %v, want ErrNoSummaries", err)
	}
}

const sampleOutput = `---------------------------------------------
1 ROUGE-1 Average_R: 0.41512 (95%-conf.int. 0.39000 - 0.44000)
1 ROUGE-1 Average_P: 0.40000 (95%-conf.int. 0.38000 - 0.42000)
1 ROUGE-1 Average_F: 0.40742 (95%-conf.int. 0.38500 - 0.43000)
---------------------------------------------
1 ROUGE-SU4 Average_R: 0.15000 (95%-conf.int. 0.14000 - 0.16000)
1 ROUGE-W-1.2 Average_F: 0.12000 (95%-conf.int. 0.11000 - 0.13000)
1 ROUGE-L Eval D061.M.050.J.16.html R:0.40000 P:0.40000 F:0.40000
`

func TestParseOutput(t *testing.T) {
	got := ParseOutput(sampleOutput)
	want := map[string]float64{
		"rouge_1_recall":         0.41512,
		"rouge_1_recall_cb":      0.39,
		"rouge_1_recall_ce":      0.44,
		"rouge_1_precision":      0.4,
		"rouge_1_precision_cb":   0.38,
		"rouge_1_precision_ce":   0.42,
		"rouge_1_f_score":        0.40742,
		"rouge_1_f_score_cb":     0.385,
		"rouge_1_f_score_ce":     0.43,
		"rouge_su4_recall":       0.15,
		"rouge_su4_recall_cb":    0.14,
		"rouge_su4_recall_ce":    0.16,
		"rouge_w_1.2_f_score":    0.12,
		"rouge_w_1.2_f_score_cb": 0.11,
		"rouge_w_1.2_f_score_ce": 0.13,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseOutput mismatch (-want +got):\n%s", diff)
	}
	if len(ParseOutput("Illegal option")) != 0 {
		t.Error("expected no scores from unrelated output")
	}
}

func TestPerlScorer_Args(t *testing.T) {
	p := &PerlScorer{Home: "/opt/rouge"}
	got, err := p.Args(Job{Length: "050", StopWords: true})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"-e", "/opt/rouge/data", "-c", "95", "-2", "4", "-U", "-r", "1000", "-n", "4", "-w", "1.2", "-a", "-l", "50", "-s"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Args mismatch (-want +got):\n%s", diff)
	}
	if _, err := p.Args(Job{Length: "long"}); err == nil {
		t.Error("expected error for non-numeric length")
	}
}

func TestPerlScorer_Score(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as the perl binary")
	}
	sysDir, modelDir, bin := t.TempDir(), t.TempDir(), t.TempDir()
	touch(t, sysDir, "D061.M.050.J.16.html")
	touch(t, modelDir, "D061.M.050.J.A.html")

	fake := filepath.Join(bin, "perl")
	script := "#!/bin/sh\ncat <<'EOF'\n" + sampleOutput + "EOF\n"
	if err := os.WriteFile(fake, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	p := &PerlScorer{Home: bin, Perl: fake}
	got, err := p.Score(context.Background(), Job{
		SystemDir:     sysDir,
		ModelDir:      modelDir,
		SystemPattern: SystemPattern("050", "16", "html"),
		ModelPattern:  ModelPattern("050", "html"),
		Length:        "050",
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got["rouge_1_recall"] != 0.41512 {
		t.Errorf("rouge_1_recall = %v, want 0.41512", got["rouge_1_recall"])
	}

	failing := filepath.Join(bin, "broken")
	if err := os.WriteFile(failing, []byte("#!/bin/sh\necho boom >&2\nexit 2\n"), 0755); err != nil {
		t.Fatal(err)
	}
	p.Perl = failing
	_, err = p.Score(context.Background(), Job{
		SystemDir:     sysDir,
		ModelDir:      modelDir,
		SystemPattern: SystemPattern("050", "16", "html"),
		ModelPattern:  ModelPattern("050", "html"),
		Length:        "050",
	})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("err = %v, want failure mentioning stderr", err)
	}
}

// fakeScorer returns fixed scores and fails for listed systems.
type fakeScorer struct {
	fail  map[string]bool
	calls []Job
}

func (f *fakeScorer) Score(_ context.Context, job Job) (map[string]float64, error) {
	f.calls = append(f.calls, job)
	for sys := range f.fail {
		if strings.Contains(job.SystemPattern, `\.`+sys+`\.`) {
			return nil, errors.New("ROUGE exploded")
		}
	}
	return map[string]float64{
		"rouge_1_recall":    0.5,
		"rouge_1_precision": 0.4,
		"rouge_1_f_score":   0.45,
		"rouge_l_recall":    0.3,
	}, nil
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"D061.M.050.J.1.html", "D061.M.100.J.1.html",
		"D061.M.050.J.2.html", "D061.M.100.J.2.html",
	)
	fake := &fakeScorer{fail: map[string]bool{"2": true}}
	ex := NewExtractor(fake, WithInterval(0))

	tbl, outcomes, err := ex.Extract(context.Background(), Input{
		SystemDir:  dir,
		ModelDir:   dir,
		Comparison: ToOneLarger,
		StopWords:  true,
		RougeTypes: []string{"R1", "RL"},
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	// system 1 at 050 scored; system 2 at 050 failed; both at 100 have no larger length
	if len(fake.calls) != 2 {
		t.Errorf("scorer called %d times, want 2", len(fake.calls))
	}
	if !fake.calls[0].StopWords {
		t.Error("stop-word flag not passed to scorer")
	}
	if len(outcomes) != 4 {
		t.Fatalf("got %d outcomes, want 4", len(outcomes))
	}
	var ok, noRef, failed int
	for _, o := range outcomes {
		switch {
		case o.OK():
			ok++
			if o.ReferenceLength != "100" {
				t.Errorf("reference length = %q, want 100", o.ReferenceLength)
			}
		case errors.Is(o.Err, ErrNoReferenceLength):
			noRef++
		default:
			failed++
		}
	}
	if ok != 1 || noRef != 2 || failed != 1 {
		t.Errorf("ok/noRef/failed = %d/%d/%d, want 1/2/1", ok, noRef, failed)
	}

	key := score.RougeKey{System: "1", RougeType: "R1", Length: "050", Measure: score.F1}
	if f, _ := tbl.Get(key).Float(); f != 0.45 {
		t.Errorf("1/R1/050/f1 = %v, want 0.45", f)
	}
	key.RougeType, key.Measure = "RL", score.Precision
	if !tbl.Get(key).IsMissing() {
		t.Error("score absent from scorer output should be missing")
	}
	key = score.RougeKey{System: "2", RougeType: "R1", Length: "050", Measure: score.Recall}
	if !tbl.Get(key).IsMissing() {
		t.Error("failed combination should be missing")
	}
	if diff := cmp.Diff([]string{"1", "2"}, tbl.Systems); diff != "" {
		t.Errorf("Systems mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_Errors(t *testing.T) {
	ex := NewExtractor(&fakeScorer{}, WithInterval(0))
	dir := t.TempDir()
	touch(t, dir, "D061.M.050.J.1.html")

	if _, _, err := ex.Extract(context.Background(), Input{SystemDir: dir, ModelDir: dir, Comparison: "sideways"}); err == nil {
		t.Error("expected error for unknown comparison")
	}
	if _, _, err := ex.Extract(context.Background(), Input{SystemDir: dir, ModelDir: dir, Comparison: SameLength, RougeTypes: []string{"R9"}}); err == nil {
		t.Error("expected error for unknown ROUGE type")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := NewExtractor(&fakeScorer{}, WithInterval(time.Hour))
	if _, _, err := slow.Extract(ctx, Input{SystemDir: dir, ModelDir: dir, Comparison: SameLength}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: err = %v, want context.Canceled", err)
	}
}

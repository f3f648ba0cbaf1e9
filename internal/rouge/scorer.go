package rouge

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrNoSummaries means a job matched no system summaries, or a system
// summary had no reference summaries.
var ErrNoSummaries = errors.New("no matching summaries")

// Job is one scorer invocation: every system summary matching
// SystemPattern against the reference summaries of its task.
type Job struct {
	SystemDir     string
	ModelDir      string
	SystemPattern string
	ModelPattern  string // may contain TaskPlaceholder
	Length        string // truncation length in words
	StopWords     bool   // remove stop words before scoring
}

// Scorer computes ROUGE scores for a job. Keys look like rouge_2_recall.
type Scorer interface {
	Score(ctx context.Context, job Job) (map[string]float64, error)
}

// PerlScorer runs ROUGE-1.5.5.pl.
type PerlScorer struct {
	Home string // directory holding ROUGE-1.5.5.pl and data/
	Perl string // perl binary; "perl" when empty
}

// Args returns the command-line options passed to ROUGE-1.5.5 for a job,
// without the settings file.
func (p *PerlScorer) Args(job Job) ([]string, error) {
	n, err := strconv.Atoi(job.Length)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("summary length %q is not a word count", job.Length)
	}
	args := []string{
		"-e", filepath.Join(p.Home, "data"),
		"-c", "95", "-2", "4", "-U", "-r", "1000", "-n", "4", "-w", "1.2", "-a",
		"-l", strconv.Itoa(n),
	}
	if job.StopWords {
		args = append(args, "-s")
	}
	return args, nil
}

// Score writes a settings file for job, runs the scorer and parses its output.
func (p *PerlScorer) Score(ctx context.Context, job Job) (map[string]float64, error) {
	args, err := p.Args(job)
	if err != nil {
		return nil, err
	}
	settings, err := BuildSettings(job)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "rouge-settings-*.xml")
	if err != nil {
		return nil, fmt.Errorf("creating settings file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(settings); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("writing settings file: %w", err)
	}

	perl := p.Perl
	if perl == "" {
		perl = "perl"
	}
	cmdArgs := append([]string{filepath.Join(p.Home, "ROUGE-1.5.5.pl")}, args...)
	cmdArgs = append(cmdArgs, tmp.Name())
	cmd := exec.CommandContext(ctx, perl, cmdArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("running ROUGE-1.5.5: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	scores := ParseOutput(stdout.String())
	if len(scores) == 0 {
		return nil, fmt.Errorf("ROUGE-1.5.5 produced no scores")
	}
	return scores, nil
}

type settingsXML struct {
	XMLName xml.Name  `xml:"ROUGE-EVAL"`
	Version string    `xml:"version,attr"`
	Evals   []evalXML `xml:"EVAL"`
}

type evalXML struct {
	ID          string     `xml:"ID,attr"`
	ModelRoot   string     `xml:"MODEL-ROOT"`
	PeerRoot    string     `xml:"PEER-ROOT"`
	InputFormat formatXML  `xml:"INPUT-FORMAT"`
	Peers       []entryXML `xml:"PEERS>P"`
	Models      []entryXML `xml:"MODELS>M"`
}

type formatXML struct {
	Type string `xml:"TYPE,attr"`
}

type entryXML struct {
	ID   string `xml:"ID,attr"`
	File string `xml:",chardata"`
}

// BuildSettings lists the system summaries matching the job and, for each,
// the reference summaries of the same task, as a ROUGE-1.5.5 settings file.
func BuildSettings(job Job) ([]byte, error) {
	sysRe, err := regexp.Compile("^" + job.SystemPattern)
	if err != nil {
		return nil, fmt.Errorf("system pattern: %w", err)
	}
	systemFiles, err := listFiles(job.SystemDir)
	if err != nil {
		return nil, err
	}
	modelFiles, err := listFiles(job.ModelDir)
	if err != nil {
		return nil, err
	}

	doc := settingsXML{Version: "1.55"}
	for _, name := range systemFiles {
		m := sysRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		task := name
		if len(m) > 1 {
			task = m[1]
		}
		modelRe, err := regexp.Compile("^" + expandModelPattern(job.ModelPattern, task))
		if err != nil {
			return nil, fmt.Errorf("model pattern: %w", err)
		}
		var models []entryXML
		for _, mf := range modelFiles {
			if modelRe.MatchString(mf) {
				models = append(models, entryXML{ID: modelID(len(models)), File: mf})
			}
		}
		if len(models) == 0 {
			return nil, fmt.Errorf("%w: no references for %s", ErrNoSummaries, name)
		}
		doc.Evals = append(doc.Evals, evalXML{
			ID:          strconv.Itoa(len(doc.Evals) + 1),
			ModelRoot:   job.ModelDir,
			PeerRoot:    job.SystemDir,
			InputFormat: formatXML{Type: "SEE"},
			Peers:       []entryXML{{ID: "1", File: name}},
			Models:      models,
		})
	}
	if len(doc.Evals) == 0 {
		return nil, fmt.Errorf("%w: nothing in %s matches %s", ErrNoSummaries, job.SystemDir, job.SystemPattern)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	return append(out, '\n'), nil
}

// modelID returns A, B, ..., Z, AA, AB, ... for the i-th reference summary.
func modelID(i int) string {
	var b []byte
	for i++; i > 0; i = (i - 1) / 26 {
		b = append([]byte{byte('A' + (i-1)%26)}, b...)
	}
	return string(b)
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

var outputLine = regexp.MustCompile(`^(\d+) (ROUGE-\S+) (Average_\w): (\d\.\d+) \(95%-conf\.int\. (\d\.\d+) - (\d\.\d+)\)`)

var measureNames = map[string]string{
	"Average_R": "recall",
	"Average_P": "precision",
	"Average_F": "f_score",
}

// ParseOutput reads the summary lines of ROUGE-1.5.5 output, such as
//
//	1 ROUGE-2 Average_R: 0.08123 (95%-conf.int. 0.07000 - 0.09270)
//
// into rouge_2_recall plus its confidence bounds rouge_2_recall_cb and
// rouge_2_recall_ce. Other lines are ignored.
func ParseOutput(out string) map[string]float64 {
	scores := make(map[string]float64)
	for _, line := range strings.Split(out, "\n") {
		m := outputLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		measure, ok := measureNames[m[3]]
		if !ok {
			continue
		}
		key := strings.ReplaceAll(strings.ToLower(m[2]), "-", "_") + "_" + measure
		vals := make([]float64, 3)
		bad := false
		for i := range vals {
			f, err := strconv.ParseFloat(m[4+i], 64)
			if err != nil {
				bad = true
				break
			}
			vals[i] = f
		}
		if bad {
			continue
		}
		scores[key] = vals[0]
		scores[key+"_cb"] = vals[1]
		scores[key+"_ce"] = vals[2]
	}
	return scores
}

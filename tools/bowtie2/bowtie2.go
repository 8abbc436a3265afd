// Package bowtie2 parses the alignment summaries bowtie2 and hisat2
// print to stderr.
package bowtie2

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/qc/aggregate"
	"github.com/grailbio/qc/qcmod"
	"github.com/grailbio/qc/report"
)

const searchKey = "bowtie2"

// bismark wraps bowtie2 and reports through its own logs; a log bearing
// this marker is bismark's, not ours.
const bismarkMarker = "Using bowtie 2 for aligning with bismark."

// The (?:concordantly )? alternates cover single-end and paired-end
// summaries. Paired-end logs repeat the "aligned ... times" lines for
// the leftover mates; the first match is the concordant pair count.
var logRes = []struct {
	col string
	re  *regexp.Regexp
}{
	{"reads_processed", regexp.MustCompile(`(\d+) reads; of these:`)},
	{"reads_aligned", regexp.MustCompile(`(\d+) \([\d\.]+%\) aligned (?:concordantly )?exactly 1 time`)},
	{"reads_aligned_percentage", regexp.MustCompile(`\(([\d\.]+)%\) aligned (?:concordantly )?exactly 1 time`)},
	{"not_aligned", regexp.MustCompile(`(\d+) \([\d\.]+%\) aligned (?:concordantly )?0 times`)},
	{"not_aligned_percentage", regexp.MustCompile(`\(([\d\.]+)%\) aligned (?:concordantly )?0 times`)},
	{"multimapped", regexp.MustCompile(`(\d+) \([\d\.]+%\) aligned (?:concordantly )?>1 times`)},
	{"multimapped_percentage", regexp.MustCompile(`\(([\d\.]+)%\) aligned (?:concordantly )?>1 times`)},
	{"overall_aligned_rate", regexp.MustCompile(`([\d\.]+)% overall alignment rate`)},
}

var versionRe = regexp.MustCompile(`bowtie2-align-s version ([\d\.]+)`)

// parseLog extracts the alignment metrics from one log. It returns
// false for logs that are not bowtie2 alignment summaries.
func parseLog(s string) (map[string]aggregate.Value, bool) {
	if strings.Contains(s, bismarkMarker) {
		return nil, false
	}
	if !strings.Contains(s, "reads; of these:") {
		return nil, false
	}
	metrics := make(map[string]aggregate.Value)
	for _, lr := range logRes {
		m := lr.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			metrics[lr.col] = v
		}
	}
	if len(metrics) == 0 {
		return nil, false
	}
	if total, ok := aggregate.Num(metrics["reads_processed"]); ok {
		other := total
		for _, col := range []string{"reads_aligned", "not_aligned", "multimapped"} {
			if v, ok := aggregate.Num(metrics[col]); ok {
				other -= v
			}
		}
		metrics["reads_other"] = other
	}
	return metrics, true
}

func generalStatsHeaders() map[string]report.Header {
	return map[string]report.Header{
		"overall_aligned_rate": {
			Title:       "% Aligned",
			Description: "overall alignment rate",
			Suffix:      "%",
		},
		"reads_processed": {
			Title:       "Reads",
			Description: "total reads processed",
			Hidden:      true,
		},
	}
}

func generalStatsPolicy() aggregate.Policy {
	return aggregate.Policy{
		Weighted: []aggregate.WeightedCol{{Col: "overall_aligned_rate", Weight: "reads_processed"}},
		Sum:      []string{"reads_processed"},
	}
}

// Run parses every discovered bowtie2 log and contributes the results
// to the report. It returns qcmod.ErrNoSamplesFound when no file yields
// usable metrics.
func Run(ctx context.Context, env *qcmod.Env) error {
	m := qcmod.NewModule(env, qcmod.Info{
		Name:   "Bowtie 2",
		Anchor: "bowtie2",
		Href:   "http://bowtie-bio.sourceforge.net/bowtie2/",
		Info:   "ultrafast, memory-efficient short read aligner",
		DOI:    "10.1038/nmeth.1923",
	})

	data := make(map[string]map[string]aggregate.Value)
	for _, f := range m.Files(searchKey, qcmod.PathFilters{}) {
		contents := string(f.Contents)
		metrics, ok := parseLog(contents)
		if !ok {
			continue
		}
		name := m.CleanName(f.Filename, f)
		if m.IsIgnored(name) {
			continue
		}
		if _, dup := data[name]; dup {
			log.Debug.Printf("bowtie2: duplicate sample name %q, overwriting", name)
		}
		data[name] = metrics
		m.AddDataSource(f, name, "")
		if v := versionRe.FindStringSubmatch(contents); v != nil {
			m.AddSoftwareVersion(name, "", v[1])
		}
	}
	if len(data) == 0 {
		return qcmod.ErrNoSamplesFound
	}
	log.Printf("bowtie2: found %d reports", len(data))

	if err := m.WriteDataFile(ctx, "qc_bowtie2", data); err != nil {
		return err
	}
	m.GeneralStatsAddCols(data, generalStatsHeaders(), generalStatsPolicy())
	m.AddSection(report.Section{
		Name:        "Alignment Scores",
		Description: "Reads aligning exactly once, more than once, not at all, and neither (other).",
		Content:     fmt.Sprintf("Alignment outcomes for %d samples.", len(data)),
	})
	return nil
}

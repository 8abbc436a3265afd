// Package flagstat parses samtools flagstat output.
package flagstat

import (
	"context"
	"regexp"
	"strconv"

	"github.com/grailbio/base/log"
	"github.com/grailbio/qc/aggregate"
	"github.com/grailbio/qc/qcmod"
	"github.com/grailbio/qc/report"
)

const searchKey = "samtools/flagstat"

// Every flagstat line pairs a QC-passed with a QC-failed count; the
// mapped, properly-paired and singleton lines append one rate per
// count, "N/A" or "nan" when the denominator is zero. The mapQ variant
// of the different-chr line comes second in the file, so the plain
// pattern binds to the unqualified line first.
var lineRes = []struct {
	key string
	re  *regexp.Regexp
}{
	{"total", regexp.MustCompile(`(\d+) \+ (\d+) in total \(QC-passed reads \+ QC-failed reads\)`)},
	{"secondary", regexp.MustCompile(`(\d+) \+ (\d+) secondary`)},
	{"supplementary", regexp.MustCompile(`(\d+) \+ (\d+) supplementary`)},
	{"duplicates", regexp.MustCompile(`(\d+) \+ (\d+) duplicates`)},
	{"mapped", regexp.MustCompile(`(\d+) \+ (\d+) mapped \(([\d\.]+|nan|-nan|N/A)%?(?:\s*:\s*([\d\.]+|nan|-nan|N/A)%?)?\)`)},
	{"paired in sequencing", regexp.MustCompile(`(\d+) \+ (\d+) paired in sequencing`)},
	{"read1", regexp.MustCompile(`(\d+) \+ (\d+) read1`)},
	{"read2", regexp.MustCompile(`(\d+) \+ (\d+) read2`)},
	{"properly paired", regexp.MustCompile(`(\d+) \+ (\d+) properly paired \(([\d\.]+|nan|-nan|N/A)%?(?:\s*:\s*([\d\.]+|nan|-nan|N/A)%?)?\)`)},
	{"with itself and mate mapped", regexp.MustCompile(`(\d+) \+ (\d+) with itself and mate mapped`)},
	{"singletons", regexp.MustCompile(`(\d+) \+ (\d+) singletons \(([\d\.]+|nan|-nan|N/A)%?(?:\s*:\s*([\d\.]+|nan|-nan|N/A)%?)?\)`)},
	{"with mate mapped to a different chr", regexp.MustCompile(`(\d+) \+ (\d+) with mate mapped to a different chr`)},
	{"with mate mapped to a different chr (mapQ >= 5)", regexp.MustCompile(`(\d+) \+ (\d+) with mate mapped to a different chr \(mapQ>=5\)`)},
}

var groupSuffixes = [...]string{"passed", "failed", "passed_pct", "failed_pct"}

// parseReport extracts the flagstat counts from one report. Counts
// stay integers; rates become floats, with undefined rates left out
// rather than stored as NaN. The result is nil when nothing matched.
func parseReport(s string) map[string]aggregate.Value {
	metrics := make(map[string]aggregate.Value)
	for _, lr := range lineRes {
		m := lr.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		for i, suffix := range groupSuffixes {
			if i+1 >= len(m) || m[i+1] == "" {
				continue
			}
			switch m[i+1] {
			case "nan", "-nan", "N/A":
				continue
			}
			col := lr.key + "_" + suffix
			if n, err := strconv.Atoi(m[i+1]); err == nil {
				metrics[col] = n
			} else if v, err := strconv.ParseFloat(m[i+1], 64); err == nil {
				metrics[col] = v
			}
		}
	}
	if len(metrics) == 0 {
		return nil
	}
	if tp, ok := metrics["total_passed"].(int); ok {
		if tf, ok := metrics["total_failed"].(int); ok {
			metrics["flagstat_total"] = tp + tf
		}
	}
	if _, ok := metrics["mapped_passed_pct"]; !ok {
		mp, mok := aggregate.Num(metrics["mapped_passed"])
		tot, tok := aggregate.Num(metrics["total_passed"])
		if mok && tok && tot > 0 {
			metrics["mapped_passed_pct"] = mp / tot * 100
		}
	}
	return metrics
}

func generalStatsHeaders() map[string]report.Header {
	return map[string]report.Header{
		"mapped_passed_pct": {
			Title:       "% Mapped",
			Description: "fraction of QC-passed reads mapped",
			Suffix:      "%",
		},
		"flagstat_total": {
			Title:       "Reads",
			Description: "total reads in the BAM, QC-passed plus QC-failed",
			Hidden:      true,
		},
	}
}

func generalStatsPolicy() aggregate.Policy {
	return aggregate.Policy{
		Weighted: []aggregate.WeightedCol{{Col: "mapped_passed_pct", Weight: "flagstat_total"}},
		Sum:      []string{"flagstat_total"},
	}
}

// Run parses every discovered flagstat report and contributes the
// results to the report. It returns qcmod.ErrNoSamplesFound when no
// file yields usable metrics.
func Run(ctx context.Context, env *qcmod.Env) error {
	m := qcmod.NewModule(env, qcmod.Info{
		Name:   "Samtools Flagstat",
		Anchor: "flagstat",
		Href:   "https://www.htslib.org",
		Info:   "counts of alignment flag combinations in a BAM file",
		DOI:    "10.1093/gigascience/giab008",
	})

	data := make(map[string]map[string]aggregate.Value)
	for _, f := range m.Files(searchKey, qcmod.PathFilters{}) {
		metrics := parseReport(string(f.Contents))
		if metrics == nil {
			continue
		}
		name := m.CleanName(f.Filename, f)
		if m.IsIgnored(name) {
			continue
		}
		if _, dup := data[name]; dup {
			log.Debug.Printf("flagstat: duplicate sample name %q, overwriting", name)
		}
		data[name] = metrics
		m.AddDataSource(f, name, "")
	}
	if len(data) == 0 {
		return qcmod.ErrNoSamplesFound
	}
	log.Printf("flagstat: found %d reports", len(data))

	if err := m.WriteDataFile(ctx, "qc_samtools_flagstat", data); err != nil {
		return err
	}
	m.GeneralStatsAddCols(data, generalStatsHeaders(), generalStatsPolicy())
	return nil
}

package config

import (
	"github.com/grailbio/qc/samplename"
	"github.com/grailbio/qc/search"
)

// defaultTruncateExts lists the suffixes that end a sample name: the
// name is cut at the first occurrence of each, in order.
var defaultTruncateExts = []string{
	".gz",
	".fastq",
	".fq",
	".bam",
	".sam",
	".cram",
	".sra",
	".vcf",
	".dat",
	"_tophat",
	".log",
	".stderr",
	".out",
	".fa",
	".fasta",
	".png",
	".jpg",
	".jpeg",
	".html",
	"_star_aligned",
	"_fastqc",
	".hicup",
	".counts",
	"_counts",
	".txt",
	".tsv",
	".csv",
	".aligned",
	".sorted",
	".deduplicated",
	".dedup",
	".clean",
	".stat",
	".stats",
	".hist",
	".metrics",
	"_metrics",
	"_flagstat",
}

// defaultCleanTrim lists literals stripped from the ends of a name
// after the truncation rules have run.
var defaultCleanTrim = []string{
	".",
	"_",
	"-",
	"_val",
	"_summary",
	".summary",
}

func defaultCleanExts() []samplename.CleanRule {
	rules := make([]samplename.CleanRule, 0, len(defaultTruncateExts)+1)
	for _, ext := range defaultTruncateExts {
		rules = append(rules, samplename.CleanRule{Kind: samplename.KindTruncate, Pattern: ext})
	}
	// Trailing Illumina sample sheet counters ("mysample_S12").
	rules = append(rules, samplename.CleanRule{Kind: samplename.KindRegex, Pattern: `_S\d+$`})
	return rules
}

func defaultSearchPatterns() SearchPatterns {
	return SearchPatterns{
		{Key: "bowtie2", Specs: []search.Spec{
			{Contents: "reads; of these:"},
		}},
		{Key: "samtools/flagstat", Specs: []search.Spec{
			{Contents: "in total (QC-passed reads + QC-failed reads)"},
		}},
	}
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		FnCleanSampleNames:       true,
		FnCleanExts:              defaultCleanExts(),
		FnCleanTrim:              append([]string(nil), defaultCleanTrim...),
		LogFilesizeLimit:         50000000,
		SearchPatterns:           defaultSearchPatterns(),
		PrependDirsSep:           "_",
		DataFormat:               "tsv",
		DataDir:                  "qc_data",
		PreserveModuleRawData:    true,
		VersionsTableGroupHeader: "Group",
	}
}

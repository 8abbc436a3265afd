package main

/*
bio-qc-report scans analysis directories for the log files of known
bioinformatics tools, normalizes the sample names found in them and
writes aggregated per-sample metric tables.
*/

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/qc/aggregate"
	"github.com/grailbio/qc/config"
	"github.com/grailbio/qc/qcmod"
	"github.com/grailbio/qc/report"
	"github.com/grailbio/qc/search"
	"github.com/grailbio/qc/tools/bowtie2"
	"github.com/grailbio/qc/tools/flagstat"
)

var (
	configPath     = flag.String("config", "", "YAML configuration file merged over the built-in defaults")
	outDir         = flag.String("outdir", ".", "Directory the report data is written under")
	dirs           = flag.Bool("dirs", false, "Prepend directory names to sample names")
	dirsDepth      = flag.Int("dirs-depth", 0, "Number of trailing directory components to prepend with -dirs; negative keeps leading ones, 0 keeps all")
	fullNames      = flag.Bool("fullnames", false, "Disable sample name cleaning")
	ignoreSamples  = flag.String("ignore-samples", "", "Comma-separated globs of sample names to drop")
	filenameAsName = flag.Bool("filename-as-name", false, "Use the log filename as the sample name in every module")
	dataFormat     = flag.String("data-format", "", "Data file format: tsv, json or yaml (default from config)")
)

var tools = []struct {
	name string
	run  func(context.Context, *qcmod.Env) error
}{
	{"bowtie2", bowtie2.Run},
	{"flagstat", flagstat.Run},
}

func qcReportUsage() {
	fmt.Printf("Usage: %s [OPTIONS] dir [dir ...]\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = qcReportUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() == 0 {
		log.Fatalf("at least one analysis directory is required; see -help")
	}
	roots := flag.Args()
	ctx := vcontext.Background()

	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	applyFlags(&cfg)

	files, stats, err := search.Run(ctx, cfg.SearchOpts(), roots)
	if err != nil {
		log.Fatalf("search %s: %v", strings.Join(roots, " "), err)
	}
	log.Printf("searched %d files, %d matched (%d ignored, %d oversized, %d duplicate, %d unreadable)",
		stats.Seen, stats.Matched, stats.Ignored, stats.Oversized, stats.Duplicates, stats.Unreadable)
	if stats.Matched == 0 {
		log.Fatalf("no recognized files under %s", strings.Join(roots, " "))
	}

	dataDir := path.Join(*outDir, cfg.DataDir)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("create %s: %v", dataDir, err)
	}

	state := report.NewState(report.Opts{
		RemoveSections:  cfg.RemoveSections,
		DataFormat:      cfg.DataFormat,
		PreserveRawData: cfg.PreserveModuleRawData,
	})
	env := qcmod.NewEnv(&cfg, state, files, dataDir)

	ran := 0
	for _, tl := range tools {
		switch err := tl.run(ctx, env); err {
		case nil:
			ran++
		case qcmod.ErrNoSamplesFound:
			log.Debug.Printf("%s: no samples found", tl.name)
		default:
			log.Error.Printf("%s: %v", tl.name, err)
		}
	}
	if ran == 0 {
		log.Fatalf("no usable reports under %s", strings.Join(roots, " "))
	}

	if data := generalStatsData(state); len(data) > 0 {
		if _, err := state.WriteDataFile(ctx, dataDir, "qc_general_stats", data); err != nil {
			log.Fatalf("write general stats: %v", err)
		}
	}
	if _, err := state.WriteSources(ctx, dataDir); err != nil {
		log.Fatalf("write sources: %v", err)
	}
	if !cfg.SkipVersionsSection {
		if _, err := state.WriteVersions(ctx, dataDir, cfg.VersionsTableGroupHeader); err != nil {
			log.Fatalf("write versions: %v", err)
		}
	}

	log.Printf("%d modules, %d samples, %d sections; data in %s (checksum %s)",
		ran, env.Registry().Len(), len(state.Sections), dataDir, state.Checksum.String())
}

// applyFlags merges the command line over the loaded configuration.
func applyFlags(cfg *config.Config) {
	if *dirs {
		cfg.PrependDirs = true
	}
	if *dirsDepth != 0 {
		cfg.PrependDirsDepth = *dirsDepth
	}
	if *fullNames {
		cfg.FnCleanSampleNames = false
	}
	if *ignoreSamples != "" {
		for _, g := range strings.Split(*ignoreSamples, ",") {
			if g = strings.TrimSpace(g); g != "" {
				cfg.SampleNamesIgnore = append(cfg.SampleNamesIgnore, g)
			}
		}
	}
	if *filenameAsName {
		cfg.UseFilenameAsSampleName.All = true
	}
	if *dataFormat != "" {
		cfg.DataFormat = *dataFormat
	}
}

// generalStatsData flattens the per-module general statistics sections
// into one sample-keyed table. A column id two modules both emit gets
// the later module's namespace prefixed to keep the cells apart.
func generalStatsData(state *report.State) map[string]map[string]aggregate.Value {
	out := make(map[string]map[string]aggregate.Value)
	colOwner := make(map[string]int)
	for si, sec := range state.GeneralStats {
		for _, col := range sec.Cols {
			key := col
			if owner, ok := colOwner[col]; ok && owner != si {
				key = sec.Headers[col].Namespace + ": " + col
			} else {
				colOwner[col] = si
			}
			for sample, row := range sec.Data {
				v, ok := row[col]
				if !ok {
					continue
				}
				if out[sample] == nil {
					out[sample] = make(map[string]aggregate.Value)
				}
				out[sample][key] = v
			}
		}
	}
	return out
}

package bowtie2

import (
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/qc/config"
	"github.com/grailbio/qc/qcmod"
	"github.com/grailbio/qc/report"
	"github.com/grailbio/qc/search"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

const pairedLog = `10000 reads; of these:
  10000 (100.00%) were paired; of these:
    650 (6.50%) aligned concordantly 0 times
    8823 (88.23%) aligned concordantly exactly 1 time
    527 (5.27%) aligned concordantly >1 times
    ----
    650 pairs aligned concordantly 0 times; of these:
      34 (5.23%) aligned discordantly 1 time
    ----
    616 pairs aligned 0 times concordantly or discordantly; of these:
      1232 mates make up the pairs; of these:
        660 (53.57%) aligned 0 times
        571 (46.35%) aligned exactly 1 time
        1 (0.08%) aligned >1 times
98.45% overall alignment rate
`

const unpairedLog = `20000 reads; of these:
  20000 (100.00%) were unpaired; of these:
    808 (4.04%) aligned 0 times
    17644 (88.22%) aligned exactly 1 time
    1500 (7.50%) aligned >1 times
95.96% overall alignment rate
`

const bismarkLog = `Using bowtie 2 for aligning with bismark.
10000 reads; of these:
98.45% overall alignment rate
`

func TestParseLogPaired(t *testing.T) {
	metrics, ok := parseLog(pairedLog)
	assert.True(t, ok)
	expect.EQ(t, metrics["reads_processed"], float64(10000))
	expect.EQ(t, metrics["reads_aligned"], float64(8823))
	expect.EQ(t, metrics["reads_aligned_percentage"], 88.23)
	expect.EQ(t, metrics["not_aligned"], float64(650))
	expect.EQ(t, metrics["not_aligned_percentage"], 6.5)
	expect.EQ(t, metrics["multimapped"], float64(527))
	expect.EQ(t, metrics["multimapped_percentage"], 5.27)
	expect.EQ(t, metrics["overall_aligned_rate"], 98.45)
	expect.EQ(t, metrics["reads_other"], float64(0))
}

func TestParseLogUnpaired(t *testing.T) {
	metrics, ok := parseLog(unpairedLog)
	assert.True(t, ok)
	expect.EQ(t, metrics["reads_processed"], float64(20000))
	expect.EQ(t, metrics["reads_aligned"], float64(17644))
	expect.EQ(t, metrics["not_aligned"], float64(808))
	expect.EQ(t, metrics["multimapped"], float64(1500))
	expect.EQ(t, metrics["overall_aligned_rate"], 95.96)
	expect.EQ(t, metrics["reads_other"], float64(48))
}

func TestParseLogRejects(t *testing.T) {
	_, ok := parseLog(bismarkLog)
	assert.False(t, ok)
	_, ok = parseLog("not an alignment log\n")
	assert.False(t, ok)
}

func testEnv(t *testing.T, files []*search.File) (*qcmod.Env, func()) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	cfg := config.Default()
	state := report.NewState(report.Opts{
		DataFormat:      cfg.DataFormat,
		PreserveRawData: cfg.PreserveModuleRawData,
	})
	return qcmod.NewEnv(&cfg, state, files, tempDir), cleanup
}

func TestRun(t *testing.T) {
	ctx := vcontext.Background()
	versioned := "/usr/local/bin/bowtie2-align-s version 2.4.1\n64-bit\n" + unpairedLog
	files := []*search.File{
		{Path: "/runs/sample_A.log", Root: "/runs", Filename: "sample_A.log", SearchKey: "bowtie2", Contents: pairedLog},
		{Path: "/runs/sample_B.log", Root: "/runs", Filename: "sample_B.log", SearchKey: "bowtie2", Contents: versioned},
		{Path: "/runs/bismark.log", Root: "/runs", Filename: "bismark.log", SearchKey: "bowtie2", Contents: bismarkLog},
	}
	env, cleanup := testEnv(t, files)
	defer cleanup()
	assert.NoError(t, Run(ctx, env))

	saved := env.State.SavedRawData["qc_bowtie2"]
	assert.EQ(t, len(saved), 2)
	expect.EQ(t, saved["sample_A"]["reads_processed"], float64(10000))
	expect.EQ(t, saved["sample_B"]["overall_aligned_rate"], 95.96)

	assert.EQ(t, len(env.State.GeneralStats), 1)
	gs := env.State.GeneralStats[0]
	expect.EQ(t, gs.Cols, []string{"overall_aligned_rate", "reads_processed"})
	expect.EQ(t, gs.Data["sample_A"]["overall_aligned_rate"], 98.45)
	h := gs.Headers["overall_aligned_rate"]
	expect.EQ(t, h.Title, "% Aligned")
	expect.EQ(t, h.Suffix, "%")
	expect.EQ(t, h.Namespace, "Bowtie 2")

	assert.EQ(t, len(env.State.DataSources), 2)
	expect.EQ(t, env.State.DataSources[0].Module, "Bowtie 2")
	expect.EQ(t, env.State.DataSources[0].Sample, "sample_A")

	assert.EQ(t, len(env.State.Sections), 1)
	expect.EQ(t, env.State.Sections[0].Anchor, "bowtie2-section")

	rows := env.State.VersionsTable()
	assert.EQ(t, len(rows), 1)
	expect.EQ(t, rows[0].Software, "Bowtie 2")
	expect.EQ(t, rows[0].Versions, []string{"2.4.1"})
}

func TestRunNoSamples(t *testing.T) {
	ctx := vcontext.Background()
	env, cleanup := testEnv(t, nil)
	defer cleanup()
	err := Run(ctx, env)
	expect.True(t, err == qcmod.ErrNoSamplesFound)
}

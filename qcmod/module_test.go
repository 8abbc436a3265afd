package qcmod_test

import (
	"io/ioutil"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/qc/aggregate"
	"github.com/grailbio/qc/config"
	"github.com/grailbio/qc/qcmod"
	"github.com/grailbio/qc/report"
	"github.com/grailbio/qc/samplename"
	"github.com/grailbio/qc/search"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func testEnv(files []*search.File, mutate func(*config.Config)) *qcmod.Env {
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	state := report.NewState(report.Opts{
		RemoveSections:  cfg.RemoveSections,
		DataFormat:      cfg.DataFormat,
		PreserveRawData: cfg.PreserveModuleRawData,
	})
	return qcmod.NewEnv(&cfg, state, files, "")
}

func testInfo() qcmod.Info {
	return qcmod.Info{Name: "My Tool", Anchor: "mytool"}
}

func TestFiles(t *testing.T) {
	files := []*search.File{
		{Path: "/a/x.log", SearchKey: "mytool"},
		{Path: "/a/skip/y.log", SearchKey: "mytool"},
		{Path: "/a/z.log", SearchKey: "other"},
	}
	m := qcmod.NewModule(testEnv(files, nil), testInfo())

	got := m.Files("mytool", qcmod.PathFilters{})
	assert.EQ(t, len(got), 2)

	got = m.Files("mytool", qcmod.PathFilters{Exclude: []string{"*skip*"}})
	assert.EQ(t, len(got), 1)
	expect.EQ(t, got[0].Path, "/a/x.log")

	got = m.Files("mytool", qcmod.PathFilters{Include: []string{"*y.log"}})
	assert.EQ(t, len(got), 1)
	expect.EQ(t, got[0].Path, "/a/skip/y.log")
}

func TestCleanName(t *testing.T) {
	env := testEnv(nil, nil)
	m := qcmod.NewModule(env, testInfo())
	f := &search.File{Path: "/data/s1.fastq.gz", Root: "/data", Filename: "s1.fastq.gz", SearchKey: "mytool"}

	expect.EQ(t, m.CleanName("s1.fastq.gz", f), "s1")

	id, ok := env.Registry().Lookup("s1")
	assert.True(t, ok)
	expect.EQ(t, id.Original, "s1.fastq.gz")
}

func TestCleanNameUsesFilename(t *testing.T) {
	env := testEnv(nil, func(cfg *config.Config) {
		cfg.UseFilenameAsSampleName.Keys = []string{"mytool"}
	})
	m := qcmod.NewModule(env, testInfo())
	f := &search.File{Root: "/data", Filename: "s1_counts.txt", SearchKey: "mytool"}

	expect.EQ(t, m.CleanName("internal_id_42", f), "s1")
}

func TestCleanNames(t *testing.T) {
	env := testEnv(nil, nil)
	m := qcmod.NewModule(env, testInfo())

	name, err := m.CleanNames([]string{"x_R1_001.fastq.gz", "x_R2_001.fastq.gz"}, nil)
	assert.NoError(t, err)
	expect.EQ(t, name, "x")

	_, err = m.CleanNames(nil, nil)
	expect.EQ(t, err, samplename.ErrEmptyNameList)
}

func TestIsIgnoredAndDataSource(t *testing.T) {
	env := testEnv(nil, func(cfg *config.Config) {
		cfg.SampleNamesIgnore = []string{"drop*"}
	})
	m := qcmod.NewModule(env, testInfo())
	f := &search.File{Path: "/a/x.log", Root: "/a", Filename: "x.log", SearchKey: "mytool"}

	assert.True(t, m.IsIgnored("dropped"))
	assert.False(t, m.IsIgnored("kept"))

	m.AddDataSource(f, "dropped", "")
	m.AddDataSource(f, "kept", "")
	expect.EQ(t, env.State.DataSources, []report.DataSource{
		{Module: "My Tool", Section: "all_sections", Sample: "kept", Path: "/a/x.log"},
	})
}

func TestAddSoftwareVersion(t *testing.T) {
	env := testEnv(nil, nil)
	m := qcmod.NewModule(env, testInfo())
	m.AddSoftwareVersion("", "", "2.3.5")

	rows := env.State.VersionsTable()
	assert.EQ(t, len(rows), 1)
	expect.EQ(t, rows[0].Group, "My Tool")
	expect.EQ(t, rows[0].Software, "My Tool")
	expect.EQ(t, rows[0].Versions, []string{"2.3.5"})
}

func TestAddSoftwareVersionDisabled(t *testing.T) {
	env := testEnv(nil, func(cfg *config.Config) {
		cfg.DisableVersionDetection = true
	})
	m := qcmod.NewModule(env, testInfo())
	m.AddSoftwareVersion("", "", "2.3.5")
	assert.EQ(t, len(env.State.VersionsTable()), 0)
}

func TestAddSoftwareVersionIgnoredSample(t *testing.T) {
	env := testEnv(nil, func(cfg *config.Config) {
		cfg.SampleNamesIgnore = []string{"bad"}
	})
	m := qcmod.NewModule(env, testInfo())
	m.AddSoftwareVersion("bad", "", "1.0")
	m.AddSoftwareVersion("good", "", "1.1")
	rows := env.State.VersionsTable()
	assert.EQ(t, len(rows), 1)
	expect.EQ(t, rows[0].Versions, []string{"1.1"})
}

func TestAddSection(t *testing.T) {
	env := testEnv(nil, nil)
	m := qcmod.NewModule(env, testInfo())
	m.AddSection(report.Section{Description: "alignment summary"})

	assert.EQ(t, len(env.State.Sections), 1)
	sec := env.State.Sections[0]
	expect.EQ(t, sec.Name, "My Tool")
	expect.EQ(t, sec.Anchor, "mytool-section")
	expect.EQ(t, sec.Module, "My Tool")
}

func TestGeneralStatsUngrouped(t *testing.T) {
	env := testEnv(nil, nil)
	m := qcmod.NewModule(env, testInfo())

	data := map[string]map[string]aggregate.Value{
		"s1": {"rate": 5.5},
		"s2": {"reads": 100, "nested": map[string]int{"x": 1}},
	}
	m.GeneralStatsAddCols(data, nil, aggregate.Policy{})

	assert.EQ(t, len(env.State.GeneralStats), 1)
	sec := env.State.GeneralStats[0]
	expect.EQ(t, sec.Cols, []string{"rate", "reads"})
	expect.EQ(t, sec.Data["s1"]["rate"], aggregate.Value(5.5))
	expect.EQ(t, sec.Data["s2"]["reads"], aggregate.Value(100))
	_, hasNested := sec.Data["s2"]["nested"]
	assert.False(t, hasNested)

	h := sec.Headers["rate"]
	expect.EQ(t, h.Title, "rate")
	expect.EQ(t, h.Description, "rate")
	expect.EQ(t, h.Namespace, "My Tool")
}

func TestGeneralStatsHeaders(t *testing.T) {
	env := testEnv(nil, nil)
	m := qcmod.NewModule(env, testInfo())

	data := map[string]map[string]aggregate.Value{
		"s1": {"reads": 100, "extra": 1},
	}
	headers := map[string]report.Header{
		"reads": {Title: "Reads", Namespace: "aligner"},
	}
	m.GeneralStatsAddCols(data, headers, aggregate.Policy{})

	sec := env.State.GeneralStats[0]
	// Provided headers select the columns.
	expect.EQ(t, sec.Cols, []string{"reads"})
	h := sec.Headers["reads"]
	expect.EQ(t, h.Title, "Reads")
	expect.EQ(t, h.Description, "Reads")
	expect.EQ(t, h.Namespace, "My Tool: aligner")
}

func TestGeneralStatsGrouped(t *testing.T) {
	env := testEnv(nil, func(cfg *config.Config) {
		cfg.SampleMergeGroups = config.MergeGroups{{
			Label: "replicate",
			Rules: []samplename.CleanRule{{Kind: samplename.KindRegex, Pattern: `_rep\d+$`}},
		}}
	})
	m := qcmod.NewModule(env, testInfo())

	data := map[string]map[string]aggregate.Value{
		"wt_rep1": {"reads": 100, "rate": 80.0},
		"wt_rep2": {"reads": 300, "rate": 90.0},
		"ko":      {"reads": 5},
	}
	policy := aggregate.Policy{
		Weighted: []aggregate.WeightedCol{{Col: "rate", Weight: "reads"}},
		Sum:      []string{"reads"},
	}
	m.GeneralStatsAddCols(data, nil, policy)

	sec := env.State.GeneralStats[0]
	// Merged row: rate weighted by reads, reads summed.
	expect.EQ(t, sec.Data["wt"]["rate"], aggregate.Value(87.5))
	expect.EQ(t, sec.Data["wt"]["reads"], aggregate.Value(400.0))
	// Member rows keep their data under the labeled display name.
	expect.EQ(t, sec.Data["wt (replicate)"]["reads"], aggregate.Value(300))
	// Ungrouped samples pass through.
	expect.EQ(t, sec.Data["ko"]["reads"], aggregate.Value(5))
}

func TestModuleWriteDataFile(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	env := testEnv(nil, nil)
	env.DataDir = tempDir
	m := qcmod.NewModule(env, testInfo())

	err := m.WriteDataFile(ctx, "qc_mytool", map[string]map[string]aggregate.Value{"s1": {"n": 1}})
	assert.NoError(t, err)
	data, err := ioutil.ReadFile(tempDir + "/qc_mytool.txt")
	assert.NoError(t, err)
	expect.EQ(t, string(data), "Sample\tn\ns1\t1\n")
}

package config_test

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/qc/config"
	"github.com/grailbio/qc/samplename"
	"github.com/grailbio/qc/search"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	expect.EQ(t, cfg.FnCleanSampleNames, true)
	expect.EQ(t, cfg.LogFilesizeLimit, int64(50000000))
	expect.EQ(t, cfg.PrependDirsSep, "_")
	expect.EQ(t, cfg.DataFormat, "tsv")
	expect.EQ(t, cfg.VersionsTableGroupHeader, "Group")
	expect.EQ(t, cfg.PreserveModuleRawData, true)

	assert.True(t, len(cfg.FnCleanExts) > 0)
	expect.EQ(t, cfg.FnCleanExts[0], samplename.CleanRule{Kind: samplename.KindTruncate, Pattern: ".gz"})
	assert.True(t, len(cfg.SearchPatterns) >= 2)
	expect.EQ(t, cfg.SearchPatterns[0].Key, "bowtie2")
}

func TestLoadEmptyPath(t *testing.T) {
	ctx := vcontext.Background()
	cfg, err := config.Load(ctx, "")
	assert.NoError(t, err)
	expect.EQ(t, cfg, config.Default())
}

func TestLoadMissingFile(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	_, err := config.Load(ctx, filepath.Join(tempDir, "nonexistent.yaml"))
	assert.True(t, err != nil)
}

func TestLoadMalformed(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tempDir, "bad.yaml")
	assert.NoError(t, ioutil.WriteFile(path, []byte("sample_names_replace: [not, a, mapping]\n"), 0600))
	_, err := config.Load(ctx, path)
	assert.True(t, err != nil)
}

func TestLoad(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	path := filepath.Join(tempDir, "config.yaml")
	assert.NoError(t, ioutil.WriteFile(path, []byte(`
fn_clean_sample_names: false
extra_fn_clean_exts:
  - _custom
  - type: remove
    pattern: .mine
log_filesize_limit: 1000
sample_names_replace:
  zzz: aaa
  mmm: bbb
sample_names_replace_regex: true
sample_merge_groups:
  tumor:
    - _T
  normal:
    - _N
use_filename_as_sample_name:
  - bowtie2
prepend_dirs: true
prepend_dirs_depth: -2
sp:
  bowtie2:
    fn: "*.bowtie2.log"
  mytool:
    - contents: "mytool says"
    - fn: "*.mytool"
`), 0600))

	cfg, err := config.Load(ctx, path)
	assert.NoError(t, err)

	expect.EQ(t, cfg.FnCleanSampleNames, false)
	expect.EQ(t, cfg.LogFilesizeLimit, int64(1000))
	expect.EQ(t, cfg.PrependDirs, true)
	expect.EQ(t, cfg.PrependDirsDepth, -2)
	// Untouched keys keep their defaults.
	expect.EQ(t, cfg.DataFormat, "tsv")

	// Extra rules run before the built-in table.
	opts := cfg.CleanerOpts()
	expect.EQ(t, opts.Enabled, false)
	expect.EQ(t, opts.Rules[0], samplename.CleanRule{Kind: samplename.KindTruncate, Pattern: "_custom"})
	expect.EQ(t, opts.Rules[1], samplename.CleanRule{Kind: samplename.KindRemove, Pattern: ".mine"})
	expect.EQ(t, opts.Rules[2], samplename.CleanRule{Kind: samplename.KindTruncate, Pattern: ".gz"})
	expect.EQ(t, opts.UseFilename, false)
	expect.EQ(t, opts.UseFilenameKeys, []string{"bowtie2"})

	// Replacement table in document order.
	expect.EQ(t, []samplename.ReplacementRule(cfg.SampleNamesReplace), []samplename.ReplacementRule{
		{Search: "zzz", Replace: "aaa"},
		{Search: "mmm", Replace: "bbb"},
	})
	expect.EQ(t, cfg.SampleNamesReplaceRegex, true)

	// Grouping table in document order.
	groups := cfg.MergeGroupRules()
	assert.EQ(t, len(groups), 2)
	expect.EQ(t, groups[0].Label, "tumor")
	expect.EQ(t, groups[0].Rules, []samplename.CleanRule{{Kind: samplename.KindTruncate, Pattern: "_T"}})
	expect.EQ(t, groups[1].Label, "normal")

	// sp merges by key: bowtie2 keeps its slot with the new spec,
	// mytool appends after the defaults.
	expect.EQ(t, cfg.SearchPatterns[0].Key, "bowtie2")
	expect.EQ(t, cfg.SearchPatterns[0].Specs, []search.Spec{{Fn: "*.bowtie2.log"}})
	expect.EQ(t, cfg.SearchPatterns[1].Key, "samtools/flagstat")
	last := cfg.SearchPatterns[len(cfg.SearchPatterns)-1]
	expect.EQ(t, last.Key, "mytool")
	expect.EQ(t, last.Specs, []search.Spec{{Contents: "mytool says"}, {Fn: "*.mytool"}})
}

func TestMergeGroupRulesAlias(t *testing.T) {
	var cfg config.Config
	cfg.TableSampleMerge = config.MergeGroups{{Label: "a"}}
	expect.EQ(t, cfg.MergeGroupRules()[0].Label, "a")
	cfg.SampleMergeGroups = config.MergeGroups{{Label: "b"}}
	expect.EQ(t, cfg.MergeGroupRules()[0].Label, "b")
}

func TestUseFilenameGlobal(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	path := filepath.Join(tempDir, "config.yaml")
	assert.NoError(t, ioutil.WriteFile(path, []byte("use_filename_as_sample_name: true\n"), 0600))
	cfg, err := config.Load(ctx, path)
	assert.NoError(t, err)
	expect.EQ(t, cfg.UseFilenameAsSampleName.All, true)
	assert.EQ(t, len(cfg.UseFilenameAsSampleName.Keys), 0)
}

func TestSearchOpts(t *testing.T) {
	cfg := config.Default()
	cfg.FnIgnoreDirs = []string{"work"}
	cfg.FnIgnorePaths = []string{"*/skip/*"}
	opts := cfg.SearchOpts()
	expect.EQ(t, opts.IgnoreDirs, []string{"work"})
	expect.EQ(t, opts.IgnorePaths, []string{"*/skip/*"})
	expect.EQ(t, opts.FilesizeLimit, int64(50000000))
	expect.EQ(t, len(opts.Patterns), len(cfg.SearchPatterns))
}

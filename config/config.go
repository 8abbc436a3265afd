// Package config holds the process-wide run configuration: sample name
// cleaning tables, discovery patterns, replacement and grouping rules
// and output settings. Built-in defaults mirror common sequencing tool
// conventions; a YAML file merges over them at startup.
package config

import (
	"context"
	"io/ioutil"

	"github.com/grailbio/base/file"
	"github.com/grailbio/qc/grouping"
	"github.com/grailbio/qc/samplename"
	"github.com/grailbio/qc/search"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the full run configuration. YAML keys match the field tags;
// anything absent from the loaded file keeps its default.
type Config struct {
	// Sample name cleaning.
	FnCleanSampleNames bool                   `yaml:"fn_clean_sample_names"`
	FnCleanExts        []samplename.CleanRule `yaml:"fn_clean_exts"`
	ExtraFnCleanExts   []samplename.CleanRule `yaml:"extra_fn_clean_exts"`
	FnCleanTrim        []string               `yaml:"fn_clean_trim"`
	ExtraFnCleanTrim   []string               `yaml:"extra_fn_clean_trim"`

	// Discovery.
	FnIgnoreDirs     []string       `yaml:"fn_ignore_dirs"`
	FnIgnorePaths    []string       `yaml:"fn_ignore_paths"`
	LogFilesizeLimit int64          `yaml:"log_filesize_limit"`
	SearchPatterns   SearchPatterns `yaml:"sp"`

	// Sample dropping and renaming.
	SampleNamesIgnore          []string     `yaml:"sample_names_ignore"`
	SampleNamesIgnoreRe        []string     `yaml:"sample_names_ignore_re"`
	SampleNamesReplace         ReplaceTable `yaml:"sample_names_replace"`
	SampleNamesReplaceRegex    bool         `yaml:"sample_names_replace_regex"`
	SampleNamesReplaceExact    bool         `yaml:"sample_names_replace_exact"`
	SampleNamesReplaceComplete bool         `yaml:"sample_names_replace_complete"`

	// Grouping. TableSampleMerge is an accepted alias for
	// SampleMergeGroups; use MergeGroupRules to read them.
	SampleMergeGroups MergeGroups `yaml:"sample_merge_groups"`
	TableSampleMerge  MergeGroups `yaml:"table_sample_merge"`

	// Name sourcing.
	UseFilenameAsSampleName BoolOrKeys `yaml:"use_filename_as_sample_name"`
	PrependDirs             bool       `yaml:"prepend_dirs"`
	PrependDirsDepth        int        `yaml:"prepend_dirs_depth"`
	PrependDirsSep          string     `yaml:"prepend_dirs_sep"`

	// Output.
	DataFormat            string   `yaml:"data_format"`
	DataDir               string   `yaml:"data_dir"`
	RemoveSections        []string `yaml:"remove_sections"`
	PreserveModuleRawData bool     `yaml:"preserve_module_raw_data"`

	// Software versions.
	DisableVersionDetection  bool   `yaml:"disable_version_detection"`
	SkipVersionsSection      bool   `yaml:"skip_versions_section"`
	VersionsTableGroupHeader string `yaml:"versions_table_group_header"`
}

// Load reads a YAML config file and merges it over the defaults. An
// empty path returns the defaults unchanged.
func Load(ctx context.Context, path string) (cfg Config, err error) {
	cfg = Default()
	if path == "" {
		return cfg, nil
	}
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return cfg, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	data, err := ioutil.ReadAll(in.Reader(ctx))
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// MergeGroupRules returns the configured grouping table.
// sample_merge_groups wins over the table_sample_merge alias when both
// are set.
func (c *Config) MergeGroupRules() []grouping.LabelRules {
	if len(c.SampleMergeGroups) > 0 {
		return c.SampleMergeGroups
	}
	return c.TableSampleMerge
}

// CleanerOpts assembles the samplename.CleanerOpts this configuration
// implies. Extra user rules run before the built-in tables.
func (c *Config) CleanerOpts() samplename.CleanerOpts {
	rules := make([]samplename.CleanRule, 0, len(c.ExtraFnCleanExts)+len(c.FnCleanExts))
	rules = append(rules, c.ExtraFnCleanExts...)
	rules = append(rules, c.FnCleanExts...)
	trims := make([]string, 0, len(c.ExtraFnCleanTrim)+len(c.FnCleanTrim))
	trims = append(trims, c.ExtraFnCleanTrim...)
	trims = append(trims, c.FnCleanTrim...)
	return samplename.CleanerOpts{
		Enabled:          c.FnCleanSampleNames,
		Rules:            rules,
		Trims:            trims,
		UseFilename:      c.UseFilenameAsSampleName.All,
		UseFilenameKeys:  c.UseFilenameAsSampleName.Keys,
		PrependDirs:      c.PrependDirs,
		PrependDirsDepth: c.PrependDirsDepth,
		PrependDirsSep:   c.PrependDirsSep,
		Replacer:         samplename.NewReplacer(c.ReplacerOpts()),
	}
}

// ReplacerOpts assembles the hard replacement options.
func (c *Config) ReplacerOpts() samplename.ReplacerOpts {
	return samplename.ReplacerOpts{
		Rules:            c.SampleNamesReplace,
		UseRegex:         c.SampleNamesReplaceRegex,
		ExactMatchOnly:   c.SampleNamesReplaceExact,
		CompleteNameSwap: c.SampleNamesReplaceComplete,
	}
}

// IgnoreList compiles the sample drop patterns.
func (c *Config) IgnoreList() *samplename.IgnoreList {
	return samplename.NewIgnoreList(c.SampleNamesIgnore, c.SampleNamesIgnoreRe)
}

// SearchOpts assembles the discovery options.
func (c *Config) SearchOpts() search.Opts {
	return search.Opts{
		Patterns:      c.SearchPatterns,
		IgnoreDirs:    c.FnIgnoreDirs,
		IgnorePaths:   c.FnIgnorePaths,
		FilesizeLimit: c.LogFilesizeLimit,
	}
}

// ReplaceTable is an ordered search to replacement mapping, decoded
// from a YAML mapping in document order.
type ReplaceTable []samplename.ReplacementRule

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *ReplaceTable) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("sample_names_replace: expected a mapping, got %s", node.Tag)
	}
	rules := make([]samplename.ReplacementRule, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var rule samplename.ReplacementRule
		if err := node.Content[i].Decode(&rule.Search); err != nil {
			return err
		}
		if err := node.Content[i+1].Decode(&rule.Replace); err != nil {
			return err
		}
		rules = append(rules, rule)
	}
	*t = rules
	return nil
}

// MergeGroups is the ordered grouping table: each label maps to the
// cleaning rules that detect it.
type MergeGroups []grouping.LabelRules

// UnmarshalYAML implements yaml.Unmarshaler.
func (g *MergeGroups) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("sample merge groups: expected a mapping, got %s", node.Tag)
	}
	groups := make([]grouping.LabelRules, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var lr grouping.LabelRules
		if err := node.Content[i].Decode(&lr.Label); err != nil {
			return err
		}
		if err := node.Content[i+1].Decode(&lr.Rules); err != nil {
			return err
		}
		groups = append(groups, lr)
	}
	*g = groups
	return nil
}

// BoolOrKeys is a flag that is either global or scoped to a list of
// search pattern keys.
type BoolOrKeys struct {
	All  bool
	Keys []string
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *BoolOrKeys) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&b.All)
	case yaml.SequenceNode:
		return node.Decode(&b.Keys)
	}
	return errors.Errorf("expected a bool or a list of search keys, got %s", node.Tag)
}

// SearchPatterns is the ordered search pattern table. Each key maps to
// one spec or a list of alternative specs. Decoding merges over the
// receiver: a key already present keeps its position and takes the new
// specs, new keys append. User config therefore overrides individual
// built-in patterns without dropping the rest.
type SearchPatterns []search.Pattern

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *SearchPatterns) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("sp: expected a mapping, got %s", node.Tag)
	}
	merged := make([]search.Pattern, len(*p))
	copy(merged, *p)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return err
		}
		val := node.Content[i+1]
		var specs []search.Spec
		if val.Kind == yaml.SequenceNode {
			if err := val.Decode(&specs); err != nil {
				return err
			}
		} else {
			var spec search.Spec
			if err := val.Decode(&spec); err != nil {
				return err
			}
			specs = []search.Spec{spec}
		}
		found := false
		for j := range merged {
			if merged[j].Key == key {
				merged[j].Specs = specs
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, search.Pattern{Key: key, Specs: specs})
		}
	}
	*p = merged
	return nil
}

package report

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/qc/aggregate"
	"gopkg.in/yaml.v3"
)

// WriteDataFile writes a sample-keyed metrics table into dir under name
// plus the configured format's extension and returns the path written.
// A name that was already written gets a "_1", "_2", ... suffix. Every
// cell feeds the run checksum; the payload is retained in SavedRawData
// when configured.
func (s *State) WriteDataFile(ctx context.Context, dir, name string, data map[string]map[string]aggregate.Value) (outPath string, err error) {
	base := name
	for i := 1; s.written[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	s.written[name] = true

	samples := make([]string, 0, len(data))
	for sample := range data {
		samples = append(samples, sample)
	}
	sort.Strings(samples)
	cols := colUnion(data)
	for _, sample := range samples {
		for _, col := range cols {
			if v, ok := data[sample][col]; ok {
				s.Checksum.Add(name, sample, col, render(v))
			}
		}
	}

	ext := ".txt"
	switch s.opts.DataFormat {
	case "json":
		ext = ".json"
	case "yaml":
		ext = ".yaml"
	}
	outPath = path.Join(dir, name+ext)

	var dst file.File
	if dst, err = file.Create(ctx, outPath); err != nil {
		return "", err
	}
	defer file.CloseAndReport(ctx, dst, &err)

	switch s.opts.DataFormat {
	case "json":
		enc := json.NewEncoder(dst.Writer(ctx))
		enc.SetIndent("", "  ")
		if err = enc.Encode(data); err != nil {
			return "", err
		}
	case "yaml":
		var buf []byte
		if buf, err = yaml.Marshal(data); err != nil {
			return "", err
		}
		if _, err = dst.Writer(ctx).Write(buf); err != nil {
			return "", err
		}
	default:
		w := tsv.NewWriter(dst.Writer(ctx))
		w.WriteString("Sample")
		for _, col := range cols {
			w.WriteString(col)
		}
		if err = w.EndLine(); err != nil {
			return "", err
		}
		for _, sample := range samples {
			w.WriteString(sample)
			row := data[sample]
			for _, col := range cols {
				v, ok := row[col]
				if !ok {
					w.WriteString("")
					continue
				}
				w.WriteString(render(v))
			}
			if err = w.EndLine(); err != nil {
				return "", err
			}
		}
		if err = w.Flush(); err != nil {
			return "", err
		}
	}

	if s.opts.PreserveRawData {
		s.SavedRawData[name] = data
	}
	return outPath, nil
}

// WriteSources writes the recorded data sources into dir as a
// four-column table, one row per source in insertion order.
func (s *State) WriteSources(ctx context.Context, dir string) (outPath string, err error) {
	outPath = path.Join(dir, "qc_sources.txt")
	var dst file.File
	if dst, err = file.Create(ctx, outPath); err != nil {
		return "", err
	}
	defer file.CloseAndReport(ctx, dst, &err)
	w := tsv.NewWriter(dst.Writer(ctx))
	for _, col := range []string{"Module", "Section", "Sample", "Source"} {
		w.WriteString(col)
	}
	if err = w.EndLine(); err != nil {
		return "", err
	}
	for _, src := range s.DataSources {
		w.WriteString(src.Module)
		w.WriteString(src.Section)
		w.WriteString(src.Sample)
		w.WriteString(src.Path)
		if err = w.EndLine(); err != nil {
			return "", err
		}
		s.Checksum.Add("qc_sources", src.Sample, src.Module, src.Path)
	}
	if err = w.Flush(); err != nil {
		return "", err
	}
	return outPath, nil
}

// WriteVersions writes the software versions table into dir, one row
// per software, versions newest first. groupHeader names the first
// column.
func (s *State) WriteVersions(ctx context.Context, dir, groupHeader string) (outPath string, err error) {
	outPath = path.Join(dir, "qc_software_versions.txt")
	var dst file.File
	if dst, err = file.Create(ctx, outPath); err != nil {
		return "", err
	}
	defer file.CloseAndReport(ctx, dst, &err)
	w := tsv.NewWriter(dst.Writer(ctx))
	w.WriteString(groupHeader)
	w.WriteString("Software")
	w.WriteString("Versions")
	if err = w.EndLine(); err != nil {
		return "", err
	}
	for _, row := range s.VersionsTable() {
		joined := strings.Join(row.Versions, ", ")
		w.WriteString(row.Group)
		w.WriteString(row.Software)
		w.WriteString(joined)
		if err = w.EndLine(); err != nil {
			return "", err
		}
		s.Checksum.Add("qc_software_versions", row.Group, row.Software, joined)
	}
	if err = w.Flush(); err != nil {
		return "", err
	}
	return outPath, nil
}

// render formats a metric value for text output. Floats stay in
// decimal notation so large read counts do not come out scientific.
func render(v aggregate.Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}

// colUnion returns the sorted union of column ids across all rows.
func colUnion(data map[string]map[string]aggregate.Value) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, row := range data {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				cols = append(cols, col)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

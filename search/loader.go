package search

import (
	"context"
	"io"
	"io/ioutil"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
)

// readContents returns the whole contents of the file at path,
// transparently decompressing gzip.
func readContents(ctx context.Context, path string) (data []byte, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return nil, err
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return nil, err
		}
	}
	return ioutil.ReadAll(reader)
}

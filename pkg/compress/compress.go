package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Formats lists the accepted format names, in the order the CLI shows them.
var Formats = []string{"none", "gz", "xz", "zst"}

// Supported reports whether format is one Compress understands.
func Supported(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Extension returns the file suffix for format, including the dot, or "" for
// "none".
func Extension(format string) string {
	switch format {
	case "gz", "xz", "zst":
		return "." + format
	}
	return ""
}

// Compress compresses a byte slice using the specified format.
// Supported formats are "gz", "xz" and "zst"; "none" returns data unmodified.
//
// Example:
//
//	archive, err := compress.Compress(tarball, "zst")
//	if err != nil {
//		// handle error
//	}
func Compress(data []byte, format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := CompressTo(&buf, bytes.NewReader(data), format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CompressTo streams r into w using format.
func CompressTo(w io.Writer, r io.Reader, format string) error {
	var writer io.WriteCloser
	var err error

	switch format {
	case "none", "":
		_, err = io.Copy(w, r)
		return err
	case "gz":
		writer = gzip.NewWriter(w)
	case "xz":
		writer, err = xz.NewWriter(w)
	case "zst":
		writer, err = zstd.NewWriter(w)
	default:
		return fmt.Errorf("unsupported compression format %q", format)
	}
	if err != nil {
		return err
	}

	if _, err := io.Copy(writer, r); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

// Decompress decompresses a byte slice, automatically detecting the compression
// format (gz, xz or zst) by inspecting the header magic bytes. If the data is
// not compressed in a recognized format, it is returned unmodified.
func Decompress(data []byte) ([]byte, error) {
	switch {
	case len(data) > 2 && data[0] == 0x1f && data[1] == 0x8b:
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		return io.ReadAll(reader)

	case len(data) > 6 && bytes.Equal(data[:6], []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}):
		reader, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return io.ReadAll(reader)

	case len(data) > 4 && bytes.Equal(data[:4], []byte{0x28, 0xb5, 0x2f, 0xfd}):
		decoder, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer decoder.Close()
		return io.ReadAll(decoder)
	}

	return data, nil
}

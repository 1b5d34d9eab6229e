package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// ftyp box marking the fixture as MP4 for anything that sniffs magic bytes.
var mp4Header = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
	'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
	'i', 's', 'o', 'm', 'm', 'p', '4', '1',
}

// WriteMediaFile stages a fake clip of exactly size bytes at path. The file
// opens with an MP4 ftyp box followed by filler, so it passes casual format
// checks without being playable. Sizes smaller than the header truncate it
// to the requested length.
func WriteMediaFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = int64(len(mp4Header))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	header := mp4Header
	if size < int64(len(header)) {
		header = header[:size]
	}
	if _, err := f.Write(header); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = byte('m' + i%7)
	}

	remaining := size - int64(len(header))
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

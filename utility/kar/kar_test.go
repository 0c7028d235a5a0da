// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devblok/triangle/utility/kar"
	"github.com/pierrec/lz4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/mmap"
)

var (
	testString1 = "idunvovkjnreovmegihjbrqlkmfrjnb"
	testString2 = "idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"
)

func buildArchive(t *testing.T, files map[string]string, order ...string) []byte {
	t.Helper()
	builder, err := kar.NewBuilder(kar.Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	require.NoError(t, err)
	defer builder.Close()

	for _, name := range order {
		require.NoError(t, builder.Add(name, strings.NewReader(files[name])))
	}
	require.Equal(t, len(order), builder.Len())

	buf := bytes.NewBuffer([]byte{})
	written, err := builder.WriteTo(buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), written)
	assert.Equal(t, 0, builder.Len())
	return buf.Bytes()
}

func TestCreateAndRead(t *testing.T) {
	files := map[string]string{"test": testString1, "test2": testString2}
	data := buildArchive(t, files, "test", "test2")

	ar, err := kar.Open(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"test", "test2"}, ar.Names())
	assert.Equal(t, "devblok", ar.Header().Author)

	f, err := ar.Open("test")
	require.NoError(t, err)
	assert.Equal(t, int64(len(testString1)), f.Size())
	result, err := ioutil.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, testString1, string(result))

	all, err := ar.ReadAll("test2")
	require.NoError(t, err)
	assert.Equal(t, testString2, string(all))
}

func TestOpenMissing(t *testing.T) {
	data := buildArchive(t, map[string]string{"a": "aaaa"}, "a")
	ar, err := kar.Open(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = ar.Open("b")
	assert.Equal(t, kar.ErrNotFound, errors.Cause(err))
	_, err = ar.ReadAll("b")
	assert.Equal(t, kar.ErrNotFound, errors.Cause(err))
}

func TestOpenNotAnArchive(t *testing.T) {
	_, err := kar.Open(bytes.NewReader([]byte("TAR\x00garbage")))
	assert.Equal(t, kar.ErrFileFormat, err)

	_, err = kar.Open(bytes.NewReader([]byte("KA")))
	assert.Equal(t, kar.ErrFileFormat, err)

	_, err = kar.Open(bytes.NewReader([]byte("KAR\x00\xff\xff\x00\x00\x00\x00\x00\x00")))
	assert.Equal(t, kar.ErrFileFormat, err)
}

func TestOpenMmap(t *testing.T) {
	files := map[string]string{
		"shaders/vertex.spv":   strings.Repeat("\x03\x02\x23\x07", 64),
		"shaders/fragment.spv": strings.Repeat("\x03\x02\x23\x07\x00\x00\x01\x00", 32),
	}
	data := buildArchive(t, files, "shaders/vertex.spv", "shaders/fragment.spv")

	dir, err := ioutil.TempDir("", "kartest")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "shaders.kar")
	require.NoError(t, ioutil.WriteFile(path, data, 0644))

	r, err := mmap.Open(path)
	require.NoError(t, err)
	defer r.Close()

	ar, err := kar.Open(r)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for name, expected := range files {
		name, expected := name, expected
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := ar.ReadAll(name)
				assert.NoError(t, err)
				assert.Equal(t, expected, string(got))
			}()
		}
	}
	wg.Wait()
}

// rawArchive lays out an archive by hand, so the index can lie
func rawArchive(t *testing.T, header kar.Header, blob []byte) []byte {
	t.Helper()
	var encoded bytes.Buffer
	require.NoError(t, gob.NewEncoder(&encoded).Encode(header))

	out := bytes.NewBufferString("KAR\x00")
	require.NoError(t, binary.Write(out, binary.LittleEndian, int64(encoded.Len())))
	out.Write(encoded.Bytes())
	out.Write(blob)
	return out.Bytes()
}

func compressed(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	_, err := io.WriteString(w, s)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// onlyReaderAt hides Size and Len of the wrapped reader
type onlyReaderAt struct {
	io.ReaderAt
}

func TestOpenHeaderLengthOutOfRange(t *testing.T) {
	data := append([]byte("KAR\x00"), make([]byte, kar.HeaderSizeNumberLength)...)
	binary.LittleEndian.PutUint64(data[kar.MagicLength:], 1<<62)

	_, err := kar.Open(bytes.NewReader(data))
	assert.Equal(t, kar.ErrFileFormat, errors.Cause(err))

	_, err = kar.Open(onlyReaderAt{bytes.NewReader(data)})
	assert.Equal(t, kar.ErrFileFormat, errors.Cause(err))

	binary.LittleEndian.PutUint64(data[kar.MagicLength:], 1<<63-1)
	_, err = kar.Open(bytes.NewReader(data))
	assert.Equal(t, kar.ErrFileFormat, errors.Cause(err))
}

func TestReadAllIndexSizeMismatch(t *testing.T) {
	blob := compressed(t, "abc")
	data := rawArchive(t, kar.Header{Index: []kar.IndexEntry{
		{Name: "big", Offset: 0, Size: 1 << 40, CompressedSize: int64(len(blob))},
	}}, blob)

	ar, err := kar.Open(bytes.NewReader(data))
	require.NoError(t, err)
	_, err = ar.ReadAll("big")
	assert.Equal(t, kar.ErrFileFormat, errors.Cause(err))
}

func TestOpenEntryPastEnd(t *testing.T) {
	blob := compressed(t, "abc")
	for name, entry := range map[string]kar.IndexEntry{
		"too long":        {Name: "a", Offset: 0, Size: 3, CompressedSize: int64(len(blob)) + 1000},
		"offset past end": {Name: "a", Offset: 1 << 40, Size: 3, CompressedSize: int64(len(blob))},
		"negative":        {Name: "a", Offset: -1, Size: 3, CompressedSize: int64(len(blob))},
		"overflow":        {Name: "a", Offset: 1<<63 - 1, Size: 3, CompressedSize: 1 << 62},
	} {
		entry := entry
		t.Run(name, func(t *testing.T) {
			data := rawArchive(t, kar.Header{Index: []kar.IndexEntry{entry}}, blob)
			_, err := kar.Open(bytes.NewReader(data))
			assert.Equal(t, kar.ErrFileFormat, errors.Cause(err))
		})
	}
}

func TestOpenRejectsEscapingNames(t *testing.T) {
	blob := compressed(t, "abc")
	for _, name := range []string{"../../escape", "/etc/passwd", "shaders/../../x", ""} {
		data := rawArchive(t, kar.Header{Index: []kar.IndexEntry{
			{Name: name, Size: 3, CompressedSize: int64(len(blob))},
		}}, blob)
		_, err := kar.Open(bytes.NewReader(data))
		assert.Equal(t, kar.ErrFileFormat, errors.Cause(err), name)
	}
}

func TestCheckName(t *testing.T) {
	for _, name := range []string{"vertex.spv", "shaders/vertex.spv", "a/../b", "./a"} {
		assert.NoError(t, kar.CheckName(name), name)
	}
	for _, name := range []string{"", "..", "../a", "a/../../b", "/abs", "a\\..\\..\\b", "nul\x00"} {
		assert.Equal(t, kar.ErrBadName, errors.Cause(kar.CheckName(name)), name)
	}
}

func TestBuilderRejectsBadName(t *testing.T) {
	builder, err := kar.NewBuilder(kar.Header{Author: "devblok"})
	require.NoError(t, err)
	defer builder.Close()

	err = builder.Add("../escape", strings.NewReader("data"))
	assert.Equal(t, kar.ErrBadName, errors.Cause(err))
	assert.Equal(t, 0, builder.Len())
}

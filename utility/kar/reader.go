// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"io"
	"io/ioutil"
	"math"
	"os"

	"github.com/pierrec/lz4"
	"github.com/pkg/errors"
)

// Open opens the kar archived from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	m := make([]byte, MagicLength)
	if num, err := r.ReadAt(m, 0); num < MagicLength {
		if err != nil && err != io.EOF {
			return nil, err
		}
		return nil, ErrFileFormat
	} else if string(m) != string(magic[:]) {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if num, _ := r.ReadAt(headerSizeBytes, MagicLength); num < HeaderSizeNumberLength {
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToint64(headerSizeBytes)
	if err != nil || headerSize <= 0 {
		return nil, ErrFileFormat
	}

	size, sized := streamSize(r)
	dataStart := int64(MagicLength+HeaderSizeNumberLength) + headerSize
	if sized && (headerSize > size || dataStart > size) {
		return nil, ErrFileFormat
	}
	if !sized && headerSize > MaxHeaderSize {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if num, _ := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); int64(num) < headerSize {
		return nil, ErrFileFormat
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, errors.Wrap(ErrFileFormat, err.Error())
	}

	ar := &Archive{
		reader:    r,
		header:    header,
		dataStart: dataStart,
		entries:   make(map[string]IndexEntry, len(header.Index)),
	}
	for _, e := range header.Index {
		if err := CheckName(e.Name); err != nil {
			return nil, errors.Wrap(ErrFileFormat, err.Error())
		}
		if e.Offset < 0 || e.Size < 0 || e.CompressedSize < 0 {
			return nil, errors.Wrapf(ErrFileFormat, "entry %s", e.Name)
		}
		if e.CompressedSize > math.MaxInt64-dataStart || e.Offset > math.MaxInt64-dataStart-e.CompressedSize {
			return nil, errors.Wrapf(ErrFileFormat, "entry %s runs past the end", e.Name)
		}
		if end := dataStart + e.Offset + e.CompressedSize; sized && end > size {
			return nil, errors.Wrapf(ErrFileFormat, "entry %s runs past the end", e.Name)
		}
		ar.entries[e.Name] = e
	}
	return ar, nil
}

// streamSize reports the total size of r when it can tell
func streamSize(r io.ReaderAt) (int64, bool) {
	switch s := r.(type) {
	case interface{ Size() int64 }:
		return s.Size(), true
	case interface{ Len() int }:
		return int64(s.Len()), true
	case interface{ Stat() (os.FileInfo, error) }:
		if info, err := s.Stat(); err == nil {
			return info.Size(), true
		}
	}
	return 0, false
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader    io.ReaderAt
	header    Header
	dataStart int64
	entries   map[string]IndexEntry
}

// Header returns the archive header
func (a *Archive) Header() Header {
	return a.header
}

// Names lists the files in the order they were added
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.header.Index))
	for _, e := range a.header.Index {
		names = append(names, e.Name)
	}
	return names
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	f, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data, err := ioutil.ReadAll(io.LimitReader(f, f.Size()))
	if err != nil {
		return nil, errors.Wrapf(err, "kar: read %s", name)
	}
	if int64(len(data)) != f.Size() {
		return nil, errors.Wrapf(ErrFileFormat, "%s is %d bytes, index says %d", name, len(data), f.Size())
	}
	return data, nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	e, ok := a.entries[name]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	section := io.NewSectionReader(a.reader, a.dataStart+e.Offset, e.CompressedSize)
	return &Reader{
		entry: e,
		lz:    lz4.NewReader(section),
	}, nil
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	entry IndexEntry
	lz    *lz4.Reader
}

// Size is the decompressed size of the file
func (r *Reader) Size() int64 {
	return r.entry.Size
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.lz.Read(p)
}

// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/devblok/triangle/utility/kar"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"
)

func init() {
	currentUserName = "unknown"
	if u, err := user.Current(); err == nil && u.Name != "" {
		currentUserName = u.Name
	}
}

var (
	currentUserName string
	author          = flag.String("author", "", "Set the author of the package when compressing")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	extract         = flag.String("e", "", "Extract the given archive into the current directory")
	list            = flag.String("l", "", "List the files of the given archive")
	compress        = flag.String("c", "", "Compress the given folder, names are relative to it")
	dstFile         = flag.String("f", "out.kar", "Destination file")
	force           = flag.Bool("force", false, "Overwrite the destination file")
	silent          = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	ops := 0
	for _, op := range []string{*extract, *list, *compress} {
		if op != "" {
			ops++
		}
	}
	if ops > 1 {
		log.Fatal("only one operation at a time")
	}

	var err error
	switch {
	case *extract != "":
		err = extractFiles(*extract)
	case *list != "":
		err = listFiles(*list)
	case *compress != "" || flag.NArg() > 0:
		err = compressFiles()
	default:
		flag.PrintDefaults()
	}
	if err != nil {
		log.Fatal(err)
	}
}

type entry struct {
	name string
	path string
}

func collect() ([]entry, error) {
	var entries []entry
	if *compress != "" {
		err := filepath.Walk(*compress, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(*compress, path)
			if err != nil {
				return err
			}
			entries = append(entries, entry{name: filepath.ToSlash(rel), path: path})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	for _, path := range flag.Args() {
		entries = append(entries, entry{name: filepath.ToSlash(filepath.Clean(path)), path: path})
	}
	return entries, nil
}

func compressFiles() error {
	if _, err := os.Stat(*dstFile); err == nil && !*force {
		return errors.New("destination file exists, will not overwrite")
	}

	entries, err := collect()
	if err != nil {
		return err
	}

	name := *author
	if name == "" {
		name = currentUserName
	}
	karBuilder, err := kar.NewBuilder(kar.Header{
		Author:      name,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}
	defer karBuilder.Close()

	for _, e := range entries {
		f, err := os.Open(e.path)
		if err != nil {
			return err
		}
		err = karBuilder.Add(e.name, f)
		f.Close()
		if err != nil {
			return err
		}
		log.WithField("file", e.name).Info("added")
	}

	dst, err := os.Create(*dstFile)
	if err != nil {
		return err
	}
	defer dst.Close()

	written, err := karBuilder.WriteTo(dst)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"archive": *dstFile, "bytes": written, "files": len(entries)}).Info("archive written")
	return nil
}

func openArchive(path string) (*mmap.ReaderAt, *kar.Archive, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, nil, err
	}
	ar, err := kar.Open(r)
	if err != nil {
		r.Close()
		return nil, nil, errors.Wrap(err, path)
	}
	return r, ar, nil
}

func listFiles(path string) error {
	r, ar, err := openArchive(path)
	if err != nil {
		return err
	}
	defer r.Close()

	header := ar.Header()
	log.WithFields(log.Fields{
		"author":  header.Author,
		"version": header.Version,
		"created": time.Unix(header.DateCreated, 0),
	}).Info(path)
	for _, e := range header.Index {
		log.WithFields(log.Fields{"size": e.Size, "compressed": e.CompressedSize}).Info(e.Name)
	}
	return nil
}

func extractFiles(path string) error {
	r, ar, err := openArchive(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, name := range ar.Names() {
		if err := kar.CheckName(name); err != nil {
			return err
		}
		data, err := ar.ReadAll(name)
		if err != nil {
			return err
		}
		dst := filepath.Clean(filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		if err := ioutil.WriteFile(dst, data, 0644); err != nil {
			return err
		}
		log.WithField("file", name).Info("extracted")
	}
	return nil
}

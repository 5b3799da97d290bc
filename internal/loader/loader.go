// Package loader handles raw memory dump file loading operations.
package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/retroenv/sramtools/internal/record"
)

// Dump contains the decoded data records of one raw memory dump.
type Dump struct {
	Name    string   // file name of the dump
	Rows    [][]byte // payload of every data record in file order
	Skipped int      // number of lines that were not data records
}

// Loader handles loading raw memory dumps from disk.
type Loader struct{}

// New creates a new dump loader.
func New() *Loader {
	return &Loader{}
}

// Load reads and decodes the dump file at the given path.
func (l *Loader) Load(path string) (*Dump, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	dump, err := l.LoadReader(filepath.Base(path), file)
	if err != nil {
		return nil, fmt.Errorf("loading dump %s: %w", path, err)
	}
	return dump, nil
}

// LoadFromBytes decodes a dump that is already in memory.
// This is useful for testing and programmatic usage.
func (l *Loader) LoadFromBytes(name string, data []byte) (*Dump, error) {
	return l.LoadReader(name, bytes.NewReader(data))
}

// LoadReader decodes all data records of the reader, lines that are not
// data records are skipped and counted.
func (l *Loader) LoadReader(name string, reader io.Reader) (*Dump, error) {
	dump := &Dump{Name: name}

	buf := bufio.NewReader(reader)
	for {
		line, isPrefix, err := buf.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return dump, nil
			}
			return nil, fmt.Errorf("reading lines: %w", err)
		}

		// lines longer than the read buffer can never be data records
		if isPrefix {
			if err := discardLine(buf); err != nil {
				return nil, fmt.Errorf("reading lines: %w", err)
			}
			dump.Skipped++
			continue
		}

		payload, err := record.Decode(string(line))
		if err != nil {
			if errors.Is(err, record.ErrFormat) {
				dump.Skipped++
				continue
			}
			return nil, err
		}
		dump.Rows = append(dump.Rows, payload)
	}
}

// discardLine consumes the remainder of the current line.
func discardLine(buf *bufio.Reader) error {
	for {
		_, isPrefix, err := buf.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if !isPrefix {
			return nil
		}
	}
}

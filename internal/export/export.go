// Package export reads and writes game records and training examples as
// JSON, JSON Lines, MessagePack or TOML files.
package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lox/heartsforbots/internal/fileutil"
	"github.com/lox/heartsforbots/internal/game"
	"github.com/lox/heartsforbots/internal/training"
	"github.com/tinylib/msgp/msgp"
)

// Format is an on-disk encoding
type Format int

const (
	JSON Format = iota
	JSONL
	Msgpack
	TOML
)

var (
	ErrUnknownFormat = errors.New("unknown export format")
	ErrUnsupported   = errors.New("format not supported for this data")
)

var formatNames = map[Format]string{
	JSON:    "json",
	JSONL:   "jsonl",
	Msgpack: "msgpack",
	TOML:    "toml",
}

// Formats lists every format
var Formats = []Format{JSON, JSONL, Msgpack, TOML}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	return "." + f.String()
}

func (f Format) MarshalText() ([]byte, error) {
	if _, ok := formatNames[f]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, int(f))
	}
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFormat parses a format name
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "jsonl", "ndjson":
		return JSONL, nil
	case "msgpack", "mp", "mpk":
		return Msgpack, nil
	case "toml":
		return TOML, nil
	}
	return JSON, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath infers the format from a file extension
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return JSON, fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// recordsFile is the TOML document shape; TOML needs a top-level table
type recordsFile struct {
	Games []*game.GameRecord `toml:"games"`
}

// EncodeRecords writes records to w
func EncodeRecords(w io.Writer, format Format, records []*game.GameRecord) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(nonNil(records))
	case JSONL:
		return encodeLines(w, records)
	case Msgpack:
		mw := msgp.NewWriter(w)
		if err := writeRecords(mw, records); err != nil {
			return err
		}
		return mw.Flush()
	case TOML:
		return toml.NewEncoder(w).Encode(recordsFile{Games: records})
	}
	return fmt.Errorf("%w: %d", ErrUnknownFormat, int(format))
}

// DecodeRecords reads records from r
func DecodeRecords(r io.Reader, format Format) ([]*game.GameRecord, error) {
	switch format {
	case JSON:
		var records []*game.GameRecord
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return records, nil
	case JSONL:
		return decodeLines[*game.GameRecord](r)
	case Msgpack:
		return readRecords(msgp.NewReader(r))
	case TOML:
		var doc recordsFile
		if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		return doc.Games, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, int(format))
}

// EncodeExamples writes training examples to w. TOML cannot represent the
// partially filled current trick and is not supported.
func EncodeExamples(w io.Writer, format Format, examples []training.Example) error {
	switch format {
	case JSON:
		return json.NewEncoder(w).Encode(nonNil(examples))
	case JSONL:
		return encodeLines(w, examples)
	case Msgpack:
		mw := msgp.NewWriter(w)
		if err := writeExamples(mw, examples); err != nil {
			return err
		}
		return mw.Flush()
	case TOML:
		return fmt.Errorf("%w: training examples as %s", ErrUnsupported, format)
	}
	return fmt.Errorf("%w: %d", ErrUnknownFormat, int(format))
}

// DecodeExamples reads training examples from r
func DecodeExamples(r io.Reader, format Format) ([]training.Example, error) {
	switch format {
	case JSON:
		var examples []training.Example
		if err := json.NewDecoder(r).Decode(&examples); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return examples, nil
	case JSONL:
		return decodeLines[training.Example](r)
	case Msgpack:
		return readExamples(msgp.NewReader(r))
	case TOML:
		return nil, fmt.Errorf("%w: training examples as %s", ErrUnsupported, format)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, int(format))
}

// WriteRecords atomically writes records to path
func WriteRecords(path string, format Format, records []*game.GameRecord) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return EncodeRecords(w, format, records)
	})
}

// ReadRecords reads a records file, inferring the format from its extension
func ReadRecords(path string) ([]*game.GameRecord, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := DecodeRecords(bufio.NewReader(f), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// WriteExamples atomically writes training examples to path
func WriteExamples(path string, format Format, examples []training.Example) error {
	if format == TOML {
		return fmt.Errorf("%w: training examples as %s", ErrUnsupported, format)
	}
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return EncodeExamples(w, format, examples)
	})
}

// ReadExamples reads a training examples file, inferring the format from its
// extension
func ReadExamples(path string) ([]training.Example, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	examples, err := DecodeExamples(bufio.NewReader(f), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return examples, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func encodeLines[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for i, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	return nil
}

func decodeLines[T any](r io.Reader) ([]T, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var items []T
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var item T
		if err := json.Unmarshal(text, &item); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

package command

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is the wire shape of a Command.
type Record struct {
	Seq    uint64   `json:"seq" yaml:"seq"`
	Target int64    `json:"target" yaml:"target"`
	Kind   string   `json:"kind" yaml:"kind"`
	Args   []string `json:"args,omitempty" yaml:"args,omitempty"`
}

// ToRecord converts c to its wire shape.
func (c Command) ToRecord() Record {
	return Record{Seq: c.Seq, Target: c.Target, Kind: c.Kind.String(), Args: c.Args}
}

// ToCommand converts a wire record back to a Command.
func (r Record) ToCommand() (Command, error) {
	kind, err := ParseKind(r.Kind)
	if err != nil {
		return Command{}, err
	}
	return Command{Seq: r.Seq, Target: r.Target, Kind: kind, Args: r.Args}, nil
}

// Format selects the encoding used by WriteLog.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// WriteLog writes cmds to w. JSON output is one record per line; YAML output
// is a single sequence document.
func WriteLog(w io.Writer, format Format, cmds []Command) error {
	records := make([]Record, len(cmds))
	for i, c := range cmds {
		records[i] = c.ToRecord()
	}

	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("encoding command %d: %w", r.Seq, err)
			}
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encoding command log: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported log format %q", format)
	}
}

// ReadLog decodes a JSON lines log written by WriteLog.
func ReadLog(r io.Reader) ([]Command, error) {
	dec := json.NewDecoder(r)
	var out []Command
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decoding command log: %w", err)
		}
		c, err := rec.ToCommand()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

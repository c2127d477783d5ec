package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.yaml.in/yaml/v3"
)

// Host is a single entry of the hosts file: a host name and the EntryDNS
// access token that identifies its record.
type Host struct {
	Name  string
	Token string
}

// Hosts maps host names to access tokens, keeping the order in which the
// entries appear in the hosts file.
type Hosts struct {
	entries []Host
}

// NewHosts builds a Hosts value from entries, in the given order.
func NewHosts(entries ...Host) *Hosts {
	return &Hosts{entries: append([]Host(nil), entries...)}
}

// Entries returns the hosts in file order.
func (h *Hosts) Entries() []Host {
	if h == nil {
		return nil
	}
	return append([]Host(nil), h.entries...)
}

// Len returns the number of configured hosts.
func (h *Hosts) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

// HostsFile loads Hosts from a file on Fs.
type HostsFile struct {
	Fs   afero.Fs
	Path string
}

// Load implements the host source used by the updater.
func (f HostsFile) Load(ctx context.Context) (*Hosts, error) {
	return LoadHosts(ctx, f.Fs, f.Path)
}

// LoadHosts reads a JSON (or YAML) document mapping host names to tokens.
// A missing file is returned as a read error wrapping fs.ErrNotExist so the
// caller can decide to tolerate it.
func LoadHosts(ctx context.Context, fsys afero.Fs, path string) (*Hosts, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "config.LoadHosts")
	defer span.End()
	span.SetAttributes(attribute.String("config.file", path))

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		span.RecordError(err)
		return nil, &Error{Kind: KindRead, Path: path, Err: err}
	}

	hosts, err := ParseHosts(data)
	if err != nil {
		span.RecordError(err)
		var cerr *Error
		if errors.As(err, &cerr) {
			cerr.Path = path
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int("config.hosts", hosts.Len()))
	return hosts, nil
}

// ParseHosts decodes a hosts document. Every value must be a plain string;
// numbers, booleans, nulls and nested structures are rejected.
func ParseHosts(data []byte) (*Hosts, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Kind: KindParse, Err: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &Error{Kind: KindParse, Err: fmt.Errorf("empty hosts document")}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &Error{Kind: KindParse, Err: fmt.Errorf("line %d: expected a mapping of host names to tokens", root.Line)}
	}

	hosts := &Hosts{entries: make([]Host, 0, len(root.Content)/2)}
	seen := make(map[string]int, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, &Error{Kind: KindParse, Err: fmt.Errorf("line %d: host name must be a scalar", key.Line)}
		}
		if value.Kind != yaml.ScalarNode || value.ShortTag() != "!!str" {
			return nil, &Error{Kind: KindInvalidValue, Key: key.Value, Err: fmt.Errorf("line %d: token must be a string, got %s", value.Line, describe(value))}
		}

		// A repeated host keeps its first position and takes the last token,
		// the way JSON object decoding treats duplicate keys.
		if idx, ok := seen[key.Value]; ok {
			hosts.entries[idx].Token = value.Value
			continue
		}
		seen[key.Value] = len(hosts.entries)
		hosts.entries = append(hosts.entries, Host{Name: key.Value, Token: value.Value})
	}
	return hosts, nil
}

func describe(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a list"
	case yaml.AliasNode:
		return "an alias"
	}
	return n.ShortTag()
}

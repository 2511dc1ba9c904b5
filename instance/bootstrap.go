// Copyright © 2016, The T Authors.

package instance

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// A Bootstrap is the on-disk description of the documents, attribute
// defaults, and listen addresses an Instance should carry before any pane
// is opened — the YAML equivalent of the shell arguments and rc-file
// directives the original editor read at startup (SPEC_FULL.md AMBIENT
// STACK, "configuration").
//
// Grounded on funxy's internal/ext.Config: a flat, validated,
// defaults-filled struct loaded in one LoadConfig/ParseConfig/validate/
// setDefaults pass.
type Bootstrap struct {
	// Documents lists the documents to open at startup.
	Documents []BootstrapDoc `yaml:"documents"`

	// Attrs are applied via GlobalSetAttr, in order, before any
	// document is opened.
	Attrs []BootstrapAttr `yaml:"attrs"`

	// HTTPAddr is a listen address for the httpapi introspection
	// server. It is only parsed: nothing in this module starts a
	// server from it.
	HTTPAddr string `yaml:"http_addr,omitempty"`

	// WSAddr is a listen address for the wsnotify bridge. It is only
	// parsed: nothing in this module starts a listener from it.
	WSAddr string `yaml:"ws_addr,omitempty"`
}

// A BootstrapDoc names one document to open at startup.
type BootstrapDoc struct {
	// Name is the document's registered name (its "doc-name"
	// attribute).
	Name string `yaml:"name"`

	// Path is the file this document's initial content is read from.
	// Empty means an empty scratch document.
	Path string `yaml:"path,omitempty"`

	// Readonly marks the document non-editable from startup.
	Readonly bool `yaml:"readonly,omitempty"`
}

// A BootstrapAttr is one global-set-attr directive.
type BootstrapAttr struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// LoadBootstrap reads and parses a bootstrap YAML file.
func LoadBootstrap(path string) (*Bootstrap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bootstrap %s: %w", path, err)
	}
	return ParseBootstrap(data, path)
}

// ParseBootstrap parses bootstrap YAML content from bytes. path is
// used only for error messages.
func ParseBootstrap(data []byte, path string) (*Bootstrap, error) {
	var b Bootstrap
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := b.validate(path); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *Bootstrap) validate(path string) error {
	seen := make(map[string]bool, len(b.Documents))
	for i, d := range b.Documents {
		if d.Name == "" {
			return fmt.Errorf("%s: documents[%d]: name is required", path, i)
		}
		if seen[d.Name] {
			return fmt.Errorf("%s: documents[%d]: duplicate document name %q", path, i, d.Name)
		}
		seen[d.Name] = true
	}
	for i, a := range b.Attrs {
		if a.Key == "" {
			return fmt.Errorf("%s: attrs[%d]: key is required", path, i)
		}
	}
	return nil
}

// Apply installs every attrs entry via GlobalSetAttr, in file order.
// Documents are not opened here: opening a document requires a
// concrete Doc backend (memdoc, or a future file-backed one), which is
// a choice left to the caller — Apply only carries the ambient state
// that has no backend dependency.
func (inst *Instance) Apply(b *Bootstrap) {
	for _, a := range b.Attrs {
		inst.GlobalSetAttr(a.Key, a.Value)
	}
}

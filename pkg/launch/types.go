// Package launch defines the launch.json document and the content read from it.
package launch

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Configuration is a single named launch entry. Only the name, type and
// request are interpreted; every other attribute is carried through as-is.
type Configuration struct {
	Name    string `json:"name" jsonschema:"required,minLength=1,description=Name shown in the launch configuration picker"`
	Type    string `json:"type" jsonschema:"description=Debugger type (e.g. cortex-debug)"`
	Request string `json:"request" jsonschema:"enum=launch,enum=attach,description=Whether to launch or attach"`

	Attributes map[string]any `json:"-"`
}

// MarshalJSON flattens Attributes next to the known fields.
func (c Configuration) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(c.Attributes)+3)
	for k, v := range c.Attributes {
		m[k] = v
	}
	m["name"] = c.Name
	if c.Type != "" {
		m["type"] = c.Type
	}
	if c.Request != "" {
		m["request"] = c.Request
	}
	return json.Marshal(m)
}

// UnmarshalJSON splits the known fields from the remaining attributes.
func (c *Configuration) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	*c = Configuration{}
	for key, target := range map[string]*string{"name": &c.Name, "type": &c.Type, "request": &c.Request} {
		v, ok := m[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("configuration %q must be a string, got %T", key, v)
		}
		*target = s
		delete(m, key)
	}
	if len(m) > 0 {
		c.Attributes = m
	}
	return nil
}

// Compound groups configurations that launch together. Compounds are always
// written and read as an empty list.
type Compound struct {
	Name           string   `json:"name"`
	Configurations []string `json:"configurations"`
}

// File is the on-disk shape of launch.json.
type File struct {
	Version        string          `json:"version,omitempty" jsonschema:"description=Format version"`
	Configurations []Configuration `json:"configurations" jsonschema:"required,description=Ordered launch configurations"`
	Compounds      []Compound      `json:"compounds" jsonschema:"maxItems=0,description=Always empty"`
}

// Content is the result of reading launch.json from a temp folder. A Missing
// content still knows the folder the file is expected in.
type Content struct {
	// Path is the launch.json path when present, empty when missing.
	Path string `json:"path,omitempty"`
	// Folder is the temp folder the file lives (or would live) in.
	Folder         string          `json:"folder"`
	Configurations []Configuration `json:"configurations"`
	Compounds      []Compound      `json:"compounds"`
	Missing        bool            `json:"missing"`

	// Seq orders reads by start time. Zero means unordered.
	Seq uint64 `json:"-"`
}

// Present builds the content of an existing launch file.
func Present(path, folder string, configs []Configuration, seq uint64) Content {
	return Content{
		Path:           path,
		Folder:         folder,
		Configurations: slices.Clone(configs),
		Compounds:      []Compound{},
		Seq:            seq,
	}
}

// Missing builds the content for a folder without a launch file yet.
func Missing(folder string, seq uint64) Content {
	return Content{
		Folder:         folder,
		Configurations: []Configuration{},
		Compounds:      []Compound{},
		Missing:        true,
		Seq:            seq,
	}
}

package launch

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/tailscale/hujson"
)

// Parse decodes launch.json. Comments and trailing commas are accepted.
func Parse(data []byte) (File, error) {
	standard, err := hujson.Standardize(slices.Clone(data))
	if err != nil {
		return File{}, fmt.Errorf("invalid JSON: %w", err)
	}

	var f File
	if err := json.Unmarshal(standard, &f); err != nil {
		return File{}, fmt.Errorf("invalid launch file: %w", err)
	}
	if f.Configurations == nil {
		f.Configurations = []Configuration{}
	}
	// Compounds are not supported and never surface to callers.
	f.Compounds = []Compound{}
	return f, nil
}

// Encode renders configurations as launch.json with an empty compounds list.
func Encode(configs []Configuration) ([]byte, error) {
	if configs == nil {
		configs = []Configuration{}
	}
	f := File{
		Version:        "0.2.0",
		Configurations: configs,
		Compounds:      []Compound{},
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode launch file: %w", err)
	}
	return append(data, '\n'), nil
}

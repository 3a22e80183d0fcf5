package replies

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadCampaignFile reads campaign copy from a YAML file. Keys missing from
// the file keep the values in base.
func LoadCampaignFile(path string, base Campaign) (Campaign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Campaign{}, fmt.Errorf("replies: read campaign file: %w", err)
	}
	campaign := base
	if err := yaml.Unmarshal(data, &campaign); err != nil {
		return Campaign{}, fmt.Errorf("replies: parse campaign file %s: %w", path, err)
	}
	return campaign, nil
}

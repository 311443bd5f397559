package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shippost/shippost/internal/domain"
)

// ProjectSeed is the YAML shape of one seeded project. All routing lives
// here so the pipeline never branches on a second source of truth.
type ProjectSeed struct {
	ID            string         `yaml:"id"`
	Name          string         `yaml:"name"`
	Repo          string         `yaml:"repo"`
	Brand         domain.Brand   `yaml:"brand"`
	Tagging       domain.Tagging `yaml:"tagging"`
	PostFrequency string         `yaml:"post_frequency"`
	SlackChannel  string         `yaml:"slack_channel"`
}

// LoadProjectSeeds parses the YAML seed file into project records.
func LoadProjectSeeds(path string) ([]domain.Project, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var file struct {
		Projects []ProjectSeed `yaml:"projects"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	projects := make([]domain.Project, 0, len(file.Projects))
	for _, seed := range file.Projects {
		freq := seed.PostFrequency
		if freq == "" {
			freq = domain.FrequencyDailyDigest
		}
		projects = append(projects, domain.Project{
			ID:            seed.ID,
			Name:          seed.Name,
			Repo:          seed.Repo,
			Brand:         seed.Brand,
			Tagging:       seed.Tagging,
			PostFrequency: freq,
			SlackChannel:  seed.SlackChannel,
			Active:        true,
		})
	}
	return projects, nil
}

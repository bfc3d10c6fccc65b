package feeders

import "gopkg.in/yaml.v3"

// YamlFeeder is a feeder that reads YAML files
type YamlFeeder struct {
	Path string
}

// NewYamlFeeder creates a new YamlFeeder that reads from the specified YAML file
func NewYamlFeeder(filePath string) YamlFeeder {
	return YamlFeeder{Path: filePath}
}

// Feed decodes the YAML file into target
func (y YamlFeeder) Feed(target interface{}) error {
	return fileFeed(y.Path, "yaml", target, yaml.Unmarshal)
}

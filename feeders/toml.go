package feeders

import "github.com/BurntSushi/toml"

// TomlFeeder is a feeder that reads TOML files
type TomlFeeder struct {
	Path string
}

// NewTomlFeeder creates a new TomlFeeder that reads from the specified TOML file
func NewTomlFeeder(filePath string) TomlFeeder {
	return TomlFeeder{Path: filePath}
}

// Feed decodes the TOML file into target
func (t TomlFeeder) Feed(target interface{}) error {
	return fileFeed(t.Path, "toml", target, toml.Unmarshal)
}

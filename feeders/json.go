package feeders

import "encoding/json"

// JSONFeeder is a feeder that reads JSON files
type JSONFeeder struct {
	Path string
}

// NewJSONFeeder creates a new JSONFeeder that reads from the specified JSON file
func NewJSONFeeder(filePath string) JSONFeeder {
	return JSONFeeder{Path: filePath}
}

// Feed decodes the JSON file into target
func (j JSONFeeder) Feed(target interface{}) error {
	return fileFeed(j.Path, "json", target, json.Unmarshal)
}

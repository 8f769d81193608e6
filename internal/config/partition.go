package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Part names an inclusive range of treebank sections.
type Part struct {
	Name  string `yaml:"name"`
	First int    `yaml:"first"`
	Last  int    `yaml:"last"`
}

// Partition describes how a sectioned treebank is cut into output files
// named <prefix>.<part>.
type Partition struct {
	Prefix string `yaml:"prefix"`
	Parts  []Part `yaml:"parts"`
}

// DefaultPartition is the standard WSJ split.
func DefaultPartition() Partition {
	return Partition{
		Prefix: "cptb",
		Parts: []Part{
			{Name: "train", First: 2, Last: 21},
			{Name: "dev", First: 22, Last: 22},
			{Name: "test", First: 23, Last: 23},
		},
	}
}

// LoadPartition reads a YAML partition file. Missing fields fall back to
// DefaultPartition.
func LoadPartition(path string) (Partition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Partition{}, fmt.Errorf("read partition config: %w", err)
	}
	return ParsePartition(data)
}

func ParsePartition(data []byte) (Partition, error) {
	var p Partition
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Partition{}, fmt.Errorf("parse partition config: %w", err)
	}
	def := DefaultPartition()
	if p.Prefix == "" {
		p.Prefix = def.Prefix
	}
	if len(p.Parts) == 0 {
		p.Parts = def.Parts
	}
	return p, p.Validate()
}

func (p Partition) Validate() error {
	seen := make(map[string]bool)
	for _, part := range p.Parts {
		if part.Name == "" {
			return fmt.Errorf("partition part without name")
		}
		if seen[part.Name] {
			return fmt.Errorf("partition part %q defined twice", part.Name)
		}
		seen[part.Name] = true
		if part.Last < part.First {
			return fmt.Errorf("partition part %q: last section %d before first %d", part.Name, part.Last, part.First)
		}
	}
	return nil
}

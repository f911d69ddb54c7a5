package project

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pagesmith/internal/extractor"
	"pagesmith/internal/model"

	"gopkg.in/yaml.v3"
)

// Project is one template plus the datasets it is enumerated over.
type Project struct {
	Path     string
	Template model.Template
	Datasets []model.VariableDataset
}

type fileDataset struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
	// ValuesFile holds one value per line, relative to the project file.
	ValuesFile string `yaml:"values_file"`
}

type file struct {
	Template model.Template `yaml:"template"`
	Datasets []fileDataset  `yaml:"datasets"`
}

// Load reads a project file. Inline values and values_file entries of the
// same dataset are concatenated.
func Load(path string) (*Project, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}

	var f file
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse project %s: %w", path, err)
	}

	tmpl, err := extractor.ValidateTemplate(f.Template)
	if err != nil {
		return nil, err
	}

	p := &Project{Path: path, Template: tmpl}
	dir := filepath.Dir(path)
	for _, ds := range f.Datasets {
		values := ds.Values
		if ds.ValuesFile != "" {
			more, err := readValues(filepath.Join(dir, ds.ValuesFile))
			if err != nil {
				return nil, fmt.Errorf("dataset %s: %w", ds.Name, err)
			}
			values = append(values, more...)
		}
		p.Datasets = append(p.Datasets, model.VariableDataset{Name: ds.Name, Values: values})
	}
	return p, nil
}

// readValues skips blank lines and lines starting with '#'.
func readValues(path string) ([]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var out []string
	sc := bufio.NewScanner(fh)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

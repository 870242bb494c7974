package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"tmux-monitor/internal/fault"
)

// roleTemplateFile is the YAML shape of an external role template.
type roleTemplateFile struct {
	Roles []string `yaml:"roles"`
}

// LoadRoleTemplate reads an ordered role list from a YAML file.
func LoadRoleTemplate(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(fault.RepositoryError, err, "read role template %s", path)
	}

	var tmpl roleTemplateFile
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fault.Wrap(fault.InvalidFormat, err, "parse role template %s", path)
	}
	if len(tmpl.Roles) == 0 {
		return nil, fault.New(fault.EmptyInput, "role template %s lists no roles", path)
	}
	return tmpl.Roles, nil
}

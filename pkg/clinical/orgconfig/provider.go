// Package orgconfig supplies per-organization note settings and reviewer instructions.
package orgconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"clinical-intelligence-be/pkg/clinical"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrUnknownOrganization = errors.New("unknown organization")

// Config is the organization's note configuration.
type Config struct {
	PreferredSchema string `json:"preferred_schema" toml:"preferred_schema" yaml:"preferred_schema"`
	ToneConstraints string `json:"tone_constraints" toml:"tone_constraints" yaml:"tone_constraints"`
}

type Provider interface {
	// Exists reports whether the organization is known at all.
	Exists(ctx context.Context, orgId string) (bool, error)
	// GetConfig returns ok=false when the organization has no config file.
	GetConfig(ctx context.Context, orgId string) (cfg *Config, ok bool, err error)
	// GetInstructions never returns an empty string; it falls back to clinical.DefaultInstructions.
	GetInstructions(ctx context.Context, orgId string) (string, error)
}

// UnknownOrgPolicy decides what a run does for an organization the provider does not know.
type UnknownOrgPolicy string

const (
	UnknownOrgDefault UnknownOrgPolicy = "default" // proceed with default config and instructions
	UnknownOrgReject  UnknownOrgPolicy = "reject"  // fail the run with ErrUnknownOrganization
)

func ParseUnknownOrgPolicy(s string) (UnknownOrgPolicy, error) {
	switch UnknownOrgPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case UnknownOrgDefault, "":
		return UnknownOrgDefault, nil
	case UnknownOrgReject:
		return UnknownOrgReject, nil
	}
	return "", fmt.Errorf("invalid unknown-organization policy %q", s)
}

// Resolve reads config and instructions fresh and applies the unknown-organization policy.
func Resolve(ctx context.Context, p Provider, orgId string, policy UnknownOrgPolicy) (clinical.OrgContext, error) {
	if policy == UnknownOrgReject {
		known, err := p.Exists(ctx, orgId)
		if err != nil {
			return clinical.OrgContext{}, err
		}
		if !known {
			return clinical.OrgContext{}, fmt.Errorf("%w: %s", ErrUnknownOrganization, orgId)
		}
	}

	var oc clinical.OrgContext
	cfg, ok, err := p.GetConfig(ctx, orgId)
	if err != nil {
		return clinical.OrgContext{}, err
	}
	if ok {
		oc.PreferredSchema = cfg.PreferredSchema
		oc.ToneConstraints = cfg.ToneConstraints
	}

	instructions, err := p.GetInstructions(ctx, orgId)
	if err != nil {
		return clinical.OrgContext{}, err
	}
	oc.FreeTextInstructions = instructions
	return oc, nil
}

var configFiles = []struct {
	name      string
	unmarshal func([]byte, any) error
}{
	{"config.json", json.Unmarshal},
	{"config.toml", toml.Unmarshal},
	{"config.yaml", yaml.Unmarshal},
	{"config.yml", yaml.Unmarshal},
}

// FileProvider reads <Root>/<orgId>/config.{json,toml,yaml} and <Root>/<orgId>/instructions.md.
// Nothing is cached; every call reads the files again.
type FileProvider struct {
	Root string
}

var _ Provider = &FileProvider{}

func NewFileProvider(root string) *FileProvider {
	return &FileProvider{Root: root}
}

func (p *FileProvider) orgDir(orgId string) (string, error) {
	clean := filepath.Clean(orgId)
	if orgId == "" || clean == "." || clean == ".." || strings.ContainsAny(clean, `/\`) {
		return "", fmt.Errorf("invalid organization id %q", orgId)
	}
	return filepath.Join(p.Root, clean), nil
}

func (p *FileProvider) Exists(_ context.Context, orgId string) (bool, error) {
	dir, err := p.orgDir(orgId)
	if err != nil {
		return false, nil
	}
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (p *FileProvider) GetConfig(_ context.Context, orgId string) (*Config, bool, error) {
	dir, err := p.orgDir(orgId)
	if err != nil {
		return nil, false, nil
	}

	for _, f := range configFiles {
		data, err := os.ReadFile(filepath.Join(dir, f.name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		var cfg Config
		if err := f.unmarshal(data, &cfg); err != nil {
			return nil, false, fmt.Errorf("parse %s for %s: %w", f.name, orgId, err)
		}
		return &cfg, true, nil
	}
	return nil, false, nil
}

func (p *FileProvider) GetInstructions(_ context.Context, orgId string) (string, error) {
	dir, err := p.orgDir(orgId)
	if err != nil {
		return clinical.DefaultInstructions, nil
	}
	data, err := os.ReadFile(filepath.Join(dir, "instructions.md"))
	if errors.Is(err, fs.ErrNotExist) {
		return clinical.DefaultInstructions, nil
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(string(data)) == "" {
		return clinical.DefaultInstructions, nil
	}
	return string(data), nil
}

// List returns the organizations that have a directory under Root.
func (p *FileProvider) List() ([]string, error) {
	entries, err := os.ReadDir(p.Root)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	orgs := []string{}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			orgs = append(orgs, e.Name())
		}
	}
	sort.Strings(orgs)
	return orgs, nil
}

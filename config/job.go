package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Job holds the parameters of one audit run.
type Job struct {
	// ScriptName names the run in file names and log headers.
	ScriptName string `yaml:"script_name"`
	// OU scopes user and computer discovery.
	OU []string `yaml:"ou"`
	// CountryCode lists the location prefixes of the sites and subnets to audit.
	CountryCode []string `yaml:"country_code"`
	// MailTo receives the summary mail.
	MailTo []string `yaml:"mail_to"`
	// ComputersNotInOU optionally names a file of computers to scan for printers
	// instead of the computers found in OU.
	ComputersNotInOU string `yaml:"computers_not_in_ou"`
	LogFolder        string `yaml:"log_folder"`
	ScriptAdmin      string `yaml:"script_admin"`
}

var (
	ErrMissingScriptName  = errors.New("ScriptName is required")
	ErrMissingOU          = errors.New("OU is required")
	ErrMissingCountryCode = errors.New("CountryCode is required")
	ErrMissingMailTo      = errors.New("MailTo is required")
	ErrMissingScriptAdmin = errors.New("ScriptAdmin is required")
)

// LoadJob reads a YAML job file.
func LoadJob(path string) (Job, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Job{}, fmt.Errorf("read job: %w", err)
	}

	var job Job
	if err := yaml.Unmarshal(contents, &job); err != nil {
		return Job{}, fmt.Errorf("unmarshal job: %w", err)
	}
	return job, nil
}

// WithDefaults fills LogFolder and ScriptAdmin from cfg when the job leaves them empty.
func (j Job) WithDefaults(cfg Configuration) Job {
	if j.LogFolder == "" {
		j.LogFolder = cfg.LogFolder
	}
	if j.ScriptAdmin == "" {
		j.ScriptAdmin = cfg.ScriptAdmin
	}
	return j
}

// Validate checks the mandatory parameters. Blank entries in OU, CountryCode and MailTo
// do not count.
func (j Job) Validate() error {
	var errs []error
	if strings.TrimSpace(j.ScriptName) == "" {
		errs = append(errs, ErrMissingScriptName)
	}
	if len(nonEmpty(j.OU)) == 0 {
		errs = append(errs, ErrMissingOU)
	}
	if len(nonEmpty(j.CountryCode)) == 0 {
		errs = append(errs, ErrMissingCountryCode)
	}
	if len(nonEmpty(j.MailTo)) == 0 {
		errs = append(errs, ErrMissingMailTo)
	}
	if j.ScriptAdmin == "" {
		errs = append(errs, ErrMissingScriptAdmin)
	}
	return errors.Join(errs...)
}

// OUs returns OU without blank entries.
func (j Job) OUs() []string {
	return nonEmpty(j.OU)
}

// Codes returns CountryCode without blank entries.
func (j Job) Codes() []string {
	return nonEmpty(j.CountryCode)
}

// ReadComputerList reads one computer name per line. Blank lines and lines starting
// with '#' are skipped.
func ReadComputerList(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open computer list: %w", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read computer list: %w", err)
	}
	return names, nil
}

func nonEmpty(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			result = append(result, v)
		}
	}
	return result
}

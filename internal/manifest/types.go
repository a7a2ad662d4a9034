package manifest

import (
	"regexp"
	"strings"
)

// Config is the root configuration parsed from extform.yml. Every field is
// optional; absent values fall back to the built-in defaults, so a project
// that matches the defaults needs no config file at all.
type Config struct {
	Project Project           `yaml:"project"`
	Defines map[string]string `yaml:"defines" validate:"dive,required"`
	Git     Git               `yaml:"git"`
	Python  Python            `yaml:"python"`
	Build   Build             `yaml:"build"`
	History History           `yaml:"history"`

	// BaseDir is the directory relative paths resolve against: the config
	// file's directory, or the working directory when running on defaults.
	BaseDir string `yaml:"-"`
	// Path is the resolved config file path, empty when running on defaults.
	Path string `yaml:"-"`
}

type Project struct {
	Name        string `yaml:"name"`
	Module      string `yaml:"module"`
	SourceDir   string `yaml:"source_dir"`
	PackageInfo string `yaml:"package_info"`
	MacroPrefix string `yaml:"macro_prefix" validate:"omitempty,uppercase"`
}

type Git struct {
	PrimaryBranch string `yaml:"primary_branch"`
}

type Python struct {
	Interpreter string `yaml:"interpreter"`
	Prefix      string `yaml:"prefix"`
}

type Build struct {
	Dir        string `yaml:"dir"`
	ConfModule string `yaml:"conf_module"`
}

type History struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

const (
	DefaultName          = "pyodbc"
	DefaultPackageInfo   = "PKG-INFO"
	DefaultPrimaryBranch = "master"
	DefaultInterpreter   = "python3"
	DefaultBuildDir      = "build"
	DefaultHistoryPath   = "~/.extform/history.db"

	// The companion library version define carried by every build.
	companionDefine  = "NPODBC_VERSION"
	companionVersion = "1.2-dev"
)

var (
	nameRegex  = regexp.MustCompile(`^[a-z0-9_.-]+$`)
	identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	macroRegex = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)
)

// MacroPrefixFor derives the preprocessor macro prefix from a project name:
// uppercased, with every character outside [A-Z0-9_] replaced by an
// underscore, and a leading underscore prepended when the name starts with
// a digit.
func MacroPrefixFor(name string) string {
	var b strings.Builder
	for i, r := range strings.ToUpper(name) {
		switch {
		case r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

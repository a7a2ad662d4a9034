package manifest

import (
	"path/filepath"

	"github.com/extform/extform/internal/apperr"
)

func (c *Config) normalizeAndValidate() error {
	// Defaults; most derive from the project name so a renamed project
	// only has to set project.name.
	if c.Project.Name == "" {
		c.Project.Name = DefaultName
	}
	if !nameRegex.MatchString(c.Project.Name) {
		return apperr.New("manifest.normalizeAndValidate", apperr.InvalidInput, "invalid project.name %q: must match ^[a-z0-9_.-]+$", c.Project.Name)
	}
	if c.Project.Module == "" {
		c.Project.Module = c.Project.Name
	}
	if !identRegex.MatchString(c.Project.Module) {
		return apperr.New("manifest.normalizeAndValidate", apperr.InvalidInput, "invalid project.module %q: must be an identifier", c.Project.Module)
	}
	if c.Project.SourceDir == "" {
		c.Project.SourceDir = filepath.Join(c.Project.Name, "src")
	}
	if c.Project.PackageInfo == "" {
		c.Project.PackageInfo = DefaultPackageInfo
	}
	if c.Project.MacroPrefix == "" {
		c.Project.MacroPrefix = MacroPrefixFor(c.Project.Name)
	}
	if !macroRegex.MatchString(c.Project.MacroPrefix) {
		return apperr.New("manifest.normalizeAndValidate", apperr.InvalidInput, "invalid project.macro_prefix %q: must match ^[A-Z_][A-Z0-9_]*$", c.Project.MacroPrefix)
	}

	if c.Defines == nil {
		c.Defines = map[string]string{companionDefine: companionVersion}
	}
	for name := range c.Defines {
		if !identRegex.MatchString(name) {
			return apperr.New("manifest.normalizeAndValidate", apperr.InvalidInput, "invalid define %q: must be an identifier", name)
		}
	}

	if c.Git.PrimaryBranch == "" {
		c.Git.PrimaryBranch = DefaultPrimaryBranch
	}
	if c.Python.Interpreter == "" {
		c.Python.Interpreter = DefaultInterpreter
	}
	if c.Build.Dir == "" {
		c.Build.Dir = DefaultBuildDir
	}
	if c.Build.ConfModule == "" {
		c.Build.ConfModule = c.Project.Module + "conf"
	}
	if !identRegex.MatchString(c.Build.ConfModule) {
		return apperr.New("manifest.normalizeAndValidate", apperr.InvalidInput, "invalid build.conf_module %q: must be an identifier", c.Build.ConfModule)
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath
	}

	// Resolve project paths against the config file's directory. The
	// history path is left alone: ~ expansion happens when the store opens.
	c.Project.SourceDir = c.resolve(c.Project.SourceDir)
	c.Project.PackageInfo = c.resolve(c.Project.PackageInfo)
	c.Build.Dir = c.resolve(c.Build.Dir)

	return nil
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(filepath.Join(c.BaseDir, path))
}

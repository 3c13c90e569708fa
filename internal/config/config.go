// Package config loads pacman.conf and the per-run flag/env overlay
// that decides how the transaction engine and CLI behave.
package config

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"

	"github.com/StarchLinux/pacman/internal/alpm"
)

// RepoConfig is one [reponame] section of pacman.conf.
type RepoConfig struct {
	Name     string
	Servers  []string
	SigLevel alpm.ValidationMethod
}

// Config is the decoded form of pacman.conf's [options] section plus
// its repository sections, following the teacher's typed-struct-from-
// file pattern (manifest.go's readManifest) rather than hand-rolled
// line scanning.
type Config struct {
	RootDir    string
	DBPath     string
	CacheDirs  []string
	GPGDir     string
	LogFile    string

	HoldPkgs    []string
	IgnorePkgs  []string
	IgnoreGroups []string
	NoUpgrade   []string
	NoExtract   []string

	SigLevel        alpm.ValidationMethod
	LocalFileSigLevel alpm.ValidationMethod

	CheckSpace bool
	VerbosePkgLists bool

	Repos []RepoConfig
}

// Default mirrors pacman's built-in defaults, applied before the
// config file is parsed.
func Default() *Config {
	return &Config{
		RootDir: "/",
		DBPath:  "/var/lib/pacman",
		CacheDirs: []string{"/var/cache/pacman/pkg"},
		GPGDir:    "/etc/pacman.d/gnupg",
		LogFile:   "/var/log/pacman.log",
		SigLevel:  alpm.ValidateSignature,
	}
}

// Load reads a pacman.conf-style INI file at path and decodes it on
// top of Default(). CacheDir and a repository's Server collect every
// repeated occurrence; for other repeated directives (HoldPkg,
// IgnorePkg, ...) only the first occurrence is read. Include is not
// followed (kept simple: one file in, one Config out).
func Load(path string) (*Config, error) {
	cfg := Default()

	f, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}

	if opts := f.Section("options"); opts != nil {
		applyOptions(cfg, opts)
	}

	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection || sec.Name() == "options" {
			continue
		}
		repo := RepoConfig{Name: sec.Name(), SigLevel: cfg.SigLevel}
		if key := sec.Key("Server"); key != nil {
			repo.Servers = sec.Key("Server").ValueWithShadows()
		}
		if sec.HasKey("SigLevel") {
			repo.SigLevel = parseSigLevel(sec.Key("SigLevel").String())
		}
		cfg.Repos = append(cfg.Repos, repo)
	}

	return cfg, nil
}

func applyOptions(cfg *Config, opts *ini.Section) {
	if opts.HasKey("RootDir") {
		cfg.RootDir = opts.Key("RootDir").String()
	}
	if opts.HasKey("DBPath") {
		cfg.DBPath = opts.Key("DBPath").String()
	}
	if opts.HasKey("CacheDir") {
		cfg.CacheDirs = opts.Key("CacheDir").ValueWithShadows()
	}
	if opts.HasKey("GPGDir") {
		cfg.GPGDir = opts.Key("GPGDir").String()
	}
	if opts.HasKey("LogFile") {
		cfg.LogFile = opts.Key("LogFile").String()
	}
	if opts.HasKey("HoldPkg") {
		cfg.HoldPkgs = opts.Key("HoldPkg").Strings(" ")
	}
	if opts.HasKey("IgnorePkg") {
		cfg.IgnorePkgs = opts.Key("IgnorePkg").Strings(" ")
	}
	if opts.HasKey("IgnoreGroup") {
		cfg.IgnoreGroups = opts.Key("IgnoreGroup").Strings(" ")
	}
	if opts.HasKey("NoUpgrade") {
		cfg.NoUpgrade = opts.Key("NoUpgrade").Strings(" ")
	}
	if opts.HasKey("NoExtract") {
		cfg.NoExtract = opts.Key("NoExtract").Strings(" ")
	}
	if opts.HasKey("SigLevel") {
		cfg.SigLevel = parseSigLevel(opts.Key("SigLevel").String())
	}
	if opts.HasKey("LocalFileSigLevel") {
		cfg.LocalFileSigLevel = parseSigLevel(opts.Key("LocalFileSigLevel").String())
	}
	cfg.CheckSpace = opts.HasKey("CheckSpace")
	cfg.VerbosePkgLists = opts.HasKey("VerbosePkgLists")
}

func parseSigLevel(s string) alpm.ValidationMethod {
	var v alpm.ValidationMethod
	for _, tok := range strings.Fields(s) {
		switch strings.ToLower(tok) {
		case "never":
			return 0
		case "optional", "required":
			v |= alpm.ValidateSignature
		case "packagerequired", "packageoptional", "packagenever":
			v |= alpm.ValidateSignature
		}
	}
	return v
}

// BindFlags overlays CLI flag and environment values onto a viper
// instance scoped to the "PACMAN" env prefix, following the
// cobra+viper wiring pattern. Call after Load; flags win over the
// config file, which wins over Default().
func BindFlags(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix("PACMAN")
	v.AutomaticEnv()

	if v.IsSet("root") {
		cfg.RootDir = v.GetString("root")
	}
	if v.IsSet("dbpath") {
		cfg.DBPath = v.GetString("dbpath")
	}
	if v.IsSet("cachedir") {
		cfg.CacheDirs = v.GetStringSlice("cachedir")
	}
	if v.IsSet("verbose") {
		cfg.VerbosePkgLists = v.GetBool("verbose")
	}
}

// DBDir returns the per-repository sync database directory under
// cfg.DBPath.
func (c *Config) DBDir(repo string) string {
	return filepath.Join(c.DBPath, "sync", repo)
}

// LocalDBDir returns the local package database directory.
func (c *Config) LocalDBDir() string {
	return filepath.Join(c.DBPath, "local")
}

package main

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/StarchLinux/pacman/internal/alpm"
	"github.com/StarchLinux/pacman/internal/config"
	"github.com/StarchLinux/pacman/internal/download"
	"github.com/StarchLinux/pacman/internal/sig"
)

func newSyncCmd() *cobra.Command {
	var (
		refresh      bool
		upgrade      bool
		noDeps       bool
		force        bool
		downloadOnly bool
		dbonly       bool
		noScriptlet  bool
	)

	cmd := &cobra.Command{
		Use:     "sync [packages...]",
		Aliases: []string{"-S", "S"},
		Short:   "install packages from a sync repository, or upgrade the system",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			flags := alpm.TransFlags{
				NoDeps:       noDeps,
				Force:        force,
				DownloadOnly: downloadOnly,
				DBOnly:       dbonly,
				NoScriptlet:  noScriptlet,
			}
			if upgrade {
				return runSystemUpgrade(rt, flags)
			}
			return runSyncInstall(rt, args, flags)
		},
	}

	cmd.Flags().BoolVarP(&refresh, "refresh", "y", false, "accepted for compatibility; sync databases are not refreshed")
	cmd.Flags().BoolVarP(&upgrade, "sysupgrade", "u", false, "upgrade all out-of-date packages")
	cmd.Flags().BoolVar(&noDeps, "nodeps", false, "skip dependency resolution")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite conflicting files")
	cmd.Flags().BoolVarP(&downloadOnly, "downloadonly", "w", false, "fetch archives only, don't install")
	cmd.Flags().BoolVar(&dbonly, "dbonly", false, "only modify the local database, leave files on disk")
	cmd.Flags().BoolVar(&noScriptlet, "noscriptlet", false, "skip install/upgrade scriptlets")
	return cmd
}

func runSyncInstall(rt *runtime, names []string, flags alpm.TransFlags) error {
	if len(names) == 0 {
		return errors.New("no targets specified")
	}

	var targets []*alpm.Package
	for _, name := range names {
		pkg, found := findInRepos(rt.handle.Repos, name)
		if !found {
			return errors.Errorf("target not found: %s", name)
		}
		targets = append(targets, pkg)
	}

	return runInstallTransaction(rt, targets, flags)
}

func runSystemUpgrade(rt *runtime, flags alpm.TransFlags) error {
	planner := &alpm.SyncPlanner{Local: rt.handle.Local, Repos: rt.handle.Repos, Question: rt.handle.OnQuestion}
	candidates, err := planner.PlanUpgrade()
	if err != nil {
		return errors.Wrap(err, "planning system upgrade")
	}
	if len(candidates) == 0 {
		rt.log.LogPacfln("nothing to do")
		return nil
	}

	targets := make([]*alpm.Package, len(candidates))
	for i, c := range candidates {
		targets[i] = c.Package
	}
	return runInstallTransaction(rt, targets, flags)
}

func runInstallTransaction(rt *runtime, targets []*alpm.Package, flags alpm.TransFlags) error {
	tx, err := alpm.NewTransaction(rt.handle, flags)
	if err != nil {
		return err
	}
	if err := tx.AddInstall(targets...); err != nil {
		return err
	}
	if err := tx.Prepare(); err != nil {
		_ = tx.Release()
		return errors.Wrap(err, "preparing transaction")
	}

	archivePaths, err := fetchArchives(rt, targets)
	if err != nil {
		_ = tx.Release()
		return err
	}

	if err := tx.Commit(archivePaths); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	if flags.DownloadOnly {
		return nil
	}

	for _, pkg := range targets {
		reason := rt.handle.Local.ReasonOf(pkg.Name)
		if err := config.WritePackageRecord(rt.cfg.LocalDBDir(), pkg, reason); err != nil {
			return errors.Wrapf(err, "recording %s in local database", pkg.Name)
		}
	}
	return nil
}

// fetchArchives downloads every target's package archive into its
// repository's cache directory (the first entry of cfg.CacheDirs), and
// verifies its detached signature when the global cfg.SigLevel requires
// one; a repository's own SigLevel is not consulted.
func fetchArchives(rt *runtime, targets []*alpm.Package) (map[string]string, error) {
	client := download.NewClient()
	var keyring *sig.Keyring
	if rt.cfg.SigLevel&alpm.ValidateSignature != 0 {
		kr, err := sig.LoadKeyring(filepath.Join(rt.cfg.GPGDir, "pubring.gpg"))
		if err != nil {
			return nil, errors.Wrap(err, "loading keyring for signature verification")
		}
		keyring = kr
	}

	cacheDir := "."
	if len(rt.cfg.CacheDirs) > 0 {
		cacheDir = rt.cfg.CacheDirs[0]
	}

	out := make(map[string]string, len(targets))
	for _, pkg := range targets {
		if pkg.Repo == nil {
			return nil, errors.Errorf("%s has no source repository to fetch from", pkg.Name)
		}
		dest := filepath.Join(cacheDir, pkg.Filename)
		renderProgress(pkg.Name, 0)
		if err := client.Fetch(context.Background(), pkg.Repo.Servers, pkg.Filename, dest); err != nil {
			return nil, errors.Wrapf(err, "fetching %s", pkg.Name)
		}
		renderProgress(pkg.Name, 100)

		if keyring != nil {
			sigPath := dest + ".sig"
			if _, err := keyring.VerifyFile(dest, sigPath); err != nil {
				return nil, errors.Wrapf(err, "verifying signature for %s", pkg.Name)
			}
		}

		out[pkg.Name] = dest
	}
	return out, nil
}

func findInRepos(repos []*alpm.Repository, name string) (*alpm.Package, bool) {
	for _, repo := range repos {
		if pkg, ok := repo.FindByName(name); ok {
			return pkg, true
		}
	}
	return nil, false
}

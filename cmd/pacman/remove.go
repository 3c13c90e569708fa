package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/StarchLinux/pacman/internal/alpm"
	"github.com/StarchLinux/pacman/internal/config"
)

func newRemoveCmd() *cobra.Command {
	var (
		cascade    bool
		nosave     bool
		noDeps     bool
		force      bool
		recurse    bool
		recurseAll bool
		unneeded   bool
		dbonly     bool
	)

	cmd := &cobra.Command{
		Use:     "remove [packages...]",
		Aliases: []string{"-R", "R"},
		Short:   "remove packages from the system",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			flags := alpm.TransFlags{
				Cascade:    cascade,
				NoSave:     nosave,
				NoDeps:     noDeps,
				Force:      force,
				Recurse:    recurse,
				RecurseAll: recurseAll,
				Unneeded:   unneeded,
				DBOnly:     dbonly,
			}
			return runRemove(rt, args, flags)
		},
	}

	cmd.Flags().BoolVarP(&cascade, "cascade", "c", false, "also remove packages that depend on the targets")
	cmd.Flags().BoolVarP(&nosave, "nosave", "n", false, "don't create .pacsave backups")
	cmd.Flags().BoolVar(&noDeps, "nodeps", false, "skip dependency safety checks")
	cmd.Flags().BoolVar(&force, "force", false, "remove packages required by others anyway")
	cmd.Flags().BoolVarP(&recurse, "recursive", "s", false, "also remove dependencies orphaned by this removal")
	cmd.Flags().BoolVar(&recurseAll, "recursive-all", false, "like --recursive, but also orphaned explicitly-installed dependencies")
	cmd.Flags().BoolVar(&unneeded, "unneeded", false, "drop packages still required by something else instead of failing")
	cmd.Flags().BoolVar(&dbonly, "dbonly", false, "only modify the local database, leave files on disk")
	return cmd
}

func runRemove(rt *runtime, names []string, flags alpm.TransFlags) error {
	var targets []*alpm.Package
	for _, name := range names {
		pkg, ok := rt.handle.Local.FindByName(name)
		if !ok {
			return errors.Errorf("target not found: %s", name)
		}
		targets = append(targets, pkg)
	}

	tx, err := alpm.NewTransaction(rt.handle, flags)
	if err != nil {
		return err
	}
	if err := tx.AddRemove(targets...); err != nil {
		return err
	}
	if err := tx.Prepare(); err != nil {
		_ = tx.Release()
		return errors.Wrap(err, "preparing transaction")
	}
	if err := tx.Commit(nil); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	for _, pkg := range targets {
		if err := config.RemovePackageRecord(rt.cfg.LocalDBDir(), pkg.Name, pkg.Version); err != nil {
			return errors.Wrapf(err, "removing %s from local database", pkg.Name)
		}
	}
	return nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/StarchLinux/pacman/internal/alpm"
)

func newQueryCmd() *cobra.Command {
	var (
		info        bool
		requiredBy  bool
		tree        bool
		depth       int
	)

	cmd := &cobra.Command{
		Use:     "query [packages...]",
		Aliases: []string{"-Q", "Q"},
		Short:   "query the local package database",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			switch {
			case requiredBy:
				return runQueryRequiredBy(rt, args)
			case tree:
				return runQueryTree(rt, args, depth)
			case info:
				return runQueryInfo(rt, args)
			default:
				return runQueryList(rt, args)
			}
		},
	}

	cmd.Flags().BoolVarP(&info, "info", "i", false, "show detailed information for named packages")
	cmd.Flags().BoolVar(&requiredBy, "required-by", false, "list installed packages that depend on the named package")
	cmd.Flags().BoolVar(&tree, "tree", false, "show the named package's dependency tree")
	cmd.Flags().IntVar(&depth, "depth", 0, "maximum depth for --tree (0 means unlimited)")
	return cmd
}

// runQueryList prints every installed package, or just the named ones
// if args were given, one "name version" line each.
func runQueryList(rt *runtime, args []string) error {
	if len(args) == 0 {
		for _, pkg := range rt.handle.Local.Packages() {
			fmt.Printf("%s %s\n", pkg.Name, pkg.Version)
		}
		return nil
	}
	for _, name := range args {
		pkg, ok := rt.handle.Local.FindByName(name)
		if !ok {
			return errors.Errorf("package %q not found", name)
		}
		fmt.Printf("%s %s\n", pkg.Name, pkg.Version)
	}
	return nil
}

func runQueryInfo(rt *runtime, args []string) error {
	if len(args) == 0 {
		return errors.New("--info requires at least one package name")
	}
	for _, name := range args {
		pkg, ok := rt.handle.Local.FindByName(name)
		if !ok {
			return errors.Errorf("package %q not found", name)
		}
		reason := rt.handle.Local.ReasonOf(name)
		fmt.Printf("Name            : %s\n", pkg.Name)
		fmt.Printf("Version         : %s\n", pkg.Version)
		fmt.Printf("Install Reason  : %s\n", reason)
		if len(pkg.Depends) > 0 {
			fmt.Printf("Depends On      : %s\n", joinDepends(pkg.Depends))
		}
		if len(pkg.Provides) > 0 {
			fmt.Printf("Provides        : %s\n", joinDepends(pkg.Provides))
		}
		fmt.Printf("Installed Size  : %d\n", pkg.ISize)
		fmt.Println()
	}
	return nil
}

// runQueryRequiredBy supplements the spec with a pactree-style reverse
// dependency lookup (§6, SUPPLEMENTED FEATURES).
func runQueryRequiredBy(rt *runtime, args []string) error {
	if len(args) != 1 {
		return errors.New("--required-by takes exactly one package name")
	}
	if _, ok := rt.handle.Local.FindByName(args[0]); !ok {
		return errors.Errorf("package %q not found", args[0])
	}
	deps := rt.handle.Local.RequiredBy(args[0])
	if len(deps) == 0 {
		fmt.Println("No packages depend on this one")
		return nil
	}
	for _, name := range deps {
		fmt.Println(name)
	}
	return nil
}

// runQueryTree supplements the spec with a pactree-style forward
// dependency walk (§6, SUPPLEMENTED FEATURES).
func runQueryTree(rt *runtime, args []string, depth int) error {
	if len(args) != 1 {
		return errors.New("--tree takes exactly one package name")
	}
	names, err := rt.handle.Local.DependencyGraph(args[0], depth)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func joinDepends(deps []alpm.DependExpr) string {
	parts := make([]string, len(deps))
	for i, d := range deps {
		parts[i] = d.String()
	}
	return strings.Join(parts, "  ")
}

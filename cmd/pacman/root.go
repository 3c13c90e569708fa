// Command pacman is the CLI front end for the transaction engine in
// internal/alpm: it loads pacman.conf, builds a Handle, and drives one
// Transaction per invocation.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/StarchLinux/pacman/internal/alpm"
	"github.com/StarchLinux/pacman/internal/config"
	"github.com/StarchLinux/pacman/log"
)

var (
	flagConfigPath string
	flagRoot       string
	flagDBPath     string
	flagNoConfirm  bool
	flagVerbose    bool

	v = viper.New()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pacman",
		Short:         "a system package manager",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagConfigPath, "config", "/etc/pacman.conf", "config file path")
	root.PersistentFlags().StringVar(&flagRoot, "root", "", "install root (overrides pacman.conf)")
	root.PersistentFlags().StringVar(&flagDBPath, "dbpath", "", "database path (overrides pacman.conf)")
	root.PersistentFlags().BoolVar(&flagNoConfirm, "noconfirm", false, "answer every prompt with its default")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")

	_ = v.BindPFlag("root", root.PersistentFlags().Lookup("root"))
	_ = v.BindPFlag("dbpath", root.PersistentFlags().Lookup("dbpath"))
	_ = v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.AddCommand(newSyncCmd())
	root.AddCommand(newRemoveCmd())
	root.AddCommand(newUpgradeCmd())
	root.AddCommand(newQueryCmd())

	return root
}

// runtime bundles everything a verb command needs to build and drive a
// transaction: the loaded config, the assembled handle, and a logger.
type runtime struct {
	cfg    *config.Config
	handle *alpm.Handle
	log    *log.Logger
	txID   uuid.UUID
}

func newRuntime() (*runtime, error) {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		// A missing or unreadable pacman.conf falls back to built-in
		// defaults rather than aborting every command.
		cfg = config.Default()
	}
	config.BindFlags(v, cfg)
	if flagRoot != "" {
		cfg.RootDir = flagRoot
	}
	if flagDBPath != "" {
		cfg.DBPath = flagDBPath
	}

	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := log.New(os.Stderr, level)

	h := alpm.NewHandle(cfg.RootDir, cfg.DBPath)
	h.SkipRemove = alpm.NewSkipList(nil)
	h.NoUpgrade = alpm.NewSkipList(cfg.NoUpgrade)
	h.NoExtract = alpm.NewSkipList(cfg.NoExtract)
	for _, name := range cfg.IgnorePkgs {
		h.IgnorePkgs[name] = true
	}

	pkgs, reasons, err := config.LoadLocalDB(cfg.LocalDBDir())
	if err != nil {
		return nil, errors.Wrap(err, "loading local database")
	}
	entries := make([]struct {
		Pkg    *alpm.Package
		Reason alpm.Reason
	}, len(pkgs))
	for i, p := range pkgs {
		entries[i].Pkg = p
		entries[i].Reason = reasons[i]
	}
	h.Local.Load(entries)

	for _, rc := range cfg.Repos {
		repo := alpm.NewRepository(rc.Name, rc.Servers)
		h.Repos = append(h.Repos, repo)
	}

	txID := uuid.New()
	h.OnEvent = func(e alpm.Event) { logEvent(logger, txID, e) }
	h.OnQuestion = func(q *alpm.Question) bool { return answerQuestion(logger, q, flagNoConfirm) }

	return &runtime{cfg: cfg, handle: h, log: logger, txID: txID}, nil
}

func logEvent(logger *log.Logger, txID uuid.UUID, e alpm.Event) {
	switch e.Type {
	case alpm.EventPackageOperationStart:
		logger.Debugf("tx=%s %s %s", txID, opVerb(e.OpType), targetLabel(e.Target))
	case alpm.EventScriptletStart:
		logger.Debugf("tx=%s running install scriptlet", txID)
	case alpm.EventRetrieveStart:
		logger.Debugf("tx=%s retrieving package data", txID)
	}
}

func opVerb(op alpm.PackageOperationType) string {
	switch op {
	case alpm.OpInstall:
		return "installing"
	case alpm.OpUpgrade:
		return "upgrading"
	case alpm.OpDowngrade:
		return "downgrading"
	case alpm.OpReinstall:
		return "reinstalling"
	case alpm.OpRemove:
		return "removing"
	default:
		return "processing"
	}
}

func targetLabel(p *alpm.Package) string {
	if p == nil {
		return ""
	}
	return p.String()
}

// answerQuestion resolves a mid-transaction question from the CLI. It
// never reads an answer from the terminal and always takes the
// engine's default; without --noconfirm it first logs the prompt for
// replace and conflict questions.
func answerQuestion(logger *log.Logger, q *alpm.Question, noConfirm bool) bool {
	if noConfirm {
		return q.Default
	}
	switch q.Type {
	case alpm.QuestionReplacePkg:
		logger.LogPacfln("replace %s with %s? [Y/n] (noconfirm assumed)", q.PkgA.Name, q.PkgB.Name)
	case alpm.QuestionConflictPkg:
		logger.LogPacfln("%s conflicts with %s, remove %s? [y/N] (noconfirm assumed)", q.PkgA.Name, q.PkgB.Name, q.PkgB.Name)
	}
	return q.Default
}

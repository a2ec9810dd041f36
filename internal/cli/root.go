// Package cli implements the stockcount command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/stockcount/internal/activity"
	"github.com/mesh-intelligence/stockcount/internal/config"
	"github.com/mesh-intelligence/stockcount/internal/inventory"
	"github.com/mesh-intelligence/stockcount/internal/logging"
	"github.com/mesh-intelligence/stockcount/internal/paths"
	"github.com/mesh-intelligence/stockcount/internal/validation"
	"github.com/mesh-intelligence/stockcount/pkg/sqlite"
	"github.com/mesh-intelligence/stockcount/pkg/stockcount"
	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags     rootFlags
	configDir string
	cfg       config.Config
}

// NewRootCmd creates the top-level "stockcount" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:     "stockcount",
		Short:   "Multi-branch inventory counting",
		Long:    "stockcount records physical and system counts per branch, imports\nand exports count sheets and serves the inventory web API.",
		Version: stockcount.Version,
		// Errors are printed once by Execute.
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output as JSON")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError("%v", err)
	})

	root.AddCommand(newVersionCmd())
	root.AddCommand(a.newInitCmd())
	root.AddCommand(a.newServeCmd())
	root.AddCommand(a.newImportCmd())
	root.AddCommand(a.newExportCmd())
	root.AddCommand(a.newBranchesCmd())
	root.AddCommand(a.newProductsCmd())
	root.AddCommand(a.newInventoryCmd())
	root.AddCommand(a.newCountCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

// run executes root with args and returns the process exit code. Errors are
// written to stderr.
func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "Error:", err)
	return exitCode(err)
}

// exitCode classifies err: mistakes in the input are user errors, anything
// else is a system error.
func exitCode(err error) int {
	var verr *types.ValidationError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &verr),
		errors.Is(err, errUsage),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrDuplicateCode),
		errors.Is(err, types.ErrNoValidRows),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrBackendEmpty),
		errors.Is(err, types.ErrBackendUnknown):
		return exitUserError
	default:
		return exitSysError
	}
}

// errUsage marks bad flags and arguments.
var errUsage = errors.New("invalid usage")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageError("%s accepts %d arg(s), received %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

// load resolves the directories and reads the configuration. The version,
// help and completion commands need neither.
func (a *app) load(cmd *cobra.Command, args []string) error {
	switch {
	case cmd.Name() == "version", cmd.Name() == "help":
		return nil
	case cmd.HasParent() && cmd.Parent().Name() == "completion":
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	if cmd.Name() == "init" && a.flags.dataDir != "" {
		// init records an explicit data dir in a config file it creates.
		dataDir, err := paths.ResolveDataDir(a.flags.dataDir, "")
		if err != nil {
			return fmt.Errorf("resolve data dir: %w", err)
		}
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		if err := config.WriteDefault(paths.ConfigFile(configDir), dataDir); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = dataDir

	a.configDir = configDir
	a.cfg = cfg
	return nil
}

// session is an attached store and the service built on it. The caller
// must call close.
type session struct {
	store  types.Store
	svc    *inventory.Service
	logger *zap.Logger
}

func (s *session) close() {
	_ = s.logger.Sync()
	_ = s.store.Detach()
}

// open attaches the configured store and wires the service with the
// configured validator and logger.
func (a *app) open() (*session, error) {
	logger, err := logging.New(a.cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	store, err := sqlite.Open(a.cfg.Store())
	if err != nil {
		return nil, fmt.Errorf("attach store: %w", err)
	}

	svc := inventory.NewService(store, a.validator(), activity.New(a.cfg.Activity.Capacity), logger)
	return &session{store: store, svc: svc, logger: logger}, nil
}

// validator returns the remote validator when a URL is configured and the
// local rules otherwise.
func (a *app) validator() validation.Validator {
	if a.cfg.Validator.URL == "" {
		return validation.Rules{}
	}
	return validation.NewRemote(a.cfg.Validator.URL, a.cfg.Validator.Timeout)
}

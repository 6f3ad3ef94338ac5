package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/gompdf/docpager/internal/config"
)

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do, just return
		return ctx, nil
	}

	env := envFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		env.Cfg.Logging.ConsoleLogger.Level = "debug"
	}
	if env.Log, err = env.Cfg.Logging.Prepare(); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.redirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", version()), zap.String("runtime", runtime.Version()))
	if len(configFile) == 0 {
		env.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	env.Log.Debug("Program ended", zap.Duration("elapsed", env.uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	env.restoreLog()
	return nil
}

// Regular errors are returned from subcommands and reported once, here or on
// exit.
var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := envFromContext(ctx)
	if env.Cfg != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func version() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "devel"
}

func main() {
	ctx, stop := signal.NotifyContext(contextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            config.AppName,
		Usage:           "splits HTML documents into fixed size pages with headers and footers",
		Version:         version() + " (" + runtime.Version() + ")",
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log debug messages to console"},
		},
		Commands: []*cli.Command{
			{
				Name:         "paginate",
				Usage:        "Splits a document into pages and prints a page summary (JSON) or a paged HTML preview",
				OnUsageError: usageErrorHandler,
				Action:       runPaginate,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: formatJSON, Usage: "output `FORMAT` (json, html)"},
				},
				ArgsUsage: "SOURCE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    HTML file, http(s) URL or "-" for STDIN

DESTINATION:
    output file, if absent - STDOUT
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "render",
				Usage:        "Splits a document into pages and renders them to PDF",
				OnUsageError: usageErrorHandler,
				Action:       runRender,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "document `TITLE`, defaults to the source name"},
					&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "overwrite destination if it exists"},
				},
				ArgsUsage: "SOURCE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    HTML file, http(s) URL or "-" for STDIN

DESTINATION:
    output PDF file, if absent - name derived from SOURCE in current directory
`, cli.CommandHelpTemplate),
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// os.Exit is called at the end of main to set exit code, make sure
	// there are no other deffered functions after that
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		err   error
		data  []byte
		state string
	)

	out := os.Stdout
	if len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()
	}

	if cmd.Bool("default") || env.Cfg == nil {
		state = "default"
		data = config.Prepare()
	} else {
		state = "actual"
		if data, err = config.Dump(env.Cfg); err != nil {
			return fmt.Errorf("unable to get configuration: %w", err)
		}
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Debug("Outputing configuration", zap.String("state", state), zap.String("file", fname))

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}

// Command commander runs a program through the execution library: it
// parses argv into a command descriptor, picks a strategy, performs the
// exchange and exits with the child's exit code. Internal failures exit
// with code 125 so callers can tell them apart from any child status.
//
//	commander -- ls -l /tmp
//	echo data | commander --input - -- cat
//	commander --strategy async --timeout 30s -- ./build.sh
//	commander --elevated -- systemctl restart nginx
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/kbukum/commander/command"
	"github.com/kbukum/commander/config"
	"github.com/kbukum/commander/elevate"
	cerrors "github.com/kbukum/commander/errors"
	"github.com/kbukum/commander/executor"
	"github.com/kbukum/commander/logger"
	"github.com/kbukum/commander/version"
)

// exitInternal distinguishes commander's own failures from any exit
// code a child could produce.
const exitInternal = 125

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("commander", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	var (
		strategy    = flags.String("strategy", "", "execution strategy: blocking or async")
		elevated    = flags.Bool("elevated", false, "run through the privilege-elevation wrapper on a pty")
		input       = flags.String("input", "", "stdin for the child: a file path, or - for commander's stdin")
		dir         = flags.String("dir", "", "working directory for the child")
		timeout     = flags.Duration("timeout", 0, "bound the whole execution, e.g. 30s")
		maxOutput   = flags.Int64("max-output", 0, "cap captured output bytes per stream")
		grace       = flags.Duration("grace-period", 0, "SIGTERM to SIGKILL window on timeout")
		logLevel    = flags.String("log-level", "", "log level: debug, info, warn, error")
		configFile  = flags.String("config", "", "config file path")
		quiet       = flags.BoolP("quiet", "q", false, "suppress captured output, report only the exit code")
		showVersion = flags.BoolP("version", "V", false, "print version and exit")
	)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: commander [flags] -- program [args...]\n\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, "commander:", err)
		return exitInternal
	}
	if *showVersion {
		fmt.Println("commander", version.Get().String())
		return 0
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return exitInternal
	}

	var loaderOpts []config.LoaderOption
	if *configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(*configFile))
	}
	cfg, err := config.Load(loaderOpts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, "commander:", err)
		return exitInternal
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	log := logger.New(&cfg.Logging, cfg.Name)

	desc, err := buildDescriptor(flags.Args(), *dir, *grace, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "commander:", err)
		return exitInternal
	}

	opts, err := buildOptions(*input, *timeout, *maxOutput, *elevated, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "commander:", err)
		return exitInternal
	}

	name := cfg.Exec.Strategy
	if *strategy != "" {
		name = *strategy
	}
	if *elevated {
		name = executor.NameElevated
	}

	exec, err := executor.DefaultRegistry(log).Get(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, "commander:", err)
		return exitInternal
	}

	res, err := exec.Execute(context.Background(), desc, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "commander:", err)
		if res == nil {
			return exitInternal
		}
		// A timed-out exchange still has a meaningful partial result.
	}

	if !*quiet && res != nil {
		_, _ = os.Stdout.Write(res.Stdout)
		_, _ = os.Stderr.Write(res.Stderr)
	}

	switch {
	case res == nil:
		return exitInternal
	case res.ExitCode >= 0:
		return res.ExitCode
	default:
		// Signaled child; there is no exit code to forward.
		fmt.Fprintln(os.Stderr, "commander: child killed by", res.Signal)
		return exitInternal
	}
}

func buildDescriptor(argv []string, dir string, grace time.Duration, cfg *config.Config) (*command.Descriptor, error) {
	b := command.New(argv[0]).Args(argv[1:]...)
	if dir != "" {
		b.Dir(dir)
	}
	if grace > 0 {
		b.GracePeriod(grace)
	} else if cfg.Exec.GracePeriod > 0 {
		b.GracePeriod(cfg.Exec.GracePeriod)
	}
	return b.Build()
}

func buildOptions(input string, timeout time.Duration, maxOutput int64, elevated bool, cfg *config.Config) (executor.Options, error) {
	opts := executor.Options{
		Timeout:   cfg.Exec.Timeout,
		MaxOutput: cfg.Exec.MaxOutput,
	}
	if timeout > 0 {
		opts.Timeout = timeout
	}
	if maxOutput > 0 {
		opts.MaxOutput = maxOutput
	}

	switch input {
	case "":
	case "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return opts, cerrors.ReadFailed("stdin", err)
		}
		opts.Input = data
	default:
		data, err := os.ReadFile(input)
		if err != nil {
			return opts, cerrors.InvalidCommand("unreadable input file: " + input).WithCause(err)
		}
		opts.Input = data
	}

	if elevated {
		opts.Elevate = elevate.Config{
			Wrapper:       cfg.Elevate.Wrapper,
			WrapperArgs:   cfg.Elevate.WrapperArgs,
			Prompts:       cfg.Elevate.Prompts,
			Rejections:    cfg.Elevate.Rejections,
			PromptTimeout: cfg.Elevate.PromptTimeout,
			MaxOutput:     opts.MaxOutput,
		}
		credential, err := readCredential()
		if err != nil {
			return opts, err
		}
		opts.Credential = credential
	}
	return opts, nil
}

// readCredential takes the password from COMMANDER_CREDENTIAL when set,
// otherwise prompts on the terminal with echo off.
func readCredential() (string, error) {
	if cred, ok := os.LookupEnv("COMMANDER_CREDENTIAL"); ok {
		return cred, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", cerrors.InvalidCommand("no terminal for password prompt; set COMMANDER_CREDENTIAL")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	defer fmt.Fprintln(os.Stderr)
	cred, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", cerrors.ReadFailed("terminal", err)
	}
	return string(cred), nil
}

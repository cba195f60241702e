package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-credcheck/checker"
	"github.com/jrsteele09/go-credcheck/internal/config"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	exitOK          = 0
	exitFailed      = 1
	exitConfigError = 2
)

type options struct {
	timeout     time.Duration
	discover    bool
	fingerprint bool
	claims      bool
	logLevel    string
	noBanner    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			exitCode = exitFailed
		}
	}()

	c := config.New()
	// Config getters may warn while the flag defaults are read
	setupLogging(stderr, c.GetLogLevel())
	opts, err := parseFlags(c, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfigError
	}
	setupLogging(stderr, opts.logLevel)

	colour := isTerminal(stdout)
	if !opts.noBanner {
		displayAppname(stdout, c.GetAppName())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := checker.New(
		config.TokenRequest(c),
		checker.WithAuthorityHost(c.GetAuthorityHost()),
		checker.WithTimeout(opts.timeout),
		checker.WithDiscovery(opts.discover),
		checker.WithClaims(opts.claims),
		checker.WithLogger(log.Logger),
		checker.WithReporter(checker.NewReporter(stdout, colour, opts.fingerprint)),
	).Run(ctx)

	return exitCodeFor(result)
}

func parseFlags(c config.Config, args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("credcheck", flag.ContinueOnError)
	fs.DurationVar(&opts.timeout, "timeout", c.GetTimeout(), "timeout for the whole check, 0 disables it")
	fs.BoolVar(&opts.discover, "discover", false, "resolve the token endpoint through OpenID discovery first")
	fs.BoolVar(&opts.fingerprint, "fingerprint", false, "print a short BLAKE2b fingerprint of the client secret")
	fs.BoolVar(&opts.claims, "claims", true, "decode and print the access token claims")
	fs.StringVar(&opts.logLevel, "log-level", c.GetLogLevel(), "log level (debug, info, warn, error)")
	fs.BoolVar(&opts.noBanner, "no-banner", false, "do not print the banner")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: credcheck [flags]\n\n")
		fmt.Fprintf(fs.Output(), "Requires AZURE_TENANT_ID, AZURE_CLIENT_ID and AZURE_CLIENT_SECRET.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func exitCodeFor(result checker.Result) int {
	switch result.Outcome {
	case checker.OutcomeSuccess:
		return exitOK
	case checker.OutcomeConfigError:
		return exitConfigError
	default:
		return exitFailed
	}
}

func setupLogging(w io.Writer, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !isTerminal(w)}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/yuriy-kovalchuk/entrydns-updater/internal/cache"
	"github.com/yuriy-kovalchuk/entrydns-updater/internal/config"
	"github.com/yuriy-kovalchuk/entrydns-updater/internal/dns/entrydns"
	"github.com/yuriy-kovalchuk/entrydns-updater/internal/ipify"
	"github.com/yuriy-kovalchuk/entrydns-updater/internal/logging"
	"github.com/yuriy-kovalchuk/entrydns-updater/internal/telemetry"
	"github.com/yuriy-kovalchuk/entrydns-updater/internal/updater"
)

var Version = "dev"

const (
	exitNoChange       = 0
	exitFatal          = 1
	exitUpdated        = 2
	exitPartialFailure = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

// unrecognizedError names the first argument that is not a known flag.
type unrecognizedError struct {
	arg string
}

func (e *unrecognizedError) Error() string {
	return fmt.Sprintf("unrecognized command-line option '%s'", e.arg)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout io.Writer) int {
	help, unknown := scanArgs(args)
	if unknown != "" {
		fmt.Fprintf(stdout, "Error: %s\n", &unrecognizedError{arg: unknown})
		printUsage(stdout)
		return exitNoChange
	}
	if help {
		printUsage(stdout)
		return exitNoChange
	}

	code := exitNoChange
	var force bool

	cmd := &cobra.Command{
		Use:           "entrydns-updater",
		Short:         "Updates EntryDNS dynamic records when the public IP changes",
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(_ *cobra.Command, rest []string) error {
			if len(rest) > 0 {
				return &unrecognizedError{arg: rest[0]}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			code = update(cmd.Context(), stdout, updater.Options{Force: force})
			return nil
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stdout)
	cmd.SetVersionTemplate("entrydns-updater {{.Version}}\n")
	cmd.Flags().BoolP("help", "h", false, "Displays this help message")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Forces script to update EntryDNS entries (ignores cache)")
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) { printUsage(c.OutOrStdout()) })
	cmd.SetUsageFunc(func(c *cobra.Command) error {
		printUsage(c.OutOrStdout())
		return nil
	})

	if err := cmd.ExecuteContext(ctx); err != nil {
		// Argument errors print usage and still exit successfully.
		fmt.Fprintf(stdout, "Error: %s\n", err)
		printUsage(stdout)
	}
	return code
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "USAGE:\n\tentrydns-updater [FLAGS]\n")
	fmt.Fprintf(w, "FLAGS:\n")
	fmt.Fprintf(w, "\t-h, --help\tDisplays this help message\n")
	fmt.Fprintf(w, "\t-f, --force\tForces script to update EntryDNS entries (ignores cache)\n")
	fmt.Fprintf(w, "\t--version\tPrints the version and exits\n")
}

// scanArgs applies the arguments left to right, stopping at the first help
// flag or at the first argument outside the accepted set. Only bare flags are
// accepted: "--", "--flag=value" and positional arguments are not.
func scanArgs(args []string) (help bool, unknown string) {
	for _, arg := range args {
		switch arg {
		case "-h", "--help":
			return true, ""
		case "-f", "--force", "-v", "--version":
			continue
		}
		// Combined shorthands such as -fh.
		if len(arg) > 2 && arg[0] == '-' && arg[1] != '-' && strings.Trim(arg[1:], "fhv") == "" {
			if strings.ContainsRune(arg, 'h') {
				return true, ""
			}
			continue
		}
		return false, arg
	}
	return false, ""
}

// update wires the components from settings and performs one run.
func update(ctx context.Context, stdout io.Writer, opts updater.Options) int {
	// A missing .env is fine.
	_ = godotenv.Load()

	log := logging.New(stdout, 0)
	settings, err := config.LoadSettings()
	if err != nil {
		log.Error(err, "unable to load settings")
		return exitFatal
	}
	if settings.LogLevel > 0 {
		log = logging.New(stdout, settings.LogLevel)
	}
	log.V(1).Info("starting entrydns-updater", "version", Version, "force", opts.Force)

	shutdown, err := telemetry.Setup(ctx, Version)
	if err != nil {
		log.Error(err, "unable to set up telemetry")
		return exitFatal
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.V(1).Info("telemetry shutdown failed", "error", err.Error())
		}
	}()

	u, err := newUpdater(log, settings)
	if err != nil {
		log.Error(err, "unable to set up updater")
		return exitFatal
	}

	report, err := u.Run(ctx, opts)
	if err != nil {
		log.Error(err, "update failed")
		return exitFatal
	}
	log.V(1).Info("update finished", "outcome", report.Outcome.String(), "hosts", len(report.Results))

	switch report.Outcome {
	case updater.Updated:
		return exitUpdated
	case updater.PartialFailure:
		return exitPartialFailure
	default:
		return exitNoChange
	}
}

func newUpdater(log logr.Logger, s *config.Settings) (*updater.Updater, error) {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = s.HTTPTimeout

	resolver, err := ipify.New(s.IPServiceURL, client)
	if err != nil {
		return nil, err
	}
	provider, err := entrydns.New(log.WithName("entrydns"), s.UpdateURL, client)
	if err != nil {
		return nil, err
	}

	fsys := afero.NewOsFs()
	log.V(1).Info("using files", "hosts", s.HostsPath, "cache", s.CachePath)

	return &updater.Updater{
		Log:      log.WithName("updater"),
		Resolver: resolver,
		Cache:    cache.New(log.WithName("cache"), fsys, s.CachePath),
		Hosts:    config.HostsFile{Fs: fsys, Path: s.HostsPath},
		DNS:      provider,
	}, nil
}

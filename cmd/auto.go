package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/PolarWolf314/mainsail/internal/metrics"
	"github.com/PolarWolf314/mainsail/internal/ui"
	"github.com/PolarWolf314/mainsail/internal/utils"
	"github.com/PolarWolf314/mainsail/internal/workflows"
)

const defaultInterval = 2 * time.Second

var (
	runOnce         bool
	watchFolder     bool
	pollInterval    time.Duration
	metricsTextfile string
)

var autoSignCmd = &cobra.Command{
	Use:   "auto-sign",
	Short: "Sign every document dropped into the to-sign folder",
	Long: `Watches the to-sign folder and signs every file put there. The signed
bundle or signature and the original document are moved to to-sign/signed.

Runs until interrupted unless --once is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		if err := e.ensureFolders(cmd.Context()); err != nil {
			return Logger.ErrorfAndReturn("failed to prepare folders: %v", err)
		}
		format, err := e.format()
		if err != nil {
			return err
		}
		kp, err := workflows.LoadKey(cmd.Context(), e.keys)
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), keyErrorMessage(err))
			return nil
		}

		layout := e.layout()
		as := workflows.NewAutoSign(workflows.AutoSignOptions{
			Layout:  layout,
			Format:  format,
			Key:     kp,
			Logger:  Logger,
			Metrics: e.metrics,
			Audit:   e.audit,
		})

		return loop(cmd, layout.SignIn, e.metrics, func(ctx context.Context) error {
			res, err := as.Pass(ctx)
			if err != nil {
				return err
			}
			printPass(cmd, res)
			return nil
		})
	},
}

var autoVerifyCmd = &cobra.Command{
	Use:   "auto-verify",
	Short: "Verify every signed file dropped into the to-check folder",
	Long: `Watches the to-check folder. Valid documents and their signatures move to
to-check/verified; bundles are unpacked on the way. Anything that fails
verification moves to to-check/quarantine.

Files whose signature or document is missing are reported once and then
ignored until the command is restarted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		if err := e.ensureFolders(cmd.Context()); err != nil {
			return Logger.ErrorfAndReturn("failed to prepare folders: %v", err)
		}

		layout := e.layout()
		av := workflows.NewAutoVerify(workflows.AutoVerifyOptions{
			Layout:  layout,
			Logger:  Logger,
			Metrics: e.metrics,
			Audit:   e.audit,
		})

		return loop(cmd, layout.VerifyIn, e.metrics, func(ctx context.Context) error {
			res, err := av.Pass(ctx)
			if err != nil {
				return err
			}
			printPass(cmd, res)
			if res.NeedsRestart {
				fmt.Fprint(cmd.OutOrStdout(), ui.Warning.Sprint("→")+" Ignoring until restart:"+utils.FormatPaths(utils.BaseNames(av.Skipped())))
				fmt.Fprintln(cmd.OutOrStdout(), "  Restart "+ui.Code.Sprint(cmd.CommandPath())+" to check them again.")
			}
			return nil
		})
	},
}

// loop runs pass once or until interrupted, waking early on changes in dir
// when --watch is set. Metrics are written after every pass.
func loop(cmd *cobra.Command, dir string, m *metrics.Metrics, pass workflows.PassFunc) error {
	withMetrics := func(ctx context.Context) error {
		err := pass(ctx)
		if metricsTextfile != "" {
			if werr := m.WriteTextfile(metricsTextfile); werr != nil {
				Logger.WarnfAlways("Failed to write metrics to %s: %v", metricsTextfile, werr)
			}
		}
		return err
	}

	if runOnce {
		return withMetrics(cmd.Context())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wake <-chan struct{}
	if watchFolder {
		ch, closeWatcher, err := watchDir(dir)
		if err != nil {
			Logger.WarnfAlways("Could not watch %s, polling instead: %v", dir, err)
		} else {
			defer closeWatcher()
			wake = ch
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.Info.Sprint("→")+" Watching "+ui.Path.Sprint(dir)+". Press Ctrl+C to stop.")
	return workflows.RunWithWake(ctx, pollInterval, wake, withMetrics)
}

// watchDir turns filesystem events in dir into wake-ups for the loop.
func watchDir(dir string) (<-chan struct{}, func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, nil, err
	}

	wake := make(chan struct{}, 1)
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
					continue
				}
				Logger.Debugf("Change in %s: %s", dir, ev)
				select {
				case wake <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				Logger.Warnf("Watcher error on %s: %v", dir, err)
			}
		}
	}()
	return wake, func() { w.Close() }, nil
}

func printPass(cmd *cobra.Command, res *workflows.PassResult) {
	for _, f := range res.Files {
		line := ui.Outcome(f.Outcome) + " " + ui.Path.Sprint(f.Name)
		if f.Reason != "" {
			line += " " + ui.Muted.Sprint(f.Reason)
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
}

func init() {
	for _, c := range []*cobra.Command{autoSignCmd, autoVerifyCmd} {
		c.Flags().BoolVar(&runOnce, "once", false, "run a single pass and exit")
		c.Flags().BoolVar(&watchFolder, "watch", false, "react to folder changes instead of waiting for the next poll")
		c.Flags().DurationVar(&pollInterval, "interval", defaultInterval, "time between passes")
		c.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file after each pass")
	}
}

func resetAutoState() {
	runOnce = false
	watchFolder = false
	pollInterval = defaultInterval
	metricsTextfile = ""
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/amidaware/schedctl/console/config"
	"github.com/amidaware/schedctl/console/guard"
	"github.com/amidaware/schedctl/console/metrics"
	"github.com/amidaware/schedctl/console/render"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var watchCmd = guard.Annotate(&cobra.Command{
	Use:   "watch",
	Short: "Live view of tasks and scripts",
	Long: `Keep a live view of tasks and scripts open. Tasks are refetched on the
refresh interval. Type a command and press enter:

  0, 5, 10, 30   set the refresh interval in seconds, 0 turns it off
  r              refetch tasks and scripts now
  q              quit`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}, guard.Dashboard)

func init() {
	watchCmd.Flags().Duration("interval", 0, "Refresh interval: 0s, 5s, 10s or 30s (default from config)")
	watchCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
	rootCmd.AddCommand(watchCmd)
}

func readCommands(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			ch <- strings.TrimSpace(scanner.Text())
		}
	}()
	return ch
}

func draw(w io.Writer) {
	st := cons.Dashboard.State()
	now := time.Now()
	interval := "off"
	if i := cons.Poller.Interval(); i > 0 {
		interval = i.String()
	}

	fmt.Fprint(w, "\033[H\033[2J")
	fmt.Fprintf(w, "schedctl %s | %s | user %s | refresh %s\n\n", version, cons.Config.BaseURL(), cons.Session.User().Username, interval)

	fmt.Fprintf(w, "Tasks (%s)\n", st.TasksPhase)
	render.Tasks(w, st.Tasks, now)
	fmt.Fprintf(w, "\nScripts (%s)\n", st.ScriptsPhase)
	render.Scripts(w, st.Scripts, now)

	if toasts := cons.Notifier.Active(); len(toasts) > 0 {
		fmt.Fprintln(w)
		render.Toasts(w, toasts)
	}
	fmt.Fprint(w, "\n[0|5|10|30] interval  [r] refresh  [q] quit > ")
}

func watchConfig(ctx context.Context, changes chan<- time.Duration) {
	v := cons.Viper
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if ctx.Err() != nil {
			return
		}
		cfg, err := config.Decode(v)
		if err != nil {
			log.Errorln("ignoring config change:", err)
			return
		}
		if cfg.RefreshInterval == cons.Poller.Interval() {
			return
		}
		select {
		case changes <- cfg.RefreshInterval:
		case <-ctx.Done():
			return
		}
		cons.Notifier.Info(fmt.Sprintf("refresh interval set to %s by %s", cfg.RefreshInterval, e.Name))
	})
	v.WatchConfig()
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	interval := cons.Config.RefreshInterval
	if cmd.Flags().Changed("interval") {
		interval, _ = cmd.Flags().GetDuration("interval")
	}
	if !config.ValidInterval(interval) {
		return fmt.Errorf("%s: %w", interval, config.ErrInvalidInterval)
	}

	addr := cons.Config.MetricsAddr
	if cmd.Flags().Changed("metrics-addr") {
		addr, _ = cmd.Flags().GetString("metrics-addr")
	}
	if addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr); err != nil {
				log.Errorln("metrics:", err)
			}
		}()
	}

	redraw := make(chan struct{}, 1)
	kick := func() {
		select {
		case redraw <- struct{}{}:
		default:
		}
	}
	cons.Dashboard.OnChange(kick)
	cons.Notifier.OnChange(kick)

	// interval changes are applied one at a time, in the order they came in
	changes := make(chan time.Duration, 8)
	watchConfig(ctx, changes)
	go func() {
		if err := cons.Poller.Start(ctx, interval); err != nil {
			log.Errorln(err)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case d := <-changes:
				if err := cons.Poller.SetInterval(d); err != nil {
					log.Errorln(err)
				}
			}
		}
	}()
	defer cons.Poller.Stop()

	out := cmd.OutOrStdout()
	commands := readCommands(cmd.InOrStdin())
	draw(out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-redraw:
			draw(out)
		case line, ok := <-commands:
			if !ok {
				// stdin closed, keep watching until interrupted
				commands = nil
				continue
			}
			if quit := handleCommand(ctx, line, changes); quit {
				fmt.Fprintln(out)
				return nil
			}
		}
	}
}

func handleCommand(ctx context.Context, line string, changes chan<- time.Duration) bool {
	switch line {
	case "":
		return false
	case "q", "quit":
		return true
	case "r":
		go cons.Dashboard.Refresh(ctx)
		return false
	}

	secs, err := strconv.Atoi(line)
	if err != nil {
		cons.Notifier.Error(fmt.Sprintf("unknown command %q", line))
		return false
	}
	interval := time.Duration(secs) * time.Second
	if !config.ValidInterval(interval) {
		cons.Notifier.Error(config.ErrInvalidInterval.Error())
		return false
	}
	select {
	case changes <- interval:
	case <-ctx.Done():
	}
	return false
}

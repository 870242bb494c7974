// Package cli wires flags and configuration into a monitoring run.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"tmux-monitor/internal/config"
	"tmux-monitor/internal/output"
	"tmux-monitor/internal/util"
)

var (
	cfgFile string

	flagOneTime     bool
	flagStartTime   string
	flagInstruction string
	flagClear       bool
	flagClearAll    bool
	flagKillAll     bool
	flagStartAgent  bool
	flagJSON        bool
	flagSession     string
	flagRemote      string
	flagInterval    string
	flagMaxRuntime  string

	// Build information, set via ldflags.
	Version = "dev"
	Commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "tmux-monitor",
	Short: "Supervise AI agent panes in a tmux session",
	Long: `tmux-monitor watches the panes of a tmux session on a fixed cadence.
It names panes by position, compares consecutive captures to tell working
panes from idle ones, clears idle worker panes with a verified /clear
protocol, and reports each cycle's findings into the active pane.

Examples:
  tmux-monitor                          # monitor the current session
  tmux-monitor -o                       # one monitoring cycle, then exit
  tmux-monitor -t 22:30 -i plan.md      # start at 22:30, send plan.md first
  tmux-monitor --clear-all              # force-clear every worker pane`,
	Version:       Version + " (" + Commit + ")",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildOptions()
		if err != nil {
			return err
		}
		return runMonitor(cmd.Context(), opts)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVarP(&flagOneTime, "onetime", "o", false, "run a single monitoring cycle and exit")
	flags.StringVarP(&flagStartTime, "time", "t", "", "delay the start until HH:MM")
	flags.StringVarP(&flagInstruction, "instruction", "i", "", "file whose contents are sent to the main pane, resent on change")
	flags.BoolVar(&flagClear, "clear", false, "clear eligible worker panes once and exit")
	flags.BoolVar(&flagClearAll, "clear-all", false, "force-clear every worker pane, escalating to a hard reset")
	flags.BoolVar(&flagKillAll, "kill-all-panes", false, "kill every pane except the active one and exit")
	flags.BoolVar(&flagStartAgent, "start-claude", false, "launch the agent in panes sitting at a bare shell")
	flags.BoolVar(&flagJSON, "json", false, "stream events as JSON lines on stdout")
	flags.StringVarP(&flagSession, "session", "s", "", "tmux session to monitor (default: current)")
	flags.StringVar(&flagRemote, "remote", "", "run tmux on a remote host over ssh (user@host)")
	flags.StringVar(&flagInterval, "interval", "", "cycle interval, e.g. 30s or 2m")
	flags.StringVar(&flagMaxRuntime, "max-runtime", "", "runtime cap, e.g. 4h")
	flags.StringVar(&cfgFile, "config", "", "config file (default: user config dir)")
}

// buildOptions layers flags over the loaded configuration.
func buildOptions() (config.Options, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Options{}, err
	}
	opts, err := config.OptionsFrom(cfg)
	if err != nil {
		return config.Options{}, err
	}

	if flagSession != "" {
		opts.Session = flagSession
	}
	opts.Remote = flagRemote
	opts.InstructionFile = flagInstruction
	opts.ClearAllPanes = flagClearAll
	opts.KillAllPanes = flagKillAll
	opts.StartInteractive = flagStartAgent
	opts.JSONStream = flagJSON

	// Administrative actions and --clear imply a single pass.
	opts.Continuous = !flagOneTime && !flagClear && !opts.IsAdminAction()

	if flagStartTime != "" {
		start, err := util.ParseClockTime(flagStartTime, time.Now())
		if err != nil {
			return config.Options{}, err
		}
		opts.ScheduledStart = &start
	}
	if flagInterval != "" {
		d, err := util.ParseDuration(flagInterval)
		if err != nil {
			return config.Options{}, err
		}
		opts.CycleInterval = d
	}
	if flagMaxRuntime != "" {
		d, err := util.ParseDuration(flagMaxRuntime)
		if err != nil {
			return config.Options{}, err
		}
		opts.MaxRuntime = d
	}
	return opts, nil
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		cliErr, ok := err.(*output.CLIError)
		if !ok {
			cliErr = output.NewCLIError(err.Error())
		}
		output.PrintCLIError(cliErr)
		return 1
	}
	return 0
}

// Command preset-switch reads a two-position selector and sends the matching
// MIDI program change to a host, blinking an LED to show the active preset.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sweeney/preset-switch/internal/config"
	"github.com/sweeney/preset-switch/internal/gpio"
	"github.com/sweeney/preset-switch/internal/midi"
	"github.com/sweeney/preset-switch/internal/rtmidi"
)

var (
	configPath string
	debug      bool

	mainCmd = &cobra.Command{
		Use:               "preset-switch",
		Short:             "Preset selector to MIDI program change bridge",
		PersistentPreRun:  setupLogging,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the control loop until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runDaemon,
	}
	stateCmd = &cobra.Command{
		Use:   "state",
		Short: "Print the selector level and exit",
		Args:  cobra.NoArgs,
		RunE:  runState,
	}
	portsCmd = &cobra.Command{
		Use:   "ports",
		Short: "List MIDI output ports",
		Args:  cobra.NoArgs,
		RunE:  runPorts,
	}
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the default configuration file",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), config.File)
		},
	}
)

func init() {
	mainCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config path. The path to the configuration file")
	mainCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	mainCmd.AddCommand(runCmd, stateCmd, portsCmd, configCmd)
}

func main() {
	if err := mainCmd.Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func setupLogging(cmd *cobra.Command, args []string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if debug {
		log.SetLevel(log.DebugLevel)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	return run(cfg)
}

func runState(cmd *cobra.Command, args []string) error {
	input, err := gpio.NewRealReader(gpio.PinInput)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer input.Close()

	level, err := input.Read()
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), stateLine(level))
	return nil
}

// stateLine describes a raw selector level and the preset it settles to.
func stateLine(level bool) string {
	if level {
		return fmt.Sprintf("GPIO%d: HIGH, preset: A", gpio.PinInput)
	}
	return fmt.Sprintf("GPIO%d: LOW, preset: B", gpio.PinInput)
}

func runPorts(cmd *cobra.Command, args []string) error {
	drv, err := rtmidi.Open()
	if err != nil {
		return err
	}
	defer drv.Close()

	names, err := midi.ListOutputs(drv)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "no MIDI output ports")
		return nil
	}
	for i, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", i, name)
	}
	return nil
}

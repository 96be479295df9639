package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.bug.st/serial"
	"i4.energy/across/esp01ctl/esp01"
)

// app carries what every subcommand needs once flags have been parsed.
type app struct {
	config *Config
	logger *slog.Logger
}

func (a *app) open(ctx context.Context) (*esp01.Device, error) {
	config, err := esp01.NewConfigBuilder().
		WithDialer(esp01.SerialDialer{
			PortName: a.config.SerialPort,
			Mode: &serial.Mode{
				BaudRate: a.config.BaudRate,
				DataBits: 8,
				Parity:   serial.NoParity,
				StopBits: serial.OneStopBit,
			},
			ReadTimeout: a.config.ReadTimeout,
		}).
		WithLogger(a.logger.With("component", "esp01", "port", a.config.SerialPort)).
		Build()
	if err != nil {
		return nil, err
	}
	return esp01.New(ctx, config)
}

func persistFlag(save bool) esp01.Persist {
	if save {
		return esp01.SaveInFlash
	}
	return esp01.DontSave
}

func queryFlag(flash bool) esp01.QueryMode {
	if flash {
		return esp01.SavedInFlash
	}
	return esp01.Current
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "esp01ctl",
		Short:        "Drive an ESP-01 Wi-Fi module over its AT command port",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = os.Getenv("ESP01_CONFIG")
			}
			config, err := LoadConfig(WithDefaults(), WithFile(path), WithEnv(), WithFlags(cmd.Flags()))
			if err != nil {
				return err
			}
			a.config = config
			a.logger = newLogger(config.LogLevel)
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "INI configuration file")
	root.PersistentFlags().String("serial-port", "/dev/ttyUSB0", "Serial port the module is attached to")
	root.PersistentFlags().Int("baud-rate", esp01.DefaultBaudRate, "Baud rate for serial communication")
	root.PersistentFlags().Duration("read-timeout", esp01.DefaultReadTimeout, "Timeout of a single serial read")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newVersionCmd(a),
		newModeCmd(a),
		newMACCmd(a),
		newJoinCmd(a),
		newPortsCmd(),
		newServeCmd(a),
	)
	return root
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the module firmware version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			info, err := d.FirmwareInfo()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "AT version:   %s\n", info.ATVersion)
			fmt.Fprintf(out, "SDK version:  %s\n", info.SDKVersion)
			if info.CompileTime != "" {
				fmt.Fprintf(out, "Compile time: %s\n", info.CompileTime)
			}
			if info.BinVersion != "" {
				fmt.Fprintf(out, "Bin version:  %s\n", info.BinVersion)
			}
			for _, line := range info.Extra {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func newModeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mode",
		Short: "Read or set the Wi-Fi mode",
	}

	var flash bool
	get := &cobra.Command{
		Use:   "get",
		Short: "Print the Wi-Fi mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			mode, err := d.Mode(queryFlag(flash))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mode)
			return nil
		},
	}
	get.Flags().BoolVar(&flash, "flash", false, "read the value saved in flash")

	var save bool
	set := &cobra.Command{
		Use:       "set station|softap|station+softap",
		Short:     "Set the Wi-Fi mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"station", "softap", "station+softap"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := esp01.ParseMode(args[0])
			if err != nil {
				return err
			}
			d, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			st, err := d.SetMode(mode, persistFlag(save))
			if err != nil {
				d.Close()
				return err
			}
			return st.Close()
		},
	}
	set.Flags().BoolVar(&save, "save", false, "save the setting in flash")

	cmd.AddCommand(get, set)
	return cmd
}

func newMACCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mac",
		Short: "Read or set the station MAC address",
	}

	var flash bool
	get := &cobra.Command{
		Use:   "get",
		Short: "Print the station MAC address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			mac, err := d.StationMAC(queryFlag(flash))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", mac)
			return nil
		},
	}
	get.Flags().BoolVar(&flash, "flash", false, "read the value saved in flash")

	var save bool
	set := &cobra.Command{
		Use:   "set MAC",
		Short: "Set the station MAC address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			_, err = d.SetStationMAC(args[0], persistFlag(save))
			return err
		},
	}
	set.Flags().BoolVar(&save, "save", false, "save the setting in flash")

	cmd.AddCommand(get, set)
	return cmd
}

func newJoinCmd(a *app) *cobra.Command {
	var (
		save        bool
		autoconnect bool
	)
	cmd := &cobra.Command{
		Use:   "join SSID PASSWORD",
		Short: "Switch to station mode and join an access point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			var cur esp01.Module = d
			defer func() { cur.Close() }()

			st, err := d.SetMode(esp01.ModeStation, persistFlag(save))
			if err != nil {
				return err
			}
			cur = st

			cs, err := st.ConnectAP(args[0], args[1], persistFlag(save))
			if err != nil {
				return err
			}
			cur = cs
			a.logger.Info("Joined access point", "ssid", args[0])

			if cmd.Flags().Changed("autoconnect") {
				return cs.SetAutoConnect(autoconnect)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "save mode and access point in flash")
	cmd.Flags().BoolVar(&autoconnect, "autoconnect", false, "join the saved access point on power up")
	return cmd
}

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports, flagging common ESP-01 USB adapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPorts(cmd.OutOrStdout())
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the module over an HTTP JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), a)
		},
	}
	cmd.Flags().String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	logger := a.logger

	d, err := a.open(ctx)
	if err != nil {
		logger.Error("Failed to open module", "error", err)
		return err
	}
	session := esp01.NewSession(d)

	logger.Info("Starting ESP-01 daemon", "port", a.config.SerialPort, "state", session.State())

	httpServer := &http.Server{
		Addr: a.config.BindAddress,
		Handler: &Server{
			Logger:  logger.With("component", "server"),
			Session: session,
		},
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", "signal", sig)
	case err := <-serveErr:
		logger.Error("HTTP server failed", "error", err)
		session.Close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Closing HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to gracefully shutdown server", "error", err)
	}

	logger.Info("Closing module connection")
	if err := session.Close(); err != nil {
		logger.Error("Failed to close module", "error", err)
		return err
	}
	return nil
}

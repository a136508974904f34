package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/internal/demo"
	"github.com/phanxgames/canopy/save"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the demo scene headless",
	Long: `Runs the demo scene without a window. With --script the scene is driven
by a tick script; otherwise it ticks in real time until interrupted or until
--frames ticks have run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("metrics-addr") {
			cfg.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
		}
		frames, _ := cmd.Flags().GetInt("frames")
		hz, _ := cmd.Flags().GetFloat64("hz")
		scriptPath, _ := cmd.Flags().GetString("script")
		saveDir, _ := cmd.Flags().GetString("save-dir")
		slot, _ := cmd.Flags().GetInt("slot")

		logger, err := newLogger(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var opts []canopy.Option
		if cfg.MetricsAddr != "" {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			m, err := canopy.NewMetrics(reg)
			if err != nil {
				return err
			}
			opts = append(opts, canopy.WithMetrics(m))
			srv := serveMetrics(cfg.MetricsAddr, reg)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
			logger.Info("serving metrics", "event", "cli.metrics", "addr", cfg.MetricsAddr)
		}

		d, err := demo.New(cfg, logger, nil, opts...)
		if err != nil {
			return err
		}
		defer func() { _ = d.Close(context.Background()) }()

		var saves *save.Manager
		if saveDir != "" {
			saves = save.NewManager(logger)
			if err := d.Registry.Register(saves); err != nil {
				return err
			}
			if err := saves.AddDestination("game", save.NewFileStore(saveDir, save.YAML), nil); err != nil {
				return err
			}
			if err := d.RegisterSaves(saves, "game"); err != nil {
				return err
			}
			if err := saves.LoadAll(ctx, slot); err != nil {
				return err
			}
		}

		if scriptPath != "" {
			data, err := os.ReadFile(scriptPath)
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			script, err := canopy.LoadScript(data)
			if err != nil {
				return err
			}
			res, err := script.Run(d.SM, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			logger.Info("script finished", "event", "cli.script", "steps", res.Steps, "ticks", res.Ticks)
		} else if err := canopy.RunHeadless(ctx, d.SM, hz, frames); err != nil {
			return err
		}

		if saves != nil {
			if err := saves.SaveAll(context.WithoutCancel(ctx), slot); err != nil {
				return err
			}
		}
		printStats(cmd, d)
		return nil
	},
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
		}
	}()
	return srv
}

func printStats(cmd *cobra.Command, d *demo.Demo) {
	st := d.SM.Stats()
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "frames=%d nodes=%d systems=%d jumps=%d\n", st.Frames, st.Nodes, st.SystemCount, d.Jumps())
	for _, s := range st.Systems {
		fmt.Fprintf(w, "  %-22s %-12s runs=%-6d avg=%v max=%v\n", s.Name, s.Phase, s.ExecutionCount, s.AvgDuration, s.MaxDuration)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("frames", 600, "Stop after this many ticks (0 runs until interrupted)")
	runCmd.Flags().Float64("hz", 0, "Tick rate (defaults to the physics rate)")
	runCmd.Flags().String("script", "", "Tick script (YAML or JSON) to drive the scene")
	runCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
	runCmd.Flags().String("save-dir", "", "Load the save slot from and write it back to this directory")
	runCmd.Flags().Int("slot", 0, "Save slot")
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zdyb/wmbusdv/internal/config"
	"github.com/zdyb/wmbusdv/internal/publish"
	"github.com/zdyb/wmbusdv/pkg/wmbusdv"
)

var (
	rootCmd = &cobra.Command{
		Use:   "wmbusdv [hex]",
		Short: "Decode Wireless M-Bus telegrams",
		Long:  "wmbusdv decodes Wireless M-Bus telegrams into unit-normalized meter readings.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 0 {
				return runInteractive(ctx)
			}
			return runAnalyze(ctx, args[0])
		},
	}

	publishCmd = &cobra.Command{
		Use:   "publish [hex...]",
		Short: "Decode telegrams and publish the readings over MQTT",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd.Context(), args)
		},
	}

	keyHex     string
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&keyHex, "key", "", "hex-encoded 16-byte AES key (32 hex chars)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config with meter keys and MQTT settings")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print per-record byte offset annotations")
	rootCmd.AddCommand(publishCmd)
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Config{}, nil
	}
	return config.Load(configPath)
}

func analyzeOptions(cfg config.Config, meterKey string) wmbusdv.AnalyzeOptions {
	opts := wmbusdv.AnalyzeOptions{KeyHex: keyHex}
	if opts.KeyHex == "" && meterKey != "" {
		opts.KeyHex = meterKey
	}
	return opts
}

func runInteractive(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	logrus.Info("wmbusdv analyze mode. Paste a hex telegram and press Enter (Ctrl+D to exit).")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runAnalyze(ctx, line); err != nil {
			logrus.WithError(err).Error("failed to decode telegram")
		}
	}
	return scanner.Err()
}

func runAnalyze(ctx context.Context, hex string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	result, err := analyze(ctx, cfg, hex)
	if err != nil {
		return err
	}
	fmt.Println(result.String())
	if verbose {
		for _, e := range result.Explanations {
			fmt.Printf("%04x: %s\n", e.Offset, e.Text)
		}
	}
	return nil
}

func analyze(ctx context.Context, cfg config.Config, hex string) (wmbusdv.Result, error) {
	// First pass without a key resolves the meter id, so the per-meter key
	// from the config can be applied on retry.
	result, err := wmbusdv.AnalyzeHexWithOptions(ctx, hex, analyzeOptions(cfg, ""))
	if err != nil {
		return result, err
	}
	if result.Telegram != nil {
		if meterKey, ok := cfg.KeyFor(result.Telegram.MeterIDString()); ok && keyHex == "" {
			return wmbusdv.AnalyzeHexWithOptions(ctx, hex, analyzeOptions(cfg, meterKey))
		}
	}
	return result, nil
}

func runPublish(ctx context.Context, telegrams []string) error {
	if configPath == "" {
		return fmt.Errorf("publish requires --config with an mqtt section")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	pub, err := publish.Connect(cfg.MQTT)
	if err != nil {
		return err
	}
	defer pub.Close()

	for _, hex := range telegrams {
		result, err := analyze(ctx, cfg, hex)
		if err != nil {
			logrus.WithError(err).Error("failed to decode telegram")
			continue
		}
		meterID := "unknown"
		if result.Telegram != nil {
			meterID = result.Telegram.MeterIDString()
		}
		if err := pub.Publish(result.Driver, meterID, result.Fields); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{"driver": result.Driver, "meter": meterID}).Info("published reading")
	}
	return nil
}

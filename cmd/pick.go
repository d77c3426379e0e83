package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/18999029117-create/weaver/internal/analyzer"
	"github.com/18999029117-create/weaver/internal/browser"
	"github.com/18999029117-create/weaver/internal/observability"
)

// newPickCmd creates and configures the `pick` command: interactive element
// picking on a live page. Each double-clicked input is assembled into a
// PickResult and written to stdout as one JSON line.
func newPickCmd() *cobra.Command {
	pickCmd := &cobra.Command{
		Use:   "pick <url>",
		Short: "Lets the user pick form fields on the live page by double-clicking them",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("browser.remote_url", cmd.Flags().Lookup("remote")); err != nil {
				return err
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			target := normalizeTarget(args[0])
			once := viper.GetBool("once")

			if err := reloadConfig(); err != nil {
				return err
			}

			// Picking needs a visible browser unless the user explicitly
			// attached to a remote one.
			browserCfg := cfg.Browser
			if browserCfg.RemoteURL == "" {
				browserCfg.Headless = false
			}

			session, err := browser.NewSession(ctx, browserCfg, logger)
			if err != nil {
				return fmt.Errorf("failed to start browser session: %w", err)
			}
			defer session.Close()

			if err := session.GuardDialogs(ctx); err != nil {
				logger.Warn("Dialog guard could not be installed", zap.Error(err))
			}
			if err := session.Navigate(ctx, target); err != nil {
				return err
			}
			if err := session.EnsurePickerAssets(ctx); err != nil {
				return err
			}

			doc, err := session.Snapshot(ctx)
			if err != nil {
				return fmt.Errorf("failed to capture snapshot: %w", err)
			}

			engine := analyzer.New(cfg.Heuristics, session.Mirror(), logger)
			engine.SetPickMode(true)
			if err := session.SetPickMode(ctx, true); err != nil {
				return err
			}
			defer func() {
				offCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				engine.SetPickMode(false)
				if err := session.SetPickMode(offCtx, false); err != nil {
					logger.Debug("Could not reset page pick mode", zap.Error(err))
				}
			}()

			pumpCtx, stopPump := context.WithCancel(ctx)
			defer stopPump()
			pumpErr := make(chan error, 1)
			go func() {
				pumpErr <- session.PumpEvents(pumpCtx, doc, engine.Surface())
			}()

			logger.Info("Pick mode active; double-click input fields in the browser. Ctrl-C to stop.")

			ticker := time.NewTicker(cfg.Browser.PickPollInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case err := <-pumpErr:
					if err != nil && !errors.Is(err, context.Canceled) {
						return fmt.Errorf("event relay stopped: %w", err)
					}
					return nil
				case <-ticker.C:
					picked := engine.GetAndClearPickedElement()
					if picked == nil {
						continue
					}
					logger.Info("Element picked",
						zap.String("label", picked.Label.Text),
						zap.Int("siblings", picked.SiblingCount))
					if err := writeJSON("", picked); err != nil {
						return err
					}
					if once {
						return nil
					}
				}
			}
		},
	}

	pickCmd.Flags().Bool("once", false, "Exit after the first successful pick.")
	pickCmd.Flags().String("remote", "", "DevTools endpoint of an already running browser. (Overrides config/env)")

	return pickCmd
}

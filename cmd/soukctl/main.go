package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"souk-backend/bootstrap"
	"souk-backend/internal/application/dataservice"
	"souk-backend/internal/application/mockdata"
	"souk-backend/internal/config"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// openDeps loads the environment config and wires the data layer. The caller must defer Close.
func openDeps(ctx context.Context) (*bootstrap.Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	d, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return d, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "soukctl",
		Short:        "Manage the Souk marketplace data store",
		SilenceUsage: true,
	}
	root.AddCommand(newSeedCmd(), newExportCmd(), newImportCmd(), newClearCmd(), newStatsCmd(), newModeCmd())
	return root
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate demo users, listings, orders, inquiries and activity logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, _ := cmd.Flags().GetString("profile")
			replace, _ := cmd.Flags().GetBool("replace")

			opts := mockdata.DefaultOptions()
			if profile != "" {
				var err error
				if opts, err = mockdata.LoadOptions(profile); err != nil {
					return err
				}
			}

			d, err := openDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			r := d.Service.SeedDemoData(cmd.Context(), opts, replace)
			if !r.Success {
				return fmt.Errorf("seeding: %s", r.Message)
			}
			s := r.Data
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d listings, %d orders, %d inquiries, %d activity logs (replaced: %t)\n",
				s.Users, s.Listings, s.Orders, s.Inquiries, s.ActivityLogs, s.Replaced)
			return nil
		},
	}
	cmd.Flags().StringP("profile", "p", "", "TOML seed profile")
	cmd.Flags().Bool("replace", false, "Replace stored collections instead of prepending")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole application state as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")

			d, err := openDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			data, err := d.State.ExportJSON(cmd.Context())
			if err != nil {
				return fmt.Errorf("exporting state: %w", err)
			}
			if out == "" || out == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "State exported to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringP("out", "o", "", "Output file (stdout when empty)")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load a state file produced by export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			d, err := openDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.State.Import(cmd.Context(), data); err != nil {
				return fmt.Errorf("importing state: %w", err)
			}
			st := d.State.Stats(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d listings, %d users, %d orders, %d inquiries\n",
				st.Listings, st.Users, st.Orders, st.Inquiries)
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every stored collection and setting",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			if !d.State.Clear(cmd.Context()) {
				return fmt.Errorf("clearing state: some keys could not be removed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "State cleared")
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show collection counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(d.State.Stats(cmd.Context()))
		},
	}
}

func newModeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mode",
		Short: "Show or switch the mock data flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			var p dataservice.ModesPatch
			for name, dst := range map[string]**bool{"mock": &p.Mock, "listings": &p.Listings, "users": &p.Users} {
				raw, _ := cmd.Flags().GetString(name)
				if raw == "" {
					continue
				}
				v, err := parseSwitch(raw)
				if err != nil {
					return fmt.Errorf("--%s: %w", name, err)
				}
				*dst = &v
			}

			d, err := openDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			r := d.Service.SetModes(cmd.Context(), p)
			if !r.Success {
				return fmt.Errorf("setting modes: %s", r.Message)
			}
			m := r.Data
			fmt.Fprintf(cmd.OutOrStdout(), "mock=%s listings=%s users=%s remote=%t\n",
				onOff(m.Mock), onOff(m.Listings), onOff(m.Users), m.RemoteConfigured)
			return nil
		},
	}
	cmd.Flags().String("mock", "", "on|off")
	cmd.Flags().String("listings", "", "on|off")
	cmd.Flags().String("users", "", "on|off")
	return cmd
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

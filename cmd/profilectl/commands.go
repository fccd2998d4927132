package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/CueDeck/backend/internal/domain/preferences"
	"github.com/GriffinCanCode/CueDeck/backend/internal/providers/filesystem"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
)

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles, most recently used first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := c.manager().List(commandContext(cmd))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, bold("NAME")+"\t"+bold("LAST USED")+"\t"+bold("DESCRIPTION"))
			for _, p := range profiles {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.LastUsed.Local().Format(time.DateTime), dim(p.Description))
			}
			return tw.Flush()
		},
	}
}

func (c *cli) createCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.manager().Create(commandContext(cmd), args[0], description)
			if err != nil {
				return err
			}
			success(c.out, "Created profile %s", bold(p.Name))
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Profile description")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a profile and its directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.manager().Delete(commandContext(cmd), args[0]); err != nil {
				return err
			}
			success(c.out, "Deleted profile %s", bold(args[0]))
			return nil
		},
	}
}

func (c *cli) duplicateCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "duplicate <source> <name>",
		Short: "Copy a profile under a new name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.manager().Duplicate(commandContext(cmd), args[0], args[1], description)
			if err != nil {
				return err
			}
			success(c.out, "Duplicated %s as %s", args[0], bold(p.Name))
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Description (defaults to the source's)")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Write a profile archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if output == "" {
				output = name + ".tar.zst"
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			manifest, err := c.manager().Export(commandContext(cmd), name, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				_ = os.Remove(output)
				return err
			}
			success(c.out, "Exported %s to %s (%d files)", bold(name), output, len(manifest.Files))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Archive path (default <name>.tar.zst)")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <archive>",
		Short: "Register a profile archive under a new name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.manager().Import(commandContext(cmd), args[0], name)
			if err != nil {
				return err
			}
			success(c.out, "Imported profile %s", bold(p.Name))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Profile name (defaults to the archived name)")
	return cmd
}

func (c *cli) prefsCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "prefs <name>",
		Short: "Show or change a profile's preferences",
		Long: `Show a profile's preferences, or change them with --set key=value.

Values are parsed as booleans or numbers where possible, otherwise kept
as strings. Known keys are type-checked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			mgr := c.manager()
			name := args[0]

			prefs, err := mgr.LoadPreferences(ctx, name)
			if err != nil {
				return err
			}
			if len(sets) == 0 {
				printPrefs(c, prefs)
				return nil
			}

			for _, kv := range sets {
				key, raw, ok := strings.Cut(kv, "=")
				if !ok || strings.TrimSpace(key) == "" {
					return fmt.Errorf("%w: --set expects key=value, got %q", types.ErrValidation, kv)
				}
				key = strings.TrimSpace(key)
				if _, known := preferences.Lookup(key); !known {
					warn(c.errOut, "Unknown preference key %s", key)
				}
				prefs[key] = parseValue(raw)
			}
			if err := preferences.Validate(prefs); err != nil {
				return err
			}
			if err := mgr.SavePreferences(ctx, name, prefs); err != nil {
				return err
			}
			success(c.out, "Updated %d preference(s) of %s", len(sets), bold(name))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set key=value (repeatable)")
	return cmd
}

func printPrefs(c *cli, prefs types.Preferences) {
	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		data, err := filesystem.MarshalJSON(prefs[k])
		if err != nil {
			data = []byte(fmt.Sprint(prefs[k]))
		}
		fmt.Fprintf(tw, "%s\t%s\n", k, strings.TrimSpace(string(data)))
	}
	_ = tw.Flush()
}

func parseValue(raw string) interface{} {
	raw = strings.TrimSpace(raw)
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

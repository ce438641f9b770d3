package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/r3d91ll/tanita/pkg/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the tanita configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(a), newConfigShowCmd(a))
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var stdout bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Long: `Write the default configuration as YAML.

The file goes to path, or to --config, or to ./tanita.yaml. An existing
file is left untouched.`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if stdout {
				data, err := config.Default().Marshal()
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}

			path := a.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = "tanita.yaml"
			}
			written, err := config.InitConfig(path)
			if err != nil {
				return err
			}
			if !written {
				fmt.Fprintf(out, "Config already exists at %s\n", path)
				return nil
			}
			fmt.Fprintf(out, "Config initialized at %s\n", path)
			fmt.Fprintln(out, "Edit input.data_dir and input.system_dir to point at the scale's SD card.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print the default configuration instead of writing it")
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

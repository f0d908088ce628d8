/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/ikasoba/notebox/core"
	"github.com/ikasoba/notebox/templates"
	"github.com/spf13/cobra"
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"tpl"},
	Short:   "Manages note templates.",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists templates, built-ins first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := cmd.Flags().GetString("category")
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var list []*templates.Template
		if category != "" {
			list, err = a.templates.ByCategory(templates.Category(category))
		} else {
			list, err = a.templates.List()
		}
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, t := range list {
			kind := "user"
			if t.IsBuiltIn {
				kind = "built-in"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\tused %d\n", t.ID, t.Name, t.Category, kind, t.UsageCount)
		}
		return tw.Flush()
	},
}

var templateUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Creates a note from a template.",
	Long: `Creates a note from a template. Placeholder values are given with
--set name=value. {{date}}, {{time}} and {{datetime}} default to now.`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplateUse,
}

var templateAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Creates a user template from --content or --file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, _, err := readContent(cmd)
		if err != nil {
			return err
		}
		category, err := cmd.Flags().GetString("category")
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := a.templates.Create(args[0], templates.Category(category), content)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), t.ID)
		return nil
	},
}

var templateDupCmd = &cobra.Command{
	Use:   "dup <id>",
	Short: "Copies a template into a new user template.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := a.templates.Duplicate(args[0])
		if err != nil {
			return err
		}
		if t == nil {
			return core.Errorf(core.KindNotFound, nil, "template %s not found", args[0])
		}

		fmt.Fprintln(cmd.OutOrStdout(), t.ID)
		return nil
	},
}

var templateRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Deletes a user template.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.templates.Delete(args[0])
	},
}

var templateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Replaces the built-in templates with the shipped ones.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		builtIns, err := templates.BuiltIns()
		if err != nil {
			return err
		}

		return a.templates.ReplaceBuiltIns(builtIns)
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateListCmd, templateUseCmd, templateAddCmd, templateDupCmd, templateRmCmd, templateResetCmd)

	templateListCmd.Flags().String("category", "", "Only templates in this category.")

	templateUseCmd.Flags().StringToString("set", nil, "Placeholder value, name=value.")
	templateUseCmd.Flags().String("title", "", "Note title. Derived from the content when blank.")
	templateUseCmd.Flags().String("folder", "", "Folder label.")

	templateAddCmd.Flags().StringP("content", "c", "", "Template content.")
	templateAddCmd.Flags().StringP("file", "f", "", `Read content from a file, "-" for stdin.`)
	templateAddCmd.Flags().String("category", string(templates.CategoryGeneral), "Template category.")
}

// placeholderValues accepts both name=value and {{name}}=value.
func placeholderValues(set map[string]string) map[string]string {
	values := make(map[string]string, len(set))
	for k, v := range set {
		if !strings.HasPrefix(k, "{{") {
			k = "{{" + k + "}}"
		}
		values[k] = v
	}
	return values
}

func runTemplateUse(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	set, err := flags.GetStringToString("set")
	if err != nil {
		return err
	}
	title, _ := flags.GetString("title")
	folder, _ := flags.GetString("folder")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.templates.Get(args[0])
	if err != nil {
		return err
	}
	if t == nil {
		return core.Errorf(core.KindNotFound, nil, "template %s not found", args[0])
	}

	content, err := a.templates.CreateNoteFromTemplate(t.ID, placeholderValues(set))
	if err != nil {
		return err
	}

	n, err := a.notes.Create(title, content, folder)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), n.ID)
	return nil
}

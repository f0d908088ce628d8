/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ikasoba/notebox/core"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Creates a note.",
	Long: `Creates a note. Content comes from --content or --file ("-" reads stdin).
A blank title is derived from the first line of the content.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNew,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists notes.",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Prints a note.",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Replaces the title or content of a note.",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Moves a note to the trash, or deletes it with --purge.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRm,
}

var restoreNoteCmd = &cobra.Command{
	Use:   "untrash <id>",
	Short: "Restores a note from the trash.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNote(cmd, args[0], func(a *app) (*core.Note, error) {
			return a.notes.RestoreFromTrash(args[0])
		})
	},
}

var pinCmd = &cobra.Command{
	Use:   "pin <id>",
	Short: "Toggles the pinned flag of a note.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNote(cmd, args[0], func(a *app) (*core.Note, error) {
			return a.notes.TogglePin(args[0])
		})
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <id> <folder>",
	Short: `Moves a note into a folder. Use "" for no folder.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNote(cmd, args[0], func(a *app) (*core.Note, error) {
			return a.notes.MoveToFolder(args[0], args[1])
		})
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Archives a note, or unarchives it with --undo.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		undo, err := cmd.Flags().GetBool("undo")
		if err != nil {
			return err
		}
		return withNote(cmd, args[0], func(a *app) (*core.Note, error) {
			return a.notes.SetArchived(args[0], !undo)
		})
	},
}

var remindCmd = &cobra.Command{
	Use:   "remind <id> <time|clear>",
	Short: "Sets or clears the reminder of a note. Time is RFC 3339.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var at *time.Time
		if args[1] != "clear" {
			t, err := time.Parse(time.RFC3339, args[1])
			if err != nil {
				return core.Errorf(core.KindMalformed, err, "parse reminder time")
			}
			at = &t
		}
		return withNote(cmd, args[0], func(a *app) (*core.Note, error) {
			return a.notes.SetReminder(args[0], at)
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Searches titles and contents.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Lists tags and the number of notes carrying them.",
	Args:  cobra.NoArgs,
	RunE:  runTags,
}

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "Lists folders in use.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		folders, err := a.notes.Folders()
		if err != nil {
			return err
		}
		for _, f := range folders {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd, listCmd, showCmd, editCmd, rmCmd, restoreNoteCmd,
		pinCmd, mvCmd, archiveCmd, remindCmd, searchCmd, tagsCmd, foldersCmd)

	newCmd.Flags().StringP("content", "c", "", "Note content.")
	newCmd.Flags().StringP("file", "f", "", `Read content from a file, "-" for stdin.`)
	newCmd.Flags().String("folder", "", "Folder label.")

	listCmd.Flags().String("folder", "", "Only notes in this folder.")
	listCmd.Flags().String("tag", "", "Only notes with this tag.")
	listCmd.Flags().String("tags", "", "Tag query, e.g. `work & urgent | home`.")
	listCmd.Flags().Bool("pinned", false, "Only pinned notes.")
	listCmd.Flags().Bool("archived", false, "List archived notes.")
	listCmd.Flags().Bool("trash", false, "List notes in the trash.")
	listCmd.Flags().BoolP("watch", "w", false, "Keep printing the list as it changes.")
	listCmd.Flags().Duration("interval", time.Second, "How often --watch checks for changes.")

	showCmd.Flags().Bool("raw", false, "Dump every field.")

	editCmd.Flags().StringP("title", "t", "", "New title.")
	editCmd.Flags().StringP("content", "c", "", "New content.")
	editCmd.Flags().StringP("file", "f", "", `Read content from a file, "-" for stdin.`)

	rmCmd.Flags().Bool("purge", false, "Delete permanently.")

	archiveCmd.Flags().Bool("undo", false, "Unarchive instead.")

	searchCmd.Flags().BoolP("watch", "w", false, "Keep printing results as notes change.")
	searchCmd.Flags().Duration("interval", time.Second, "How often --watch checks for changes.")

	tagsCmd.Flags().String("seek", "", "Continue after this tag.")
	tagsCmd.Flags().Int("limit", 0, "Maximum number of tags, 0 for all.")
}

// readContent picks --content, or --file when given.
func readContent(cmd *cobra.Command) (string, bool, error) {
	flags := cmd.Flags()

	if file, _ := flags.GetString("file"); file != "" {
		var r io.Reader = cmd.InOrStdin()
		if file != "-" {
			f, err := os.Open(file)
			if err != nil {
				return "", false, err
			}
			defer f.Close()
			r = f
		}

		data, err := io.ReadAll(r)
		if err != nil {
			return "", false, err
		}
		return string(data), true, nil
	}

	if flags.Changed("content") {
		content, err := flags.GetString("content")
		return content, true, err
	}

	return "", false, nil
}

func runNew(cmd *cobra.Command, args []string) error {
	content, _, err := readContent(cmd)
	if err != nil {
		return err
	}

	folder, err := cmd.Flags().GetString("folder")
	if err != nil {
		return err
	}

	title := ""
	if len(args) > 0 {
		title = args[0]
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.notes.Create(title, content, folder)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), n.ID)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	folder, _ := flags.GetString("folder")
	tag, _ := flags.GetString("tag")
	tagQuery, _ := flags.GetString("tags")
	pinned, _ := flags.GetBool("pinned")
	archived, _ := flags.GetBool("archived")
	trash, _ := flags.GetBool("trash")

	var q func(*core.Notes) ([]*core.Note, error)
	switch {
	case trash:
		q = (*core.Notes).Trash
	case archived:
		q = (*core.Notes).Archived
	case pinned:
		q = (*core.Notes).Pinned
	case folder != "":
		q = func(r *core.Notes) ([]*core.Note, error) { return r.ByFolder(folder) }
	case tag != "":
		q = func(r *core.Notes) ([]*core.Note, error) { return r.ByTag(strings.TrimPrefix(tag, "#")) }
	case tagQuery != "":
		query := parseTagQuery(tagQuery)
		if len(query) == 0 {
			return core.Errorf(core.KindMalformed, nil, "tag query must contain at least one tag")
		}
		q = func(r *core.Notes) ([]*core.Note, error) { return r.FilterByTags(query) }
	default:
		q = (*core.Notes).All
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return printQuery(cmd, a, q)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return printQuery(cmd, a, func(r *core.Notes) ([]*core.Note, error) {
		return r.Search(args[0])
	})
}

// printQuery prints q once, or with --watch keeps printing it as the
// database changes, including writes made by other processes.
func printQuery(cmd *cobra.Command, a *app, q func(*core.Notes) ([]*core.Note, error)) error {
	flags := cmd.Flags()
	w := cmd.OutOrStdout()

	watch, err := flags.GetBool("watch")
	if err != nil {
		return err
	}

	if !watch {
		notes, err := q(a.notes)
		if err != nil {
			return err
		}
		return printNotes(w, notes)
	}

	every, err := flags.GetDuration("interval")
	if err != nil {
		return err
	}
	if every <= 0 {
		return core.Errorf(core.KindMalformed, nil, "interval must be positive")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a.releaseStore()

	for notes := range core.Poll(ctx, a.home, every, q, core.WithLogger(a.log)) {
		fmt.Fprintf(w, "--- %s (%d notes)\n", time.Now().Format(time.TimeOnly), len(notes))
		if err := printNotes(w, notes); err != nil {
			return err
		}
	}

	return nil
}

func printNotes(w io.Writer, notes []*core.Note) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for _, n := range notes {
		mark := " "
		if n.IsPinned {
			mark = "*"
		}

		tags := make([]string, len(n.Tags))
		for i, t := range n.Tags {
			tags[i] = "#" + t
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			n.ID, mark, n.Title, n.Folder, strings.Join(tags, " "))
	}

	return tw.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	raw, err := cmd.Flags().GetBool("raw")
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.resolve(args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	if raw {
		_, err := pp.Fprintln(w, n)
		return err
	}

	fmt.Fprintf(w, "# %s\n\n%s\n", n.Title, n.Content)
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	content, hasContent, err := readContent(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	title, err := flags.GetString("title")
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.resolve(args[0])
	if err != nil {
		return err
	}

	if flags.Changed("title") {
		n.Title = title
	}
	if hasContent {
		n.Content = content
	}

	if err := a.notes.Update(n); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), n.ID)
	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	purge, err := cmd.Flags().GetBool("purge")
	if err != nil {
		return err
	}

	if !purge {
		return withNote(cmd, args[0], func(a *app) (*core.Note, error) {
			return a.notes.MoveToTrash(args[0])
		})
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.notes.DeleteByID(args[0])
}

// withNote runs a single-note mutation and prints the result.
func withNote(cmd *cobra.Command, id string, fn func(a *app) (*core.Note, error)) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := fn(a)
	if err != nil {
		return err
	}
	if n == nil {
		return core.Errorf(core.KindNotFound, nil, "note %s not found", id)
	}

	return printNotes(cmd.OutOrStdout(), []*core.Note{n})
}

func runTags(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	seek, _ := flags.GetString("seek")
	limit, _ := flags.GetInt("limit")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, last, err := a.store.TagsStats(seek, limit)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	w := cmd.OutOrStdout()
	for _, name := range names {
		fmt.Fprintf(w, "#%s\t%d\n", name, stats[name])
	}
	if limit > 0 && len(stats) == limit {
		fmt.Fprintf(w, "# next: --seek %s\n", last)
	}

	return nil
}

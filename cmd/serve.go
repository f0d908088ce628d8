/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ikasoba/notebox/assist"
	"github.com/ikasoba/notebox/core"
	"github.com/ikasoba/notebox/export"
	"github.com/ikasoba/notebox/schedule"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts as an MCP server.",
	Long: `Starts as an MCP server on stdio. While serving, a backup is written
every backup.interval when the machine is online and not low on battery.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("battery-threshold", 20, "Skip scheduled backups below this battery percentage.")
}

func runServe(cmd *cobra.Command, args []string) error {
	threshold, err := cmd.Flags().GetInt("battery-threshold")
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	n := NoteboxMCP{app: a}

	s := server.NewMCPServer(
		"Notebox",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	{
		tool := mcp.NewTool("read_note",
			mcp.WithDescription("Retrieve a note as markdown with YAML frontmatter."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Id of the note."),
			),
		)

		s.AddTool(tool, n.readHandler)
	}

	{
		tool := mcp.NewTool("create_note",
			mcp.WithDescription(`Create a note. Hashtags such as `+"`#work`"+` in the content become the note's tags.
When the title is omitted it is taken from the first line of the content.`),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("Contents of the note. Markdown or HTML.")),
			mcp.WithString("title",
				mcp.Description("Title of the note.")),
			mcp.WithString("folder",
				mcp.Description("Folder label.")),
		)

		s.AddTool(tool, n.createHandler)
	}

	{
		tool := mcp.NewTool("update_note",
			mcp.WithDescription("Replace the content, and optionally the title, of an existing note."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Id of the note.")),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("New contents of the note.")),
			mcp.WithString("title",
				mcp.Description("New title. The current title is kept when omitted.")),
		)

		s.AddTool(tool, n.updateHandler)
	}

	{
		tool := mcp.NewTool("delete_note",
			mcp.WithDescription("Move a note to the trash."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Id of the note.")),
		)

		s.AddTool(tool, n.deleteHandler)
	}

	{
		tool := mcp.NewTool("search_notes",
			mcp.WithDescription("Case-insensitive search over titles and contents of notes that are not archived or in the trash."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Text to look for.")),
		)

		s.AddTool(tool, n.searchHandler)
	}

	{
		tool := mcp.NewTool("search_notes_by_tags",
			mcp.WithDescription(`Searches for tagged notes.

In query, you can use the `+"`|`"+` operator for OR conditions and the `+"`&`"+` operator for AND conditions.

The precedence of operators is as follows. Note that `+"`AND > OR`"+`, parentheses, etc. cannot be used.
And the query must contain at least one tag.`),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Tag query, e.g. `work & urgent | home`."),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of notes to list."),
				mcp.DefaultNumber(100),
			),
		)

		s.AddTool(tool, n.searchNoteByTagsHandler)
	}

	{
		tool := mcp.NewTool("get_tags_stats",
			mcp.WithDescription("Lists tags and the number of notes associated with those tags."),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of items to list."),
				mcp.DefaultNumber(0),
			),
			mcp.WithString("last_seek_position",
				mcp.Description("Seek position of previous search results, to continue from the full open search results you must enter the string `last_seek_position` returned from the previous output."),
			),
		)

		s.AddTool(tool, n.getTagsStatsHandler)
	}

	{
		tool := mcp.NewTool("toggle_pin",
			mcp.WithDescription("Pin or unpin a note. Pinned notes are listed first."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Id of the note.")),
		)

		s.AddTool(tool, n.togglePinHandler)
	}

	{
		tool := mcp.NewTool("move_to_folder",
			mcp.WithDescription("Move a note into a folder. An empty folder removes it from any folder."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Id of the note.")),
			mcp.WithString("folder",
				mcp.Description("Folder label.")),
		)

		s.AddTool(tool, n.moveToFolderHandler)
	}

	{
		tool := mcp.NewTool("list_templates",
			mcp.WithDescription("Lists note templates with their placeholders."),
		)

		s.AddTool(tool, n.listTemplatesHandler)
	}

	{
		tool := mcp.NewTool("create_from_template",
			mcp.WithDescription(`Create a note from a template.
Placeholders such as `+"`{{date}}`"+` are replaced with the given values. `+"`{{date}}`, `{{time}}` and `{{datetime}}`"+` default to now, anything else to an empty string.`),
			mcp.WithString("template_id",
				mcp.Required(),
				mcp.Description("Id of the template.")),
			mcp.WithString("values",
				mcp.Description(`JSON object of placeholder values, e.g. {"{{topic}}": "Budget"}.`)),
		)

		s.AddTool(tool, n.createFromTemplateHandler)
	}

	{
		tool := mcp.NewTool("suggest_tags",
			mcp.WithDescription("Suggest tags for a note that it does not carry yet."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Id of the note.")),
		)

		s.AddTool(tool, n.suggestTagsHandler)
	}

	{
		tool := mcp.NewTool("summarize",
			mcp.WithDescription("Summarize a note by picking its highest scoring sentences."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Id of the note.")),
			mcp.WithNumber("max_length",
				mcp.Description("Maximum summary length in characters."),
				mcp.DefaultNumber(200),
			),
		)

		s.AddTool(tool, n.summarizeHandler)
	}

	{
		tool := mcp.NewTool("backup",
			mcp.WithDescription("Write a JSON backup of every note and return its path."),
		)

		s.AddTool(tool, n.backupHandler)
	}

	{
		tool := mcp.NewTool("restore",
			mcp.WithDescription("Replace every note with the contents of a backup file."),
			mcp.WithString("path",
				mcp.Required(),
				mcp.Description("Path of the backup file.")),
		)

		s.AddTool(tool, n.restoreHandler)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	scheduler := schedule.New(a.log, n.backupWork(threshold))
	go func() {
		if err := scheduler.Run(ctx); err != nil {
			a.log.Error().Err(err).Msg("scheduler stopped")
		}
	}()

	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

type NoteboxMCP struct {
	app *app
}

func (n *NoteboxMCP) backupWork(batteryThreshold int) schedule.Work {
	return schedule.Work{
		Name:        "backup",
		Interval:    n.app.conf.Backup.Interval,
		Constraints: []schedule.Constraint{schedule.NetworkAvailable(), schedule.BatteryNotLow(batteryThreshold)},
		Run: func(ctx context.Context) error {
			path, err := n.app.backups.CreateLocalBackup(ctx)
			if err != nil {
				return err
			}
			n.app.log.Info().Str("path", path).Msg("scheduled backup written")

			_, err = n.app.backups.Prune(n.app.conf.Backup.Keep)
			return err
		},
	}
}

func (n *NoteboxMCP) note(req mcp.CallToolRequest) (*core.Note, error) {
	return n.app.resolve(req.GetString("id", ""))
}

func formatNotes(title string, notes []*core.Note) string {
	result := fmt.Sprintf("# %s (results: %d)\n", title, len(notes))

	for _, note := range notes {
		tags := ""
		for _, t := range note.Tags {
			tags += " #" + t
		}
		result += fmt.Sprintf("- `%s` %s%s\n", note.ID, note.Title, tags)
	}

	return result
}

func (n *NoteboxMCP) readHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note, err := n.note(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var buf bytes.Buffer

	if err := export.Markdown(&buf, note); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(buf.String()), nil
}

func (n *NoteboxMCP) createHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	content := req.GetString("content", "")
	folder := req.GetString("folder", "")

	note, err := n.app.notes.Create(title, content, folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Note `%s` has been saved as %q.", note.ID, note.Title)), nil
}

func (n *NoteboxMCP) updateHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note, err := n.note(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	note.Content = req.GetString("content", note.Content)
	if title := req.GetString("title", ""); title != "" {
		note.Title = title
	}

	if err := n.app.notes.Update(note); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Note has been saved."), nil
}

func (n *NoteboxMCP) deleteHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note, err := n.app.notes.MoveToTrash(req.GetString("id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if note == nil {
		return mcp.NewToolResultError("note not found"), nil
	}

	return mcp.NewToolResultText("Note has been moved to the trash."), nil
}

func (n *NoteboxMCP) searchHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := n.app.notes.Search(req.GetString("query", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatNotes("notes", notes)), nil
}

func (n *NoteboxMCP) searchNoteByTagsHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := parseTagQuery(req.GetString("query", ""))
	limit := req.GetInt("limit", 100)

	if len(query) == 0 {
		return mcp.NewToolResultError("the query must contain at least one tag"), nil
	}

	notes, err := n.app.notes.FilterByTags(query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
	}

	return mcp.NewToolResultText(formatNotes("notes", notes)), nil
}

func (n *NoteboxMCP) getTagsStatsHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 100)
	lastSeekPosition := req.GetString("last_seek_position", "")

	stats, lastSeekPosition, err := n.app.store.TagsStats(lastSeekPosition, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf(
		"# last seek position\n```plain\n%s\n```\n\n# stats (limit: %d) (results: %d)\n", lastSeekPosition, limit, len(stats),
	)

	for name, count := range stats {
		result += fmt.Sprintf("- `%s`: %d\n", name, count)
	}

	return mcp.NewToolResultText(result), nil
}

func (n *NoteboxMCP) togglePinHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note, err := n.app.notes.TogglePin(req.GetString("id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if note == nil {
		return mcp.NewToolResultError("note not found"), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("pinned: %t", note.IsPinned)), nil
}

func (n *NoteboxMCP) moveToFolderHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note, err := n.app.notes.MoveToFolder(req.GetString("id", ""), req.GetString("folder", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if note == nil {
		return mcp.NewToolResultError("note not found"), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Note has been moved to %q.", note.Folder)), nil
}

func (n *NoteboxMCP) listTemplatesHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := n.app.templates.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("# templates (results: %d)\n", len(list))
	for _, t := range list {
		result += fmt.Sprintf("- `%s` %s [%s] %s\n", t.ID, t.Name, t.Category, strings.Join(t.Placeholders, " "))
	}

	return mcp.NewToolResultText(result), nil
}

func (n *NoteboxMCP) createFromTemplateHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("template_id", "")
	rawValues := req.GetString("values", "{}")

	var values map[string]string
	if err := json.Unmarshal([]byte(rawValues), &values); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	t, err := n.app.templates.Get(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if t == nil {
		return mcp.NewToolResultError("template not found"), nil
	}

	content, err := n.app.templates.CreateNoteFromTemplate(id, placeholderValues(values))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	note, err := n.app.notes.Create("", content, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Note `%s` has been created from %q.", note.ID, t.Name)), nil
}

func (n *NoteboxMCP) suggestTagsHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note, err := n.note(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := ""
	for _, t := range assist.SuggestTags(note.Content, note.Tags) {
		result += "#" + t + "\n"
	}

	return mcp.NewToolResultText(result), nil
}

func (n *NoteboxMCP) summarizeHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note, err := n.note(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(assist.Summarize(note.Content, req.GetInt("max_length", 200))), nil
}

func (n *NoteboxMCP) backupHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := n.app.backups.CreateLocalBackup(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(path), nil
}

func (n *NoteboxMCP) restoreHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count, err := n.app.backups.RestoreFromBackup(ctx, req.GetString("path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Restored %d notes.", count)), nil
}

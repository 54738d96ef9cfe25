package mcpserver

// BoardFormatContract describes the kanban fenced block format that LLM
// consumers should follow when editing board documents directly.
const BoardFormatContract = `# Kanbo Board Format Contract

A board lives in a fenced code block tagged ` + "`" + `kanban` + "`" + ` inside any Markdown
document. A document may hold several boards; they are numbered from 0 in
document order. Text outside the blocks is never touched by board edits.

## Shapes

A block holds JSON in one of two shapes. Comments and trailing commas are tolerated.

Bare task list (default columns ` + "`" + `todo` + "`" + `, ` + "`" + `in progress` + "`" + `, ` + "`" + `done` + "`" + `):

` + "````" + `markdown
` + "```" + `kanban
[
  { "task": "Write docs", "status": "todo", "tags": ["#docs"] },
  { "task": "Ship", "status": "in progress", "targetTime": "2h" }
]
` + "```" + `
` + "````" + `

Board object (custom columns and settings):

` + "````" + `markdown
` + "```" + `kanban
{
  "columns": ["backlog", "doing", "review", "done"],
  "columnMetadata": [
    { "name": "doing", "state": "in-progress" },
    { "name": "done", "state": "done", "sortField": "updateDateTime", "sortOrder": "desc" }
  ],
  "collapsedColumns": ["done"],
  "view": "horizontal",
  "tasks": [
    { "task": "Write docs", "status": "backlog" }
  ]
}
` + "```" + `
` + "````" + `

A bare list is rewritten as a board object as soon as the board gains columns,
column settings or a collapsed column.

## Task fields

| Field | Meaning |
|---|---|
| ` + "`" + `task` + "`" + ` | REQUIRED. Title; unique within the board. |
| ` + "`" + `status` + "`" + ` | Column name. Missing or unknown statuses land in the first column. ` + "`" + `to-do` + "`" + `, ` + "`" + `doing` + "`" + `, ` + "`" + `completed` + "`" + ` and similar synonyms are normalized. |
| ` + "`" + `targetTime` + "`" + ` | Composite duration (` + "`" + `1h 30m` + "`" + `, ` + "`" + `1.5h` + "`" + `, ` + "`" + `2d` + "`" + `; ` + "`" + `m` + "`" + ` is minutes, ` + "`" + `M` + "`" + ` is months) or a ` + "`" + `YYYY-MM-DD` + "`" + ` deadline. |
| ` + "`" + `tags` + "`" + ` | List of strings, kept as written (usually with a leading ` + "`" + `#` + "`" + `). |
| ` + "`" + `dueDate` + "`" + ` | Timestamp. |
| ` + "`" + `updateDateTime` + "`" + ` | Timestamp of the last column change or edit. |
| ` + "`" + `timerEntries` + "`" + ` | List of ` + "`" + `{ "startTime": ..., "endTime": ... }` + "`" + `. ` + "`" + `endTime: null` + "`" + ` means running. |

Timestamps are UTC with millisecond precision: ` + "`" + `2026-03-02T09:00:00.000Z` + "`" + `.

## Rules

1. **One running timer per board.** Starting a timer closes any other open entry.
2. **Column states drive timers.** Moving a task into an ` + "`" + `in-progress` + "`" + ` column starts
   its timer; moving it out stops it.
3. **Task order in ` + "`" + `tasks` + "`" + ` is the manual order.** Columns with a ` + "`" + `sortField` + "`" + `
   display sorted but keep the stored order.
4. **Prefer the tools** (` + "`" + `move_task` + "`" + `, ` + "`" + `toggle_timer` + "`" + `, ` + "`" + `add_task` + "`" + `) over
   hand edits; they keep these rules and only rewrite the one block.
5. **Encoding** is UTF-8; file paths end with ` + "`" + `.md` + "`" + ` and use forward slashes.
`

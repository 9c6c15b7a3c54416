package mcpserver

// JournalSyntax describes how journal entries are linked to records, for
// models that write entries through capture_journal.
const JournalSyntax = `# Journal syntax

A journal entry is free text. Saving it links the entry to the clients,
projects and content assets it mentions and records its hashtags.

## Mentions

- Write ` + "`@`" + ` followed by the exact name of a client, project or content
  title: ` + "`@Acme Corp`" + `, ` + "`@Spring launch`" + `.
- Matching is case-insensitive. When names overlap the longest one wins,
  so ` + "`@Acme Corp`" + ` links the client "Acme Corp", not "Acme".
- An ` + "`@`" + ` that matches nothing stays plain text.
- Deleted records are never linked.

## Tags

- ` + "`#launch`" + `, ` + "`#q3-planning`" + `: letters, digits, ` + "`-`" + ` and ` + "`_`" + `.
- Tags are stored lower-case and de-duplicated.

## Example

    Call with @Acme Corp about @Spring launch. Budget approved. #launch #budget

links one client and one project and records the tags "launch" and "budget".
`

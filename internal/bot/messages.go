package bot

// User-facing message templates. Failure messages never echo backend
// detail; the logs carry that.
const (
	msgInternalError   = "❌ Something went wrong on our side. Please try again."
	msgUnknownCommand  = "❓ Unknown command. Send /help for the list of commands."
	msgForbidden       = "🚫 You don't have permission to do that."
	msgSetupRequired   = "⚙️ You need a default project first. Run /setup to pick one, or /quick to create one from scratch."
	msgWizardConflict  = "🧙 Another wizard is already in progress. Finish it or send 'cancel' first."
	msgStorageError    = "❌ Could not save your data. Please try again."
	msgNetworkError    = "🔗 The issue tracker is unreachable right now. Please try again later."
	msgWizardCancelled = "❌ Wizard cancelled. Nothing was saved."
	msgNothingToCancel = "Nothing to cancel. No wizard is in progress."
)

const helpText = `🤖 TicketPilot — issue tracking from chat

Quick start:
Just send a message and it becomes an issue in your default project.
Prefix it with a priority or type to override your defaults, e.g.:
  high bug checkout page crashes on submit

Issues:
/create (c) — guided issue creation
/view (v) <KEY> — issue details
/edit <KEY> <field> <value> — change summary, description or priority
/assign <KEY> <account> — assign an issue
/transition <KEY> [status] — move an issue through its workflow
/myissues (mi) — issues you reported
/listissues (li) [project] — recent issues
/searchissues (si) <text> — search issues
/comment <KEY> <text> — comment on an issue

Setup:
/setup — pick default project, priority and type
/quick (q) — create a project and make it your default
/setdefault (sd) <KEY> — switch default project
/settings — show your current defaults
/projects (p) — list projects
/cancel — abort the current wizard

Admin:
/addproject (ap) — register a project
/editproject (ep) <KEY> <name...> — rename a project
/deleteproject (dp) <KEY> — deactivate a project
/syncjira (sync) [KEY] — pull recent issues from Jira
/status (s) — bot status
/users (u) — list known users

Super admin:
/role <user_id> <user|admin|super_admin> — change a user's role`

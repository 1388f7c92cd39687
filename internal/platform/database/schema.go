package database

import "database/sql"

// Schema is applied at startup and by cmd/migrate. Statements are idempotent
// so the server can bootstrap a fresh database file on first run.
//
// Foreign key clauses are declarative only: sqlite leaves enforcement off by
// default and the automation engine relies on that (a deal may reference a
// lead id that no longer resolves). Log cleanup on rule deletion is done
// explicitly in the rule repository.
const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	phone TEXT NOT NULL,
	email TEXT,
	company TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS leads (
	id TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL REFERENCES contacts(id),
	source TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'new',
	assigned_to TEXT NOT NULL,
	last_touch_at INTEGER,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS deals (
	id TEXT PRIMARY KEY,
	lead_id TEXT NOT NULL REFERENCES leads(id),
	title TEXT NOT NULL,
	value REAL NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT 'USD',
	stage TEXT NOT NULL DEFAULT 'new',
	probability INTEGER NOT NULL DEFAULT 0 CHECK (probability >= 0 AND probability <= 100),
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS activity_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	lead_id TEXT NOT NULL REFERENCES leads(id),
	activity_type TEXT NOT NULL,
	text TEXT NOT NULL,
	created_by TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS automation_rules (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	trigger_type TEXT NOT NULL,
	trigger_config TEXT,
	action_type TEXT NOT NULL,
	action_config TEXT,
	active INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS webhook_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	rule_id INTEGER NOT NULL REFERENCES automation_rules(id) ON DELETE CASCADE,
	request_payload TEXT,
	response_status INTEGER,
	response_body TEXT,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_last_touch ON leads(last_touch_at);
CREATE INDEX IF NOT EXISTS idx_activity_logs_lead ON activity_logs(lead_id);
CREATE INDEX IF NOT EXISTS idx_webhook_logs_rule ON webhook_logs(rule_id);
`

func Migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

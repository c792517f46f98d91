package sqlite

// schema is applied on every open; all statements are idempotent.
// Parent links cascade so deleting an outcome removes its whole subtree,
// and deleting a project removes the entire plan tree.
const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	vision     TEXT NOT NULL,
	version    INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS outcomes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id  INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	description TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS benefits (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	outcome_id  INTEGER NOT NULL REFERENCES outcomes(id) ON DELETE CASCADE,
	description TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS deliverables (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	benefit_id  INTEGER NOT NULL REFERENCES benefits(id) ON DELETE CASCADE,
	description TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	deliverable_id   INTEGER REFERENCES deliverables(id) ON DELETE CASCADE,
	name             TEXT NOT NULL,
	responsible_team TEXT NOT NULL DEFAULT 'Unassigned',
	duration         INTEGER NOT NULL DEFAULT 1,
	start_date       TEXT,
	end_date         TEXT,
	progress         INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_outcomes_project     ON outcomes(project_id);
CREATE INDEX IF NOT EXISTS idx_benefits_outcome     ON benefits(outcome_id);
CREATE INDEX IF NOT EXISTS idx_deliverables_benefit ON deliverables(benefit_id);
CREATE INDEX IF NOT EXISTS idx_tasks_deliverable    ON tasks(deliverable_id);
`

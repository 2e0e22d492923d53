// Package schema defines the database schema for development.
//
// DEVELOPMENT USE ONLY
// This file contains the current database schema and is used for development and testing.
// Before deploying to production, these table definitions should be converted to proper migrations.
package schema

// TableDefinitions contains all the SQL statements to create the database tables
// Don't put REFERENCES and don't put CHECK constraints in the CREATE TABLE statements
var TableDefinitions = []string{
	`CREATE TABLE IF NOT EXISTS templates (
		organization_id VARCHAR(32) NOT NULL,
		id VARCHAR(32) NOT NULL,
		name VARCHAR(255) NOT NULL,
		version INTEGER NOT NULL,
		category VARCHAR(20) NOT NULL,
		email JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		deleted_at TIMESTAMP,
		PRIMARY KEY (organization_id, id, version)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_templates_org_category ON templates(organization_id, category)`,
	`CREATE INDEX IF NOT EXISTS idx_templates_updated_at ON templates(updated_at)`,
}

// TableNames lists the tables owned by this service, in creation order
var TableNames = []string{
	"templates",
}

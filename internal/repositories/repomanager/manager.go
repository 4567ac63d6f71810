// Package repomanager vends repository implementations bound to a database
// handle and runs schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/photodiary/internal/dbx"
	"github.com/dmitrijs2005/photodiary/internal/repositories/memories"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Memories(db dbx.DBTX) memories.Repository
}

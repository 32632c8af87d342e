package db

import (
	"context"
	"database/sql"

	"github.com/offnote/offnote/internal/server/notes"
	"github.com/offnote/offnote/internal/server/refreshtokens"
	"github.com/offnote/offnote/internal/server/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	RefreshTokens() refreshtokens.Repository
	Notes() notes.Repository
}

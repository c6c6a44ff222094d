package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stemsi/tutor-portal/internal/docstore"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// ErrNotFound is returned when a document or row does not exist.
var ErrNotFound = docstore.ErrNotFound

// Document paths. Everything a student sees lives under the owner that
// administers them: users/{owner}/...

const studentsCollection = "students"

func studentPath(uid string) string {
	return docstore.Doc(studentsCollection, uid)
}

func ownerCollection(owner, name string) string {
	return docstore.Collection("users", owner, name)
}

func groupCollection(owner, groupID, name string) string {
	return docstore.Collection("users", owner, "groups", groupID, name)
}

func examCollection(owner, groupID, examID, name string) string {
	return docstore.Collection("users", owner, "groups", groupID, "exams", examID, name)
}

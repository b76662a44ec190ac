package interfaces

// Session is a database connection session.
type Session interface {
	Begin() error
	Close() error
	Commit() error
	Rollback() error
}

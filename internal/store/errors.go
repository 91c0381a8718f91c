package store

import "errors"

// Sentinel errors returned by repository methods. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrNotFound is returned when the addressed identity does not exist.
	ErrNotFound = errors.New("identity not found")

	// ErrUnavailable wraps every failure of the storage engine itself. It is
	// never converted into an empty or false result.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrSecretChanged is returned by ReplaceSecret when the stored secret
	// no longer matches the expected value, i.e. the record was rewritten
	// or deleted concurrently.
	ErrSecretChanged = errors.New("stored secret changed concurrently")

	// ErrEmptyLabel is returned when an identity would be stored without a
	// label.
	ErrEmptyLabel = errors.New("identity label is empty")

	// ErrUnsupportedDriver is returned by NewStorages for an unknown driver.
	ErrUnsupportedDriver = errors.New("unsupported storage driver")
)

// Low-level database operation errors. These are wrapped together with
// [ErrUnavailable] so that both the engine-level cause and the public
// classification survive.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when a SELECT fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the driver cannot start a new
	// transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning a single result row fails.
	ErrScanningRow = errors.New("failed to scan account row")

	// ErrScanningRows is returned when iterating a multi-row result fails.
	ErrScanningRows = errors.New("failed to scan account rows")

	// ErrMongoOperation is returned when a MongoDB command fails.
	ErrMongoOperation = errors.New("mongo operation failed")
)

// Package enums provides type-safe enumeration types for records and API parameters.
//
// The enum types are defined as unexported integer types in this file, and the go:generate
// directives invoke go-pkgz/enum to create the exported types in separate files (*_enum.go).
//
// For each enum type the generated code provides:
//   - An exported struct type (e.g., BackupStatus) with name and value fields
//   - String() method for string representation
//   - Parse functions (e.g., ParseBackupStatus) for string-to-enum conversion
//   - Database methods (Scan/Value), values are stored as strings
//   - JSON marshaling methods (MarshalText/UnmarshalText)
//   - Exported constants for each enum value (e.g., BackupStatusSuccess)
//
// To regenerate the enum types after modifications:
//
//	go generate ./app/web/enums
package enums

//go:generate go run github.com/go-pkgz/enum@latest -type backupStatus -lower
//go:generate go run github.com/go-pkgz/enum@latest -type storageLocation -lower
//go:generate go run github.com/go-pkgz/enum@latest -type backupOperation -lower
//go:generate go run github.com/go-pkgz/enum@latest -type userType -lower

// backupStatus represents the state of a backup or restore run.
// Use the exported BackupStatus type and its constants in actual code.
type backupStatus int

const (
	backupStatusSuccess backupStatus = iota
	backupStatusFailed
	backupStatusInProgress // in_progress
)

// storageLocation tells where a backup file can be found.
// Use the exported StorageLocation type and its constants in actual code.
type storageLocation int

const (
	storageLocationLocal       storageLocation = iota
	storageLocationGoogleDrive // google_drive
	storageLocationBoth
	storageLocationNone
)

// backupOperation is an operation accepted by the backup execute endpoint.
// Use the exported BackupOperation type and its constants in actual code.
type backupOperation int

const (
	backupOperationCreate backupOperation = iota
	backupOperationCleanup
	backupOperationRestore
)

// userType is an account filter used by the account list.
// Use the exported UserType type and its constants in actual code.
type userType int

const (
	userTypeSuperadmin userType = iota
	userTypeAdmin
	userTypeStaff
)

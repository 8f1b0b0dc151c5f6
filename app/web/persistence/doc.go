// Package persistence provides storage for HR records: user accounts, employees with their
// files, PDS sections, service records and backup records. It works on top of sqlx with
// either SQLite (WAL mode, used for development and tests) or MySQL as the backend.
package persistence

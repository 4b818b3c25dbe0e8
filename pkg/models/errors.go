package models

import "errors"

// Common errors for vault metadata operations.
var (
	// User errors
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")

	// Project errors
	ErrProjectNotFound  = errors.New("project not found")
	ErrDuplicateProject = errors.New("channel already hosts a project")

	// File errors
	ErrFileNotFound = errors.New("file not found")
	ErrDuplicateFile = errors.New("file with this name already exists in project")

	// Version errors
	ErrVersionNotFound = errors.New("file version not found")
	ErrVersionConflict = errors.New("version number already exists for file")

	// Lock errors
	ErrLockNotFound = errors.New("file lock not found")

	// Reference errors
	ErrReferenceNotFound = errors.New("file reference not found")

	// Deletion errors
	ErrDeletionRecordNotFound = errors.New("deletion record not found")
)

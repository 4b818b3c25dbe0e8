package apiclient

// GetLock returns the active lock on a file. A file that is not checked
// out comes back as an APIError with IsNotFound true.
func (c *Client) GetLock(fileID string) (*FileLock, error) {
	return getResource[FileLock](c, resourcePath("/api/v1/files/%s/lock", fileID))
}

// ListLocks returns the live locks held on files in a project.
func (c *Client) ListLocks(projectID string) ([]FileLock, error) {
	return listResources[FileLock](c, resourcePath("/api/v1/projects/%s/locks", projectID))
}

// ForceReleaseLock breaks a lock regardless of owner. Admin only.
func (c *Client) ForceReleaseLock(fileID string) error {
	return c.delete(resourcePath("/api/v1/files/%s/lock", fileID), nil)
}

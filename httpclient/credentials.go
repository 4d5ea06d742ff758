package httpclient

// resolve picks the identification field for a call. The branch key wins over
// the app key; ok is false when neither is set.
func (c Credentials) resolve() (field, value string, ok bool) {
	switch {
	case c.BranchKey != "":
		return FieldBranchKey, c.BranchKey, true
	case c.AppKey != "":
		return FieldAppID, c.AppKey, true
	default:
		return "", "", false
	}
}

// IsSet reports whether at least one key is configured.
func (c Credentials) IsSet() bool {
	_, _, ok := c.resolve()
	return ok
}

package testing

// Logger Constants
const (
	TestLoggerLevelDebug    = "debug"
	TestLoggerLevelDisabled = "disabled"
)

// Branch Constants
// Keys and endpoints shared by tests that drive the client or the CLI.
const (
	TestBranchKey = "key_test_hdcBLUy1xZ1JD0tKg7qrLcgirFmPPVJc"
	TestAppKey    = "12345678"
	TestBaseURL   = "https://api.branch.io/"
	TestURLPath   = "v1/url"
	TestOpenPath  = "v1/open"
	TestTag       = "test-tag"
)

package commands

// DescribeFailure exports describeFailure for testing.
var DescribeFailure = describeFailure //nolint:gochecknoglobals // test export

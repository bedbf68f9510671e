package testutil

import (
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// NullLogger returns a logger that discards output and a hook that records
// every entry for assertions.
func NullLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

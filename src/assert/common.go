package assert

import "fmt"

// TestingErrf is an interface which supports reporting errors in testing
// types such as testing.T, testing.TB and similar.
type TestingErrf interface {
	Errorf(format string, args ...any)
	Helper()
}

// TestingFatalf is an interface which supports reporting fatal errors in
// testing types such as testing.T, testing.TB and similar.
type TestingFatalf interface {
	Fatalf(format string, args ...any)
	Helper()
}

func fromMsgAndArgs(msgAndArgs ...any) string {
	if len(msgAndArgs) == 0 {
		return ""
	}

	fmtStr, ok := msgAndArgs[0].(string)
	if !ok {
		panic("The first argument in msgAndArgs must be a string format value.")
	}

	return fmt.Sprintf(" ("+fmtStr+")", msgAndArgs[1:]...)
}

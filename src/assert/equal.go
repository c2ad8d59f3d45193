package assert

// Equal checks whether expected and actual are actually equal and fails the
// test if they are not.
func Equal[V comparable](t TestingErrf, expected, actual V, msgAndArgs ...any) {
	t.Helper()

	if expected == actual {
		return
	}

	t.Errorf("not equal: expected `%#v` but got `%#v`%s",
		expected, actual, fromMsgAndArgs(msgAndArgs...),
	)
}

// True checks that val is true and fails the test if it is not.
func True(t TestingErrf, val bool, msgAndArgs ...any) {
	t.Helper()

	if val {
		return
	}

	t.Errorf("expected true but got false%s", fromMsgAndArgs(msgAndArgs...))
}

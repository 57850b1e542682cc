package ethutil

const revertPrefix = "VM Exception while processing transaction: revert"

// RevertError returns the message development nodes report for a reverted transaction, with
// the optional revert reason appended.
func RevertError(reason string) string {
	if reason == "" {
		return revertPrefix
	}

	return revertPrefix + " " + reason
}

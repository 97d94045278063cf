//go:build !unix

package inventory

// checkReadable is a no-op where access(2) is unavailable; os.ReadDir
// reports permission problems itself.
func checkReadable(string) error {
	return nil
}

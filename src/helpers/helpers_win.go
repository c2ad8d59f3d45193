//go:build windows

/*
   Helpers for windows machines
*/

package helpers

// UserDir is the name of the service directory in the user's home directory.
const UserDir = "mpdart"

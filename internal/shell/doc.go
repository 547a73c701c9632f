// Package shell formats command lines for log output.
package shell

// Package process delivers signals to application processes.
package process

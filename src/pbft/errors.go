// MIT License
//
// Copyright (c) 2024 sphinx-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package pbft

import "errors"

// Sentinel drop reasons, per the error-handling table. None of these
// escape the engine as fatal errors; handlers log and drop.
var (
	ErrMalformedEnvelope  = errors.New("pbft: malformed envelope")
	ErrUnknownSender      = errors.New("pbft: sender is not a miner in the current roster")
	ErrBadSignature       = errors.New("pbft: signature verification failed")
	ErrStaleMessage       = errors.New("pbft: message is for a past height or view")
	ErrFutureMessage      = errors.New("pbft: message is for a future height or view")
	ErrExecutionMismatch  = errors.New("pbft: re-executed block hash does not match proposal")
	ErrLockedByCommitted  = errors.New("pbft: replica is locked on a different committed prepare")
	ErrNotLeader          = errors.New("pbft: sender is not the expected leader")
	ErrDuplicatePrepare   = errors.New("pbft: duplicate prepare")
	ErrConfigInvalid      = errors.New("pbft: roster/configuration is inconsistent")
	ErrEngineStopped      = errors.New("pbft: engine is stopped")
	ErrQueueFull          = errors.New("pbft: inbound queue is full")
	ErrEmptyBlockRejected = errors.New("pbft: empty block rejected by omit-empty-block policy")
)

// backupIOError wraps a Backup Store failure. Per §7 these are logged
// and the engine continues without crash-safety for the affected height.
type backupIOError struct {
	op  string
	err error
}

func (e *backupIOError) Error() string {
	return "pbft: backup store " + e.op + ": " + e.err.Error()
}

func (e *backupIOError) Unwrap() error { return e.err }

func newBackupIOError(op string, err error) error {
	return &backupIOError{op: op, err: err}
}

package kadm5

import (
	"errors"
	"fmt"

	"github.com/authentik-community/kadmin-go/internal/bindings"
)

// Sentinel errors for failure kinds that carry no extra context. All of
// them can be tested with errors.Is, including against wrapped errors
// returned by client methods.
var (
	// ErrNullPointer reports that the native library yielded an absent
	// value where one was required.
	ErrNullPointer = errors.New("kadm5: unexpected NULL pointer from native library")

	// ErrCStringConversion reports a failed C-string to string
	// conversion (invalid encoding).
	ErrCStringConversion = errors.New("kadm5: C string conversion failed")

	// ErrCStringImportFromVec reports that a borrowed native buffer
	// could not be taken as an owned string.
	ErrCStringImportFromVec = errors.New("kadm5: cannot import byte buffer as C string")

	// ErrStringConversion reports a text encoding failure outside the
	// C-string path, such as an interior NUL byte in a name.
	ErrStringConversion = errors.New("kadm5: string conversion failed")

	// ErrEncryptionTypeConversion reports an unrecognized encryption
	// type name or code.
	ErrEncryptionTypeConversion = errors.New("kadm5: conversion to encryption type failed")

	// ErrSaltTypeConversion reports an unrecognized salt type name or
	// code.
	ErrSaltTypeConversion = errors.New("kadm5: conversion to salt type failed")

	// ErrTimestampConversion reports a native timestamp that does not
	// represent a valid point in time.
	ErrTimestampConversion = errors.New("kadm5: krb5 timestamp conversion failed")

	// ErrDateTimeConversion reports a time.Time that cannot be
	// represented as a native timestamp.
	ErrDateTimeConversion = errors.New("kadm5: time does not fit in a krb5 timestamp")

	// ErrDurationConversion reports a duration that cannot be
	// represented as a native interval.
	ErrDurationConversion = errors.New("kadm5: duration does not fit in a krb5 deltat")

	// ErrThreadSend reports that a command could not be handed to the
	// worker, typically because the client was closed.
	ErrThreadSend = errors.New("kadm5: failed to send operation to worker")

	// ErrThreadRecv reports that the worker went away before answering
	// a command.
	ErrThreadRecv = errors.New("kadm5: failed to receive result from worker")

	// ErrLock reports that the handle lifecycle lock could not be
	// acquired in time. Transient; callers may retry.
	ErrLock = errors.New("kadm5: failed to acquire the kadmin initialization lock")

	// ErrLibraryLoad reports that no native kadm5 flavor is available
	// in this binary.
	ErrLibraryLoad = errors.New("kadm5: failed to load the kadm5 library")

	// ErrClientClosed reports an operation on an already-closed client.
	ErrClientClosed = errors.New("kadm5: client is closed")
)

// Code is a kadm5 protocol status as defined by the library's com_err
// table. Values are shared between MIT and Heimdal.
type Code int64

// kadm5 status codes, in table order.
const (
	CodeFailure Code = 43787520 + iota
	CodeAuthGet
	CodeAuthAdd
	CodeAuthModify
	CodeAuthDelete
	CodeAuthInsufficient
	CodeBadDB
	CodeDup
	CodeRPCError
	CodeNoServer
	CodeBadHistKey
	CodeNotInit
	CodeUnknownPrincipal
	CodeUnknownPolicy
	CodeBadMask
	CodeBadClass
	CodeBadLength
	CodeBadPolicy
	CodeBadPrincipal
	CodeBadAuxAttr
	CodeBadHistory
	CodeBadMinPassLife
	CodePassQTooShort
	CodePassQClass
	CodePassQDict
	CodePassReuse
	CodePassTooSoon
	CodePolicyRef
	CodeInit
	CodeBadPassword
	CodeProtectPrincipal
	CodeBadServerHandle
	CodeBadStructVersion
	CodeOldStructVersion
	CodeNewStructVersion
	CodeBadAPIVersion
	CodeOldLibAPIVersion
	CodeOldServerAPIVersion
	CodeNewLibAPIVersion
	CodeNewServerAPIVersion
	CodeSecurePrincMissing
	CodeNoRenameSalt
	CodeBadClientParams
	CodeBadServerParams
	CodeAuthList
	CodeAuthChangePw
	CodeGSSError
	CodeBadTLType
	CodeMissingConfParams
	CodeBadServerName
	CodeAuthSetKey
	CodeSetKeyDupEnctypes
	CodeSetV4KeyInvalEnctype
	CodeSetKey3EtypeMismatch
	CodeMissingKrb5ConfParams
	CodeXDRFailure
	CodeCantResolve
	CodePassQGeneric
)

// Messages for the MIT kadm5 com_err table. Heimdal resolves these
// through krb5_get_error_message instead, so unseen codes fall back to
// a generic rendering.
var kadmMessages = map[Code]string{
	CodeFailure:               "Operation failed for unspecified reason",
	CodeAuthGet:               "Operation requires ``get'' privilege",
	CodeAuthAdd:               "Operation requires ``add'' privilege",
	CodeAuthModify:            "Operation requires ``modify'' privilege",
	CodeAuthDelete:            "Operation requires ``delete'' privilege",
	CodeAuthInsufficient:      "Insufficient authorization for operation",
	CodeBadDB:                 "Database inconsistency detected",
	CodeDup:                   "Principal or policy already exists",
	CodeRPCError:              "Communication failure with server",
	CodeNoServer:              "No administration server found for realm",
	CodeBadHistKey:            "Password history principal key version mismatch",
	CodeNotInit:               "Connection to server not initialized",
	CodeUnknownPrincipal:      "Principal does not exist",
	CodeUnknownPolicy:         "Policy does not exist",
	CodeBadMask:               "Invalid field mask for operation",
	CodeBadClass:              "Invalid number of character classes",
	CodeBadLength:             "Invalid password length",
	CodeBadPolicy:             "Illegal policy name",
	CodeBadPrincipal:          "Illegal principal name",
	CodeBadAuxAttr:            "Invalid auxillary attributes",
	CodeBadHistory:            "Invalid password history count",
	CodeBadMinPassLife:        "Password minimum life is greater than password maximum life",
	CodePassQTooShort:         "Password is too short",
	CodePassQClass:            "Password does not contain enough character classes",
	CodePassQDict:             "Password is in the password dictionary",
	CodePassReuse:             "Cannot reuse password",
	CodePassTooSoon:           "Current password's minimum life has not expired",
	CodePolicyRef:             "Policy is in use",
	CodeInit:                  "Connection to server already initialized",
	CodeBadPassword:           "Incorrect password",
	CodeProtectPrincipal:      "Cannot change protected principal",
	CodeBadServerHandle:       "Programmer error! Bad Admin server handle",
	CodeBadStructVersion:      "Programmer error! Bad API structure version",
	CodeOldStructVersion:      "API structure version specified by application is no longer supported",
	CodeNewStructVersion:      "API structure version specified by application is unknown to libraries",
	CodeBadAPIVersion:         "Programmer error! Bad API version",
	CodeOldLibAPIVersion:      "API version specified by application is no longer supported by libraries",
	CodeOldServerAPIVersion:   "API version specified by application is no longer supported by server",
	CodeNewLibAPIVersion:      "API version specified by application is unknown to libraries",
	CodeNewServerAPIVersion:   "API version specified by application is unknown to server",
	CodeSecurePrincMissing:    "Database error! Required principal missing",
	CodeNoRenameSalt:          "The salt type of the specified principal does not support renaming",
	CodeBadClientParams:       "Illegal configuration parameter for remote KADM5 client",
	CodeBadServerParams:       "Illegal configuration parameter for local KADM5 client",
	CodeAuthList:              "Operation requires ``list'' privilege",
	CodeAuthChangePw:          "Operation requires ``change-password'' privilege",
	CodeGSSError:              "GSS-API (or Kerberos) error",
	CodeBadTLType:             "Programmer error! Illegal tagged data list element type",
	CodeMissingConfParams:     "Required parameters in kdc.conf missing",
	CodeBadServerName:         "Bad krb5 admin server hostname",
	CodeAuthSetKey:            "Operation requires ``set-key'' privilege",
	CodeSetKeyDupEnctypes:     "Multiple values for single or folded enctype",
	CodeSetV4KeyInvalEnctype:  "Invalid enctype for setv4key",
	CodeSetKey3EtypeMismatch:  "Mismatched enctypes for setkey3",
	CodeMissingKrb5ConfParams: "Missing parameters in krb5.conf required for kadmin client",
	CodeXDRFailure:            "XDR encoding error",
	CodeCantResolve:           "Cannot resolve network address for admin server in requested realm",
	CodePassQGeneric:          "Database synchronization failed",
}

// KAdminError is a protocol-level failure reported by a kadm5 call,
// such as a missing principal or insufficient privilege.
type KAdminError struct {
	Code    Code
	Message string
}

func (e *KAdminError) Error() string {
	return fmt.Sprintf("kadm5: %s (code %d)", e.Message, int64(e.Code))
}

// KerberosError is a failure in the underlying authentication or
// credential layer, carrying the krb5 error code and the message the
// library produced for it.
type KerberosError struct {
	Code    int32
	Message string
}

func (e *KerberosError) Error() string {
	return fmt.Sprintf("kerberos: %s (code %d)", e.Message, e.Code)
}

// LibraryMismatchError reports that the loaded native library declares
// an API version other than the one these bindings target, or that the
// requested operation needs a different library flavor.
type LibraryMismatchError struct {
	Detail string
}

func (e *LibraryMismatchError) Error() string {
	return "kadm5: library mismatch: " + e.Detail
}

// RuntimeFault wraps a panic recovered on the worker thread while
// executing a command. The worker survives; only the command fails.
type RuntimeFault struct {
	Value any
}

func (e *RuntimeFault) Error() string {
	return fmt.Sprintf("kadm5: worker fault: %v", e.Value)
}

// remapError translates bindings-layer errors into the public taxonomy.
// Errors already in the taxonomy pass through unchanged.
func remapError(err error) error {
	if err == nil {
		return nil
	}
	var kadmErr *bindings.KAdmError
	if errors.As(err, &kadmErr) {
		code := Code(kadmErr.Code)
		msg, ok := kadmMessages[code]
		if !ok {
			msg = "Unknown kadm5 status"
		}
		return &KAdminError{Code: code, Message: msg}
	}
	var krbErr *bindings.KrbError
	if errors.As(err, &krbErr) {
		return &KerberosError{Code: krbErr.Code, Message: krbErr.Message}
	}
	switch {
	case errors.Is(err, bindings.ErrUnknownPrincipal):
		return &KAdminError{Code: CodeUnknownPrincipal, Message: kadmMessages[CodeUnknownPrincipal]}
	case errors.Is(err, bindings.ErrUnknownPolicy):
		return &KAdminError{Code: CodeUnknownPolicy, Message: kadmMessages[CodeUnknownPolicy]}
	case errors.Is(err, bindings.ErrNotBuilt):
		return fmt.Errorf("%w: %v", ErrLibraryLoad, err)
	case errors.Is(err, bindings.ErrNullPointer):
		return ErrNullPointer
	case errors.Is(err, bindings.ErrInvalidCString):
		return ErrCStringConversion
	case errors.Is(err, bindings.ErrInteriorNul):
		return ErrStringConversion
	}
	return err
}

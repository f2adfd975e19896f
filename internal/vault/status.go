package vault

import "fmt"

// Kind is the closed set of outcomes a vault call can have.
type Kind int

const (
	KindSuccess Kind = iota
	KindNotFound
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindNotFound:
		return "not_found"
	case KindOther:
		return "other"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// OSStatus codes shared by all backends. The numbering is the Security
// framework's so that keychain results pass through unchanged.
const (
	CodeSuccess               int32 = 0
	CodeUnimplemented         int32 = -4
	CodeIO                    int32 = -36
	CodeParam                 int32 = -50
	CodeAllocate              int32 = -108
	CodeUserCanceled          int32 = -128
	CodeNotAvailable          int32 = -25291
	CodeReadOnly              int32 = -25292
	CodeAuthFailed            int32 = -25293
	CodeNoSuchKeychain        int32 = -25294
	CodeDuplicateItem         int32 = -25299
	CodeItemNotFound          int32 = -25300
	CodeInteractionNotAllowed int32 = -25308
	CodeDataNotAvailable      int32 = -25316
	CodeDecode                int32 = -26275
	CodeMissingEntitlement    int32 = -34018
)

// Status is the outcome of a single vault call. Cause carries the backend
// error behind a KindOther status when the backend has one.
type Status struct {
	Kind  Kind
	Code  int32
	Cause error
}

func Success() Status  { return Status{Kind: KindSuccess, Code: CodeSuccess} }
func NotFound() Status { return Status{Kind: KindNotFound, Code: CodeItemNotFound} }

// Other returns a failure status for code. Codes 0 and errSecItemNotFound
// are normalized to their own kinds.
func Other(code int32) Status {
	return Failed(code, nil)
}

// Failed is Other with the backend error attached.
func Failed(code int32, cause error) Status {
	switch code {
	case CodeSuccess:
		return Success()
	case CodeItemNotFound:
		return NotFound()
	}
	return Status{Kind: KindOther, Code: code, Cause: cause}
}

func (s Status) OK() bool { return s.Kind == KindSuccess }

func (s Status) String() string {
	return fmt.Sprintf("%s (%d)", s.Kind, s.Code)
}

var messages = map[int32]string{
	CodeSuccess:               "No error.",
	CodeUnimplemented:         "Function or operation not implemented.",
	CodeIO:                    "I/O error.",
	CodeParam:                 "One or more parameters passed to a function were not valid.",
	CodeAllocate:              "Failed to allocate memory.",
	CodeUserCanceled:          "User canceled the operation.",
	CodeNotAvailable:          "No keychain is available. You may need to restart your computer.",
	CodeReadOnly:              "This keychain cannot be modified.",
	CodeAuthFailed:            "The user name or passphrase you entered is not correct.",
	CodeNoSuchKeychain:        "The specified keychain could not be found.",
	CodeDuplicateItem:         "The specified item already exists in the keychain.",
	CodeItemNotFound:          "The specified item could not be found in the keychain.",
	CodeInteractionNotAllowed: "User interaction is not allowed.",
	CodeDataNotAvailable:      "The contents of this item cannot be retrieved.",
	CodeDecode:                "Unable to decode the provided data.",
	CodeMissingEntitlement:    "A required entitlement isn't present.",
}

// Describe returns the message for a known status code.
func Describe(code int32) (string, bool) {
	msg, ok := messages[code]
	return msg, ok
}

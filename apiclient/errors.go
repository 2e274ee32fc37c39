package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIerror is the normalized form of a backend error reply.
//
// Error codes in the 4001-4999 range are the caller's fault, and error codes
// 5001-5999 are the server's fault, mimicking HTTP. Two APIerrors match under
// errors.Is when their codes are equal, so callers compare against the
// sentinels below regardless of the exact message the backend attached.
type APIerror struct {
	Code       int    `json:"code"`
	HTTPstatus int    `json:"-"`
	Message    string `json:"error"`
}

func (e APIerror) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// Is matches by code, ignoring message and HTTP status.
func (e APIerror) Is(target error) bool {
	t, ok := target.(APIerror)
	return ok && t.Code == e.Code
}

var (
	ErrElectionNotFound  = APIerror{Code: 4001, HTTPstatus: http.StatusNotFound, Message: "election not found"}
	ErrCandidateNotFound = APIerror{Code: 4002, HTTPstatus: http.StatusNotFound, Message: "candidate not found"}
	ErrAlreadyVoted      = APIerror{Code: 4003, HTTPstatus: http.StatusConflict, Message: "voter has already voted in this election"}
	ErrVotingClosed      = APIerror{Code: 4004, HTTPstatus: http.StatusBadRequest, Message: "election is not open for voting"}
	ErrOTPInvalid        = APIerror{Code: 4005, HTTPstatus: http.StatusBadRequest, Message: "confirmation code is not valid"}
	ErrOTPExpired        = APIerror{Code: 4006, HTTPstatus: http.StatusBadRequest, Message: "confirmation code has expired"}
	ErrVoteNotFound      = APIerror{Code: 4007, HTTPstatus: http.StatusNotFound, Message: "vote not found"}
	ErrUnauthorized      = APIerror{Code: 4008, HTTPstatus: http.StatusUnauthorized, Message: "missing or invalid bearer token"}

	ErrServerInternal = APIerror{Code: 5001, HTTPstatus: http.StatusInternalServerError, Message: "internal server error"}
)

// knownCodes maps backend error codes to their sentinel, so that errors.Is
// works against replies that carry a code.
var knownCodes = map[int]APIerror{
	ErrElectionNotFound.Code:  ErrElectionNotFound,
	ErrCandidateNotFound.Code: ErrCandidateNotFound,
	ErrAlreadyVoted.Code:      ErrAlreadyVoted,
	ErrVotingClosed.Code:      ErrVotingClosed,
	ErrOTPInvalid.Code:        ErrOTPInvalid,
	ErrOTPExpired.Code:        ErrOTPExpired,
	ErrVoteNotFound.Code:      ErrVoteNotFound,
	ErrUnauthorized.Code:      ErrUnauthorized,
	ErrServerInternal.Code:    ErrServerInternal,
}

// errorReply covers the error payload shapes the backend has been seen to
// produce. The message has travelled under three different keys across
// backend versions; all of them collapse to one APIerror here, before the
// error reaches any decision logic.
type errorReply struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Code    int    `json:"code"`
}

// normalizeError turns a non-2xx backend reply into an APIerror. The
// backend-supplied message is passed through verbatim when present, with a
// generic fallback otherwise.
func normalizeError(status int, body []byte) error {
	reply := errorReply{}
	// A non-JSON body is fine, the zero reply falls through to the
	// generic message.
	_ = json.Unmarshal(body, &reply)

	msg := reply.Error
	if msg == "" {
		msg = reply.Message
	}
	if msg == "" {
		msg = reply.Detail
	}
	if msg == "" {
		msg = fmt.Sprintf("API server replied with status %d", status)
	}

	if known, ok := knownCodes[reply.Code]; ok {
		return APIerror{Code: known.Code, HTTPstatus: status, Message: msg}
	}
	code := ErrServerInternal.Code
	if status < http.StatusInternalServerError {
		code = 4000
	}
	return APIerror{Code: code, HTTPstatus: status, Message: msg}
}

package model

import (
	"fmt"
	"regexp"

	log "github.com/sirupsen/logrus"
)

const (
	ErrorParams        = 100001
	ErrorRetrieval     = 100002
	ErrorGeneration    = 100003
	ErrorStorage       = 100004
	ErrorIndexNotReady = 100005
	ErrorIngest        = 100006
)

var ErrorMessages = map[int]string{
	ErrorParams:        "invalid request parameters",
	ErrorRetrieval:     "failed to retrieve passages from the vector index",
	ErrorGeneration:    "answer generation failed, please try again",
	ErrorStorage:       "conversation storage error",
	ErrorIndexNotReady: "vector index is not built yet, run ingestion first",
	ErrorIngest:        "ingestion run failed",
}

type Error struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	InnerError error  `json:"inner_error"`
}

func (err Error) Error() string {
	return err.Message
}

func (err Error) String() string {
	return err.InnerError.Error()
}

func NewError(code int, innerError error) *Error {
	if innerError != nil {
		var re = regexp.MustCompile(`[\n\t]+`)
		innerErrorString := re.ReplaceAllString(fmt.Sprintf("%+v", innerError), " ")
		log.Errorf("NewError code:%d, message:%s, innerError:%+v\n", code, ErrorMessages[code], innerErrorString)
	}
	return &Error{
		Code:       code,
		Message:    ErrorMessages[code],
		InnerError: nil,
	}
}

func NewErrorWithMessage(code int, message string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		InnerError: nil,
	}
}

package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/coder-lang/Chatbotscannedpdf/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader    = "X-Request-ID"
	GinContextErrorKey = "Error"
	RequestIDInLogName = "request_id"
)

// RequestID tags every request with an id, reusing the caller's header when
// one is supplied.
func RequestID(ctx *gin.Context) {
	requestID := ctx.GetHeader(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx.Set(RequestIDHeader, requestID)
	ctx.Header(RequestIDHeader, requestID)
	ctx.Next()
}

func Logger(ctx *gin.Context) {
	start := time.Now().UTC()
	path := ctx.Request.URL.Path

	request := ""
	if config.GetInstance().GetBool(config.ApplicationLogRequest) {
		var bodyBytes []byte
		if ctx.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(ctx.Request.Body)
		}
		idr := io.NopCloser(bytes.NewBuffer(bodyBytes))
		var err error
		request, err = readBody(idr)
		if err != nil {
			logrus.Errorf("read body bytes err:%v", err)
			return
		}
		ctx.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	}

	ip := ctx.ClientIP()

	ctx.Next()

	end := time.Now().UTC()
	latency := end.Sub(start)
	requestID, ok := ctx.Get(RequestIDHeader)
	if !ok {
		logrus.Infof("%s| %s| %s| %s |request: %s", ctx.Request.Method, latency, ip, path, request)
	} else {
		logrus.WithField(RequestIDInLogName, requestID).Infof("%s| %s| %s| %s |request: %s", ctx.Request.Method, latency, ip, path, request)
	}
}

func readBody(reader io.Reader) (string, error) {
	buf := new(bytes.Buffer)
	_, err := buf.ReadFrom(reader)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return buf.String(), nil
}

package controller

import (
	"net/http"

	"github.com/coder-lang/Chatbotscannedpdf/model"
	"github.com/coder-lang/Chatbotscannedpdf/service/factory"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func statusForError(err *model.Error) int {
	switch err.Code {
	case model.ErrorParams:
		return http.StatusBadRequest
	case model.ErrorGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Chat answers one user message.
func Chat(ctx *gin.Context) {
	var req model.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewError(model.ErrorParams, err))
		return
	}

	res, chatErr := factory.GetServiceFactory().NewChatService().Chat(ctx, req.UserID, req.Message)
	if chatErr != nil {
		log.Errorf("Chat error: %v", chatErr)
		ctx.JSON(statusForError(chatErr), chatErr)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

// GetHistory returns the full conversation for a user_id.
// GET /api/v1/chat/history?user_id=abc-123
func GetHistory(ctx *gin.Context) {
	userID := ctx.Query("user_id")
	if userID == "" {
		ctx.JSON(http.StatusBadRequest, model.NewErrorWithMessage(model.ErrorParams, "user_id is required"))
		return
	}

	res, chatErr := factory.GetServiceFactory().NewChatService().GetHistory(ctx, userID)
	if chatErr != nil {
		log.Errorf("GetHistory error: %v", chatErr)
		ctx.JSON(statusForError(chatErr), chatErr)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

// CheckUser reports whether a user_id has prior history.
// GET /api/v1/chat/exists?user_id=abc-123
func CheckUser(ctx *gin.Context) {
	userID := ctx.Query("user_id")
	if userID == "" {
		ctx.JSON(http.StatusBadRequest, model.NewErrorWithMessage(model.ErrorParams, "user_id is required"))
		return
	}

	res, chatErr := factory.GetServiceFactory().NewChatService().UserExists(ctx, userID)
	if chatErr != nil {
		log.Errorf("CheckUser error: %v", chatErr)
		ctx.JSON(statusForError(chatErr), chatErr)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

// ClearHistory deletes the conversation for a user_id.
func ClearHistory(ctx *gin.Context) {
	var req model.ClearRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewError(model.ErrorParams, err))
		return
	}

	if chatErr := factory.GetServiceFactory().NewChatService().ClearHistory(ctx, req.UserID); chatErr != nil {
		log.Errorf("ClearHistory error: %v", chatErr)
		ctx.JSON(statusForError(chatErr), chatErr)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// Health reports liveness and the current index size.
func Health(ctx *gin.Context) {
	size, err := factory.GetServiceFactory().NewChatService().IndexSize(ctx)
	if err != nil {
		log.Errorf("Health error: %v", err)
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"index_size":  size,
		"index_ready": size > 0,
	})
}

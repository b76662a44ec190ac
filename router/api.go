package router

import (
	"github.com/coder-lang/Chatbotscannedpdf/controller"
	"github.com/gin-gonic/gin"
)

func addApiRouter(engine *gin.Engine) {
	api := engine.Group("/api/v1")
	{
		api.POST("/chat", controller.Chat)
		api.GET("/chat/history", controller.GetHistory)
		api.GET("/chat/exists", controller.CheckUser)
		api.DELETE("/chat/history", controller.ClearHistory)
	}
}

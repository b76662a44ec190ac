package router

import (
	"sync"

	"github.com/coder-lang/Chatbotscannedpdf/controller"
	"github.com/coder-lang/Chatbotscannedpdf/middleware"
	"github.com/gin-gonic/gin"
)

var once sync.Once
var instance *gin.Engine

func init() {
	once.Do(func() {
		instance = gin.New()
		addBasicRouter(instance)
		addApiRouter(instance)
	})
}

func addBasicRouter(engine *gin.Engine) {
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID)
	engine.Use(middleware.Logger)

	engine.GET("/health", controller.Health)
}

func GetInstance() *gin.Engine {
	return instance
}

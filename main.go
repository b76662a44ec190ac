package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/coder-lang/Chatbotscannedpdf/config"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/projectlog"
	"github.com/coder-lang/Chatbotscannedpdf/router"
	"github.com/coder-lang/Chatbotscannedpdf/service/factory"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	defer func() {
		if serviceErr := recover(); serviceErr != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)
			log.Println("The service exits abnormally, error message:【", serviceErr, "】")
			log.Println("Stack info: ")
			fmt.Printf("==> %s\n", string(buf[:n]))

			os.Exit(1)
		}
	}()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on process environment")
	}

	projectlog.Init()
	checkIndexReady()

	go startServer()
	waitStop()
}

// checkIndexReady refuses to serve against an empty vector index. An index
// that has not been built yet means ingestion has not run; answering queries
// against it would reject everything.
func checkIndexReady() {
	size, err := factory.GetServiceFactory().NewChatService().IndexSize(context.Background())
	if err != nil {
		logrus.Errorf("failed to read vector index size: %v", err)
		panic(err)
	}
	if size == 0 {
		panic("vector index is empty, run the ingest command before serving")
	}
	logrus.Infof("vector index ready with %d chunk(s)", size)
}

func startServer() {
	addr := config.GetInstance().GetString(config.AppHost)
	if err := http.ListenAndServe(addr, router.GetInstance()); err != nil {
		logrus.Errorf("Failed to ListenAndServer at %v, err = %v", addr, err)
		os.Exit(1)
	}
}

func waitStop() {
	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	sig := <-sc
	log.Printf("exit: signal=<%d>.\n", sig)
	switch sig {
	case syscall.SIGTERM:
		log.Println("exit: bye :-).")
		os.Exit(0)
	default:
		log.Println("exit: bye :-(.")
		os.Exit(1)
	}
}
